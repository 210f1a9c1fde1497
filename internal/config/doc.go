// Package config provides centralized configuration management for the
// fails-to-deliver pipeline. It handles loading configuration from multiple
// sources, validation, and the executable-anchored directory layout shared
// by every stage binary.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. config.yaml next to the binary or under configs/
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern FTD_* for namespacing:
//
//	FTD_SOURCE_INDEX_URL=https://www.sec.gov/data-research/sec-markets-data/fails-deliver-data
//	FTD_SOURCE_USER_AGENT="ftdcli/1.0 (you@example.com)"
//	FTD_FETCH_CONCURRENCY=8
//	FTD_LOGGING_LEVEL=info
//
// # Paths
//
// All file system paths resolve relative to the executable directory, never
// the current working directory, so the binaries behave the same whether
// started by hand or from cron. See Paths for the full layout.
package config
