// Package dataprocessing turns raw pipe-delimited disclosure lines into
// validated fail-to-deliver records.
//
// # Architecture
//
// The package is organized into two components:
//
//  1. Normalizer: repairs drifted column layouts and parses rows
//  2. Symbol handling: ticker cleanup plus the optional map-file allow-list
//
// # Usage
//
// Basic normalization example:
//
//	n := dataprocessing.NewNormalizer(cfg.Processing, logger)
//	records, stats := n.NormalizeReader(member)
//	if stats.Kept == 0 {
//	    // empty outcome: log the source, keep the file
//	}
//
// # Data Flow
//
// The typical flow through this package:
//
//	Raw member lines → slot repair → row filters → FailRecords → merge stage
//
// # Error Handling
//
// Row-level problems are never fatal. A malformed row is dropped and
// counted in the returned statistics so callers can log or aggregate the
// loss; only the caller decides whether a fully-empty result is a problem.
package dataprocessing
