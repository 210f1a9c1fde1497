package config

// Application constants for the fails-to-deliver pipeline
const (
	// Remote source defaults. The index page lists one zip archive per
	// published distribution; the publisher requires a contact User-Agent.
	DefaultIndexURL  = "https://www.sec.gov/data-research/sec-markets-data/fails-deliver-data"
	DefaultReferer   = "https://www.sec.gov/"
	DefaultUserAgent = "ftdcli/1.0 (contact@example.com)"

	// Durable state file names (under the state directory)
	LedgerFileName  = "downloaded.json"
	LastRunFileName = "last_run.json"
	EmptyLogName    = "empty.log"
	LockFileName    = "run.lock"

	// Store file names (under the src directory)
	MasterCSVName        = "master.csv"
	PeriodsCSVName       = "master.periods.csv"
	PeriodsWeightCSVName = "master.periods_weight.csv"

	// Data subdirectory names
	ArchivesDirName = "archives"
	RawDirName      = "raw"
	TickersDirName  = "tickers"
	UniverseDirName = "universe"
	SrcDirName      = "src"
	StateDirName    = "state"
	MapFilesDirName = "map_files"

	// File Paths (relative to executable)
	DefaultDataDir = "data"
	DefaultLogsDir = "logs"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
