package pgload

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Load completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or parameters
	ExitConnectionError  = 11 // Failed to connect to database
	ExitSourceError      = 15 // Source missing, unreadable or malformed
	ExitTimestampError   = 16 // Timestamp column value could not be parsed
	ExitAppendError      = 17 // Batch rejected by the destination
	ExitEmptySourceError = 18 // Source has a header but no rows
)

const (
	// DefaultChunkSize is the number of rows read, converted and written per batch.
	DefaultChunkSize = 100_000

	// DefaultPort is the PostgreSQL port used when none is configured.
	DefaultPort = 5432

	// DefaultAppName is reported to the server as application_name.
	DefaultAppName = "pgload"

	// MaxErrorPreviewLength caps the length of cell values quoted in error messages.
	MaxErrorPreviewLength = 200
)

// DefaultTimestampColumns are the pickup and dropoff columns of the NYC TLC trip records.
var DefaultTimestampColumns = []string{"tpep_pickup_datetime", "tpep_dropoff_datetime"}
