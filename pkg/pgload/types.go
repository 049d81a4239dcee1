package pgload

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LoadConfig contains all parameters needed for a load operation.
type LoadConfig struct {
	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET format)
	// of the destination database.
	ConnectionString string

	// TableName is the destination table. Used verbatim as a single quoted identifier.
	TableName string

	// SourcePath is a local, complete, readable CSV file (optionally compressed).
	SourcePath string

	// ChunkSize is the maximum number of rows per batch.
	ChunkSize int

	// TimestampColumns are parsed from text to timestamps in every batch.
	TimestampColumns []string

	// CommitPolicy selects the transactional granularity.
	CommitPolicy CommitPolicy

	// Timeout bounds the whole run. Zero disables it.
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Cloud authentication parameters, used according to AuthMethod.
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if strings.TrimSpace(c.TableName) == "" {
		errs = append(errs, fmt.Errorf("TableName is required: %w", ErrInvalidConfig))
	}

	if c.SourcePath == "" {
		errs = append(errs, fmt.Errorf("SourcePath is required: %w", ErrInvalidConfig))
	}

	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("ChunkSize must be positive, got %d: %w", c.ChunkSize, ErrInvalidConfig))
	}

	seen := make(map[string]bool, len(c.TimestampColumns))
	for _, col := range c.TimestampColumns {
		if col == "" {
			errs = append(errs, fmt.Errorf("timestamp column name cannot be empty: %w", ErrInvalidConfig))
			continue
		}
		if seen[col] {
			errs = append(errs, fmt.Errorf("timestamp column %q listed twice: %w", col, ErrInvalidConfig))
		}
		seen[col] = true
	}

	if !c.CommitPolicy.IsValid() {
		errs = append(errs, fmt.Errorf("unknown commit policy %v: %w", c.CommitPolicy, ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("auth method %v: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	}

	return errors.Join(errs...)
}

// CommitPolicy selects how batch writes are grouped into transactions.
type CommitPolicy int

const (
	// CommitWholeRun wraps table replacement and every append in one transaction.
	// Any failure leaves the destination exactly as it was before the run.
	CommitWholeRun CommitPolicy = iota

	// CommitPerBatch commits table replacement together with the first batch,
	// then each later batch on its own. A failure leaves earlier batches in place.
	CommitPerBatch
)

// String returns the flag spelling of the policy.
func (p CommitPolicy) String() string {
	switch p {
	case CommitWholeRun:
		return "whole-run"
	case CommitPerBatch:
		return "per-batch"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// IsValid returns true if the CommitPolicy is a defined value.
func (p CommitPolicy) IsValid() bool {
	return p == CommitWholeRun || p == CommitPerBatch
}

// ParseCommitPolicy converts a flag or config spelling into a CommitPolicy.
func ParseCommitPolicy(s string) (CommitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "whole-run", "whole_run", "wholerun":
		return CommitWholeRun, nil
	case "per-batch", "per_batch", "perbatch":
		return CommitPerBatch, nil
	default:
		return CommitWholeRun, fmt.Errorf("unknown commit policy %q (want whole-run or per-batch): %w", s, ErrInvalidConfig)
	}
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	AWSRegion      string
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod converts a flag or config spelling into an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam", "aws_iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "gcp", "cloudsql":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra-id", "entra":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
	}
}

// ColumnType is the PostgreSQL type a column is created with.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnBigInt
	ColumnDouble
	ColumnBoolean
	ColumnTimestamp
)

// SQL returns the type as written in CREATE TABLE.
func (t ColumnType) SQL() string {
	switch t {
	case ColumnBigInt:
		return "BIGINT"
	case ColumnDouble:
		return "DOUBLE PRECISION"
	case ColumnBoolean:
		return "BOOLEAN"
	case ColumnTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (t ColumnType) String() string { return t.SQL() }

// Column is one column of the target table.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered column list of the target table, fixed by the first batch.
type Schema []Column

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// RawBatch is a chunk of CSV records as read from the source, before conversion.
type RawBatch struct {
	// Index is the zero-based position of the batch in the source.
	Index   int
	Header  []string
	Records [][]string
}

// Len returns the number of rows in the batch.
func (b RawBatch) Len() int { return len(b.Records) }

// Batch is a chunk of rows converted to the schema's Go types.
// Cells are string, int64, float64, bool, time.Time or nil.
type Batch struct {
	Index  int
	Schema Schema
	Rows   [][]any
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int { return len(b.Rows) }

// BatchReport records one successful batch write.
type BatchReport struct {
	Index   int
	Rows    int64
	Elapsed time.Duration
}

// LoadResult summarizes a completed load.
type LoadResult struct {
	RunID     uuid.UUID
	Table     string
	Schema    Schema
	Policy    CommitPolicy
	Batches   []BatchReport
	TotalRows int64
	Elapsed   time.Duration
}
