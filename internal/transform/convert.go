package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// ErrValueMismatch indicates a cell does not fit its column's inferred type.
var ErrValueMismatch = errors.New("value does not match column type")

// ValueError reports a non-timestamp cell that cannot be converted to its column type.
// Row is zero-based within the batch.
type ValueError struct {
	Column string
	Type   pgload.ColumnType
	Value  string
	Row    int
	Err    error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("row %d: column %q: %q is not a valid %s: %v",
		e.Row, e.Column, pgload.Truncate(e.Value, pgload.MaxErrorPreviewLength), e.Type.SQL(), e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

// Is matches ErrValueMismatch.
func (e *ValueError) Is(target error) bool { return target == ErrValueMismatch }

// Convert turns raw records into typed rows following schema.
// Empty cells become nil. A bad timestamp is a *pgload.TimestampParseError,
// any other bad cell is a *ValueError.
func Convert(raw pgload.RawBatch, schema pgload.Schema) (pgload.Batch, error) {
	if err := checkHeader(raw.Header, schema); err != nil {
		return pgload.Batch{}, err
	}

	rows := make([][]any, len(raw.Records))
	for r, rec := range raw.Records {
		row := make([]any, len(schema))
		for c, col := range schema {
			v := cell(rec, c)
			if v == "" {
				continue
			}

			val, err := convertCell(v, col.Type)
			if err != nil {
				if col.Type == pgload.ColumnTimestamp {
					return pgload.Batch{}, &pgload.TimestampParseError{
						Column: col.Name,
						Value:  v,
						Batch:  raw.Index,
						Row:    r,
						Err:    err,
					}
				}
				return pgload.Batch{}, &ValueError{Column: col.Name, Type: col.Type, Value: v, Row: r, Err: err}
			}
			row[c] = val
		}
		rows[r] = row
	}

	return pgload.Batch{Index: raw.Index, Schema: schema, Rows: rows}, nil
}

func convertCell(v string, t pgload.ColumnType) (any, error) {
	switch t {
	case pgload.ColumnTimestamp:
		return ParseTimestamp(v)
	case pgload.ColumnBigInt:
		return strconv.ParseInt(v, 10, 64)
	case pgload.ColumnDouble:
		return strconv.ParseFloat(v, 64)
	case pgload.ColumnBoolean:
		switch strings.ToLower(v) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("want true or false")
	default:
		return v, nil
	}
}

func checkHeader(header []string, schema pgload.Schema) error {
	if len(header) != len(schema) {
		return fmt.Errorf("batch has %d columns, schema has %d: %w", len(header), len(schema), ErrValueMismatch)
	}
	for i, col := range schema {
		if header[i] != col.Name {
			return fmt.Errorf("column %d is %q, schema expects %q: %w", i+1, header[i], col.Name, ErrValueMismatch)
		}
	}
	return nil
}
