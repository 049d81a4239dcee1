package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// InferSchema derives the table schema from the first batch.
//
// Designated timestamp columns are TIMESTAMP. Every other column is typed from
// its non-empty values:
//   - all true/false and no blanks: BOOLEAN
//   - all integers and no blanks: BIGINT
//   - all numeric, or integers with blanks, or entirely blank: DOUBLE PRECISION
//   - anything else: TEXT
//
// A designated timestamp column missing from the header is a *pgload.SourceError.
func InferSchema(raw pgload.RawBatch, timestampColumns []string) (pgload.Schema, error) {
	index := make(map[string]int, len(raw.Header))
	for i, name := range raw.Header {
		index[name] = i
	}

	isTimestamp := make(map[string]bool, len(timestampColumns))
	for _, col := range timestampColumns {
		if _, ok := index[col]; !ok {
			return nil, &pgload.SourceError{
				Location: fmt.Sprintf("batch %d", raw.Index),
				Err:      fmt.Errorf("timestamp column %q not found in header %v", col, raw.Header),
			}
		}
		isTimestamp[col] = true
	}

	schema := make(pgload.Schema, len(raw.Header))
	for i, name := range raw.Header {
		if isTimestamp[name] {
			schema[i] = pgload.Column{Name: name, Type: pgload.ColumnTimestamp}
			continue
		}
		schema[i] = pgload.Column{Name: name, Type: inferColumn(raw.Records, i)}
	}
	return schema, nil
}

func inferColumn(records [][]string, col int) pgload.ColumnType {
	allBool, allInt, allNum := true, true, true
	blanks, values := 0, 0

	for _, rec := range records {
		v := cell(rec, col)
		if v == "" {
			blanks++
			continue
		}
		values++

		if allBool && !isBool(v) {
			allBool = false
		}
		if allInt && !isInt(v) {
			allInt = false
		}
		if allNum && !isFloat(v) {
			allNum = false
		}
		if !allBool && !allNum {
			return pgload.ColumnText
		}
	}

	switch {
	case values == 0:
		return pgload.ColumnDouble
	case allBool && blanks == 0:
		return pgload.ColumnBoolean
	case allInt && blanks == 0:
		return pgload.ColumnBigInt
	case allNum:
		return pgload.ColumnDouble
	default:
		return pgload.ColumnText
	}
}

// cell returns the value at col, or "" when the record is short.
func cell(rec []string, col int) string {
	if col >= len(rec) {
		return ""
	}
	return rec[col]
}

func isBool(v string) bool {
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "false")
}

func isInt(v string) bool {
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isFloat(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}
