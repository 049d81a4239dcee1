package transform

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgload/pkg/pgload"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso space", "2021-01-01 00:15:56", time.Date(2021, 1, 1, 0, 15, 56, 0, time.UTC)},
		{"iso T", "2021-01-01T00:15:56", time.Date(2021, 1, 1, 0, 15, 56, 0, time.UTC)},
		{"utc designator", "2021-01-01T00:15:56Z", time.Date(2021, 1, 1, 0, 15, 56, 0, time.UTC)},
		{"offset converted", "2021-01-01T02:15:56+02:00", time.Date(2021, 1, 1, 0, 15, 56, 0, time.UTC)},
		{"month first", "01/02/2021 10:00:00", time.Date(2021, 1, 2, 10, 0, 0, 0, time.UTC)},
		{"date only", "2021-03-04", time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"surrounding spaces", "  2021-01-01 00:00:00 ", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"fractional seconds", "2021-01-01 00:15:56.250", time.Date(2021, 1, 1, 0, 15, 56, 250_000_000, time.UTC)},
		{"twelve hour clock", "01/02/2021 03:04:05 PM", time.Date(2021, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"month name", "May 8, 2009 5:57:51 PM", time.Date(2009, 5, 8, 17, 57, 51, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{"not-a-date", "", "   ", "1:", "1.2.3", "12:30:00"} {
		_, err := ParseTimestamp(input)
		assert.Error(t, err, "input %q", input)
	}
}

func raw(index int, header []string, records ...[]string) pgload.RawBatch {
	return pgload.RawBatch{Index: index, Header: header, Records: records}
}

func TestInferSchema(t *testing.T) {
	header := []string{"flag", "count", "maybe_count", "fare", "note", "nothing", "pickup"}
	batch := raw(0, header,
		[]string{"true", "1", "3", "12.5", "cash", "", "2021-01-01 00:00:00"},
		[]string{"FALSE", "-2", "", "7", "card", "", "2021-01-01 00:10:00"},
		[]string{"True", "40", "4", "1e3", "42", "", "2021-01-01 00:20:00"},
	)

	schema, err := InferSchema(batch, []string{"pickup"})
	require.NoError(t, err)

	want := pgload.Schema{
		{Name: "flag", Type: pgload.ColumnBoolean},
		{Name: "count", Type: pgload.ColumnBigInt},
		{Name: "maybe_count", Type: pgload.ColumnDouble},
		{Name: "fare", Type: pgload.ColumnDouble},
		{Name: "note", Type: pgload.ColumnText},
		{Name: "nothing", Type: pgload.ColumnDouble},
		{Name: "pickup", Type: pgload.ColumnTimestamp},
	}
	assert.Equal(t, want, schema)
}

func TestInferSchema_BooleanWithBlanksIsText(t *testing.T) {
	schema, err := InferSchema(raw(0, []string{"b"}, []string{"true"}, []string{""}), nil)
	require.NoError(t, err)
	assert.Equal(t, pgload.ColumnText, schema[0].Type)
}

func TestInferSchema_PreservesHeaderOrder(t *testing.T) {
	header := []string{"z", "a", "m"}
	schema, err := InferSchema(raw(0, header, []string{"1", "2", "3"}), nil)
	require.NoError(t, err)
	assert.Equal(t, header, schema.Names())
}

func TestInferSchema_MissingTimestampColumn(t *testing.T) {
	_, err := InferSchema(raw(0, []string{"a", "b"}, []string{"1", "2"}), []string{"tpep_pickup_datetime"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pgload.ErrSource))
	assert.Contains(t, err.Error(), "tpep_pickup_datetime")
}

func TestConvert(t *testing.T) {
	schema := pgload.Schema{
		{Name: "id", Type: pgload.ColumnBigInt},
		{Name: "fare", Type: pgload.ColumnDouble},
		{Name: "paid", Type: pgload.ColumnBoolean},
		{Name: "note", Type: pgload.ColumnText},
		{Name: "pickup", Type: pgload.ColumnTimestamp},
	}
	batch := raw(2, schema.Names(),
		[]string{"1", "2.5", "true", "hello", "2021-01-01 00:15:56"},
		[]string{"2", "", "False", "", ""},
	)

	got, err := Convert(batch, schema)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Index)
	assert.Equal(t, schema, got.Schema)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, []any{int64(1), 2.5, true, "hello", time.Date(2021, 1, 1, 0, 15, 56, 0, time.UTC)}, got.Rows[0])
	assert.Equal(t, []any{int64(2), nil, false, nil, nil}, got.Rows[1])
}

func TestConvert_MalformedTimestamp(t *testing.T) {
	schema := pgload.Schema{
		{Name: "id", Type: pgload.ColumnBigInt},
		{Name: "pickup_datetime", Type: pgload.ColumnTimestamp},
	}
	batch := raw(3, schema.Names(),
		[]string{"1", "2021-01-01 00:00:00"},
		[]string{"2", "not-a-date"},
	)

	_, err := Convert(batch, schema)
	require.Error(t, err)

	var tsErr *pgload.TimestampParseError
	require.True(t, errors.As(err, &tsErr))
	assert.Equal(t, "pickup_datetime", tsErr.Column)
	assert.Equal(t, "not-a-date", tsErr.Value)
	assert.Equal(t, 3, tsErr.Batch)
	assert.Equal(t, 1, tsErr.Row)
	assert.True(t, errors.Is(err, pgload.ErrTimestampParse))
	assert.Contains(t, err.Error(), "pickup_datetime")
	assert.Contains(t, err.Error(), "not-a-date")
}

func TestConvert_ValueMismatch(t *testing.T) {
	schema := pgload.Schema{{Name: "passenger_count", Type: pgload.ColumnBigInt}}
	batch := raw(1, schema.Names(), []string{"4"}, []string{"4.5"})

	_, err := Convert(batch, schema)
	require.Error(t, err)

	var valErr *ValueError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "passenger_count", valErr.Column)
	assert.Equal(t, "4.5", valErr.Value)
	assert.Equal(t, 1, valErr.Row)
	assert.True(t, errors.Is(err, ErrValueMismatch))
	assert.False(t, errors.Is(err, pgload.ErrTimestampParse))
}

func TestConvert_HeaderMismatch(t *testing.T) {
	schema := pgload.Schema{{Name: "a", Type: pgload.ColumnText}}
	_, err := Convert(raw(1, []string{"a", "b"}, []string{"x", "y"}), schema)
	assert.True(t, errors.Is(err, ErrValueMismatch))

	_, err = Convert(raw(1, []string{"b"}, []string{"x"}), schema)
	assert.True(t, errors.Is(err, ErrValueMismatch))
}
