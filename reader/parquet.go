package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"github.com/derekwisong/datui/frame"
)

// LoadParquet reads an entire parquet file into a frame. Column order
// follows the file schema.
func LoadParquet(path string) (*frame.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	fields := pqFile.Schema().Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name()
	}

	reader := parquet.NewReader(pqFile)
	defer func() { _ = reader.Close() }()

	var rows []map[string]interface{}
	for {
		row := make(map[string]interface{})
		if err := reader.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		for _, f := range fields {
			row[f.Name()] = convertParquetValue(f, row[f.Name()])
		}
		rows = append(rows, row)
	}

	return fromRows(columns, rows)
}

// convertParquetValue turns logical date and timestamp values, which
// decode as raw integers, into time.Time.
func convertParquetValue(field parquet.Field, v interface{}) interface{} {
	lt := field.Type().LogicalType()
	if lt == nil || v == nil {
		return v
	}
	switch {
	case lt.Date != nil:
		if days, ok := asInt64(v); ok {
			return time.Unix(0, 0).UTC().AddDate(0, 0, int(days))
		}
	case lt.Timestamp != nil:
		if ticks, ok := asInt64(v); ok {
			return timestampFromTicks(ticks, lt.Timestamp.Unit)
		}
	}
	return v
}

func timestampFromTicks(ticks int64, unit format.TimeUnit) time.Time {
	switch {
	case unit.Millis != nil:
		return time.UnixMilli(ticks).UTC()
	case unit.Nanos != nil:
		return time.Unix(0, ticks).UTC()
	default:
		return time.UnixMicro(ticks).UTC()
	}
}

func asInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int32:
		return int64(val), true
	case int64:
		return val, true
	}
	return 0, false
}
