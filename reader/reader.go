// Package reader loads datasets from disk into frames. Supported formats
// are parquet, avro (OCF), and csv, with transparent gzip for csv.
package reader

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/derekwisong/datui/frame"
)

// Load reads the file at path, picking the format from its extension:
// .parquet, .avro, .csv, and .csv.gz.
func Load(path string) (*frame.DataFrame, error) {
	name := strings.ToLower(path)
	switch {
	case strings.HasSuffix(name, ".parquet"), strings.HasSuffix(name, ".pq"):
		return LoadParquet(path)
	case strings.HasSuffix(name, ".avro"):
		return LoadAvro(path)
	case strings.HasSuffix(name, ".csv"), strings.HasSuffix(name, ".csv.gz"):
		return LoadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

// fromRows assembles a frame from row maps with an explicit column order.
// Missing keys become nulls.
func fromRows(columns []string, rows []map[string]interface{}) (*frame.DataFrame, error) {
	series := make([]frame.Series, len(columns))
	for i, name := range columns {
		values := make([]interface{}, len(rows))
		for j, row := range rows {
			values[j] = normalizeValue(row[name])
		}
		series[i] = frame.NewSeries(name, values)
	}
	return frame.New(series...)
}

// normalizeValue maps decoder-specific cell types onto the frame's value
// set: int64, float64, string, bool, time.Time, nil.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return float64(val)
		}
		return int64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	case string:
		return val
	case bool:
		return val
	case time.Time:
		return val
	case []byte:
		return string(val)
	case map[string]interface{}:
		// Avro unions decode as single-entry maps keyed by branch type.
		if len(val) == 1 {
			for _, inner := range val {
				return normalizeValue(inner)
			}
		}
		return stringify(val)
	default:
		return stringify(val)
	}
}

// stringify renders nested structures as JSON text, the best a flat cell
// can do.
func stringify(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
