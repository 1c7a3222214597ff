// Package output renders frames to terminal and file friendly formats.
//
// Supported formats:
//   - table: aligned text table for terminals
//   - csv: comma-separated values with header row
//   - jsonl: one JSON object per line
package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/derekwisong/datui/frame"
)

// Formatter writes a frame in one output format.
type Formatter interface {
	// Format writes the frame to the configured writer
	Format(df *frame.DataFrame) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// New returns the formatter for a format name: "table", "csv", "jsonl"
// (alias "json").
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "table":
		return NewTableFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "jsonl", "json":
		return NewJSONLFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// renderCell converts a cell to display text. Nulls render as the given
// placeholder.
func renderCell(v interface{}, null string) string {
	switch val := v.(type) {
	case nil:
		return null
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", val)
	}
}
