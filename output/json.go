package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/derekwisong/datui/frame"
)

// JSONLFormatter outputs a frame as JSON Lines, one object per row.
type JSONLFormatter struct {
	writer io.Writer
}

// NewJSONLFormatter creates a new JSON Lines formatter
func NewJSONLFormatter(w io.Writer) *JSONLFormatter {
	return &JSONLFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONLFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes the frame as JSON Lines (one JSON object per line).
// Dates without a time component render as "2006-01-02".
func (j *JSONLFormatter) Format(df *frame.DataFrame) error {
	encoder := json.NewEncoder(j.writer)
	for i := 0; i < df.Height(); i++ {
		row := df.Row(i)
		for col, v := range row {
			if t, ok := v.(time.Time); ok {
				row[col] = renderCell(t, "")
			}
		}
		if err := encoder.Encode(row); err != nil {
			return err
		}
	}
	return nil
}
