package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/derekwisong/datui/frame"
)

// CSVFormatter outputs a frame as CSV with a header row.
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes the frame as CSV. Column order follows the frame.
func (c *CSVFormatter) Format(df *frame.DataFrame) error {
	csvWriter := csv.NewWriter(c.writer)

	columns := df.Schema().Names()
	if err := csvWriter.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for i := 0; i < df.Height(); i++ {
		row := df.Row(i)
		for j, col := range columns {
			record[j] = sanitizeCSV(renderCell(row[col], ""))
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// sanitizeCSV guards against CSV injection by prefixing characters that
// could trigger formula execution in spreadsheet applications.
func sanitizeCSV(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '@', '\t', '\r', '\n', '|':
		return "'" + strings.ReplaceAll(s, "'", "''")
	case '-':
		// Leading minus is normal for negative numbers; only quote when
		// the rest is not numeric.
		if !looksNumeric(s[1:]) {
			return "'" + strings.ReplaceAll(s, "'", "''")
		}
	}
	return s
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != 'e' && r != 'E' && r != '+' && r != '-' {
			return false
		}
	}
	return true
}
