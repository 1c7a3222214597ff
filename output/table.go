package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/derekwisong/datui/frame"
)

// TableFormatter renders a frame as an aligned text table for terminals.
type TableFormatter struct {
	writer io.Writer

	// NullText replaces null cells. Defaults to empty.
	NullText string
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format renders the frame as a bordered table with a header row.
func (t *TableFormatter) Format(df *frame.DataFrame) error {
	table := tablewriter.NewWriter(t.writer)
	table.SetHeader(df.Schema().Names())
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	columns := df.Schema().Names()
	record := make([]string, len(columns))
	for i := 0; i < df.Height(); i++ {
		row := df.Row(i)
		for j, col := range columns {
			record[j] = renderCell(row[col], t.NullText)
		}
		table.Append(append([]string(nil), record...))
	}
	table.Render()
	return nil
}
