package reader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/derekwisong/datui/frame"
)

// csvTimeLayouts are tried in order when inferring temporal columns.
var csvTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
}

// LoadCSV reads a csv file, decompressing .gz transparently. The first
// record is the header; column types are inferred from the data.
func LoadCSV(path string) (*frame.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var src io.Reader = file
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer func() { _ = gz.Close() }()
		src = gz
	}

	r := csv.NewReader(src)
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	records := make([][]string, 0)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		records = append(records, rec)
	}

	series := make([]frame.Series, len(header))
	for col, name := range header {
		raw := make([]string, len(records))
		for i, rec := range records {
			if col < len(rec) {
				raw[i] = rec[col]
			}
		}
		series[col] = frame.NewSeries(name, inferColumn(raw))
	}
	return frame.New(series...)
}

// inferColumn parses a column of text cells into the narrowest type that
// fits every non-empty cell, falling back to string. Empty cells are
// nulls and do not constrain the type.
func inferColumn(raw []string) []interface{} {
	canInt, canFloat, canBool := true, true, true
	layout := ""
	canTime := true
	nonEmpty := 0

	for _, cell := range raw {
		if cell == "" {
			continue
		}
		nonEmpty++
		if canInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				canInt = false
			}
		}
		if canFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				canFloat = false
			}
		}
		if canBool {
			if _, err := strconv.ParseBool(cell); err != nil {
				canBool = false
			}
		}
		if canTime {
			if layout == "" {
				layout = detectLayout(cell)
				if layout == "" {
					canTime = false
				}
			} else if _, err := time.Parse(layout, cell); err != nil {
				canTime = false
			}
		}
	}

	values := make([]interface{}, len(raw))
	for i, cell := range raw {
		if cell == "" {
			continue
		}
		switch {
		case nonEmpty > 0 && canInt:
			n, _ := strconv.ParseInt(cell, 10, 64)
			values[i] = n
		case nonEmpty > 0 && canFloat:
			f, _ := strconv.ParseFloat(cell, 64)
			values[i] = f
		case nonEmpty > 0 && canBool:
			b, _ := strconv.ParseBool(cell)
			values[i] = b
		case nonEmpty > 0 && canTime:
			t, _ := time.Parse(layout, cell)
			values[i] = t
		default:
			values[i] = cell
		}
	}
	return values
}

func detectLayout(cell string) string {
	for _, layout := range csvTimeLayouts {
		if _, err := time.Parse(layout, cell); err == nil {
			return layout
		}
	}
	return ""
}
