package reader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/linkedin/goavro/v2"

	"github.com/derekwisong/datui/frame"
)

// LoadAvro reads an Avro object container file into a frame. Column
// order follows the writer schema's field order.
func LoadAvro(path string) (*frame.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	ocfr, err := goavro.NewOCFReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open avro file: %w", err)
	}

	columns, err := avroFieldNames(ocfr.Codec().Schema())
	if err != nil {
		return nil, err
	}

	var rows []map[string]interface{}
	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		record, ok := datum.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("avro file does not contain records, got %T", datum)
		}
		rows = append(rows, record)
	}
	if err := ocfr.Err(); err != nil {
		return nil, fmt.Errorf("failed to read avro file: %w", err)
	}

	return fromRows(columns, rows)
}

// avroFieldNames extracts the ordered field names from a record schema.
// The decoded datum is a map, so the schema is the only source of order.
func avroFieldNames(schema string) ([]string, error) {
	var parsed struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(schema), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse avro schema: %w", err)
	}
	if len(parsed.Fields) == 0 {
		return nil, fmt.Errorf("avro schema has no record fields")
	}
	names := make([]string, len(parsed.Fields))
	for i, f := range parsed.Fields {
		names[i] = f.Name
	}
	return names, nil
}
