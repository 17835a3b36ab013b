package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/akarpov87/termvault/internal/common"
)

// marshalRows renders rows as CSV with the schema as header. Missing
// fields render as empty strings; extra fields not in the schema are
// dropped, matching the caller-supplied-schema contract.
func marshalRows(rows []Row, schema []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(schema); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(schema))
	for _, row := range rows {
		for i, field := range schema {
			record[i] = row[field]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// unmarshalRows parses CSV data whose header must match schema exactly.
// A header-only file yields an empty collection.
func unmarshalRows(data []byte, schema []string) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptFile, err)
	}
	if len(records) == 0 {
		return []Row{}, nil
	}

	header := records[0]
	if len(header) != len(schema) {
		return nil, fmt.Errorf("%w: header %v does not match schema %v", common.ErrCorruptFile, header, schema)
	}
	for i := range schema {
		if header[i] != schema[i] {
			return nil, fmt.Errorf("%w: header %v does not match schema %v", common.ErrCorruptFile, header, schema)
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(schema))
		for i, field := range schema {
			row[field] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func marshalConfig(cfg Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

func unmarshalConfig(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptFile, err)
	}
	return cfg, nil
}

// SortRowsBySerial returns a new slice sorted by the numeric value of the
// given field. Rows whose field is missing or non-numeric sort as zero.
// With desc=true the newest (highest serial) row comes first; this is the
// view the apps present, the files themselves keep insertion order.
func SortRowsBySerial(rows []Row, field string, desc bool) []Row {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)

	serial := func(r Row) int {
		n, err := strconv.Atoi(r[field])
		if err != nil {
			return 0
		}
		return n
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return serial(sorted[i]) > serial(sorted[j])
		}
		return serial(sorted[i]) < serial(sorted[j])
	})
	return sorted
}
