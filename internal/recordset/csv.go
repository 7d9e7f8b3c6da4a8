package recordset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"stitch/internal/config"
)

// LoadCSV reads a dataset from a CSV file using its configured field map.
// The header row resolves concrete column names; each logical field maps to
// the configured column. Columns named in the field map but absent from the
// file simply leave that logical field off the set, which later surfaces as
// pass skip semantics rather than a load failure.
func LoadCSV(ds config.Dataset) (*Set, error) {
	file, err := os.Open(ds.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", ds.Name, err)
	}
	defer file.Close()
	return readCSV(file, ds)
}

func readCSV(r io.Reader, ds config.Dataset) (*Set, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset %s: empty file", ds.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset %s: read header: %w", ds.Name, err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[col] = i
	}

	idIdx, ok := colIndex[ds.IDColumn]
	if !ok {
		return nil, fmt.Errorf("dataset %s: id column %q not found", ds.Name, ds.IDColumn)
	}

	// Only logical fields whose configured column exists make it onto the set.
	type binding struct {
		logical string
		idx     int
	}
	var bindings []binding
	var fields []string
	for logical, column := range ds.Fields {
		idx, ok := colIndex[column]
		if !ok {
			continue
		}
		bindings = append(bindings, binding{logical: logical, idx: idx})
		fields = append(fields, logical)
	}

	set := New(ds.Name, fields)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset %s: read row: %w", ds.Name, err)
		}
		values := make(map[string]string, len(bindings))
		for _, b := range bindings {
			if b.idx < len(row) {
				values[b.logical] = row[b.idx]
			}
		}
		id := ""
		if idIdx < len(row) {
			id = row[idIdx]
		}
		set.Append(id, values)
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}
