package annotations

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"structmeta/internal/compound"
)

// errMissingColumn marks a table that exists but lacks a required column.
var errMissingColumn = errors.New("required column missing")

type tableStats struct {
	rows    int
	invalid int
}

// readTable parses one tab-separated table according to s. It returns
// fs.ErrNotExist (wrapped) when the file is absent and errMissingColumn
// when the header does not carry the schema's columns.
func readTable(path string, s schema) ([]row, tableStats, error) {
	var stats tableStats
	file, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("open table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("%w: empty table", errMissingColumn)
		}
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, exists := index[name]; !exists {
			index[name] = i
		}
	}

	idColumn := -1
	for _, name := range s.identifierColumns {
		if i, ok := index[name]; ok {
			idColumn = i
			break
		}
	}
	if idColumn < 0 {
		return nil, stats, fmt.Errorf("%w: %s", errMissingColumn, strings.Join(s.identifierColumns, " or "))
	}
	structureColumn, ok := index[s.structureColumn]
	if !ok {
		return nil, stats, fmt.Errorf("%w: %s", errMissingColumn, s.structureColumn)
	}
	taxonomyColumns := make([]int, 0, len(s.taxonomyColumns))
	for _, name := range s.taxonomyColumns {
		i, ok := index[name]
		if !ok {
			return nil, stats, fmt.Errorf("%w: %s", errMissingColumn, name)
		}
		taxonomyColumns = append(taxonomyColumns, i)
	}

	var rows []row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read %s: %w", path, err)
		}
		stats.rows++

		id, err := compound.ParseIdentifier(field(record, idColumn))
		if err != nil {
			stats.invalid++
			continue
		}
		r := row{identifier: id, structure: cellValue(field(record, structureColumn))}
		if len(taxonomyColumns) == 3 {
			levels := [3]string{
				cellValue(field(record, taxonomyColumns[0])),
				cellValue(field(record, taxonomyColumns[1])),
				cellValue(field(record, taxonomyColumns[2])),
			}
			if levels[0] != "" || levels[1] != "" || levels[2] != "" {
				r.taxonomy = compound.Taxonomy{Pathway: levels[0], Superclass: levels[1], Class: levels[2]}.Complete()
				r.hasTaxonomy = true
			}
		}
		rows = append(rows, r)
	}
	return rows, stats, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
