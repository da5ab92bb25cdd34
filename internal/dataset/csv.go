package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spacesedan/votesense/internal/models"
)

const utf8BOM = "\ufeff"

var allowedExtensions = map[string]struct{}{".csv": {}}

// AllowedFile reports whether name carries an accepted table extension.
func AllowedFile(name string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func ReadCSVFile(path string) (models.Dataset, error) {
	if !AllowedFile(path) {
		return models.Dataset{}, fmt.Errorf("%w: %s is not a .csv file", models.ErrMalformedInput, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("[Dataset] open csv: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses a header row plus records. Short rows are padded with missing cells; rows longer than
// the header make the input malformed.
func ReadCSV(r io.Reader) (models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return models.Dataset{}, fmt.Errorf("%w: no columns to parse", models.ErrMalformedInput)
		}
		return models.Dataset{}, fmt.Errorf("%w: read header: %v", models.ErrMalformedInput, err)
	}
	names := headerNames(header)

	var rows [][]string
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.Dataset{}, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
		}
		if len(row) > len(names) {
			return models.Dataset{}, fmt.Errorf("%w: line %d has %d fields, expected %d",
				models.ErrMalformedInput, line, len(row), len(names))
		}
		rows = append(rows, append([]string(nil), row...))
	}

	columns := make([]models.Column, len(names))
	for i, name := range names {
		cells := make([]models.Cell, len(rows))
		for j, row := range rows {
			cells[j] = rawCell(row, i)
		}
		columns[i] = models.Column{Name: name, Type: InferColumnType(cells)}
	}

	records := make([]models.Record, len(rows))
	for j, row := range rows {
		record := make(models.Record, len(names))
		for i, col := range columns {
			cell := rawCell(row, i)
			if col.Type == models.ColumnNumeric && cell.IsText() {
				f, _ := parseNumber(cell.Text)
				cell = models.NumberCell(f)
			}
			record[col.Name] = cell
		}
		records[j] = record
	}

	slog.Debug("[Dataset] Parsed CSV",
		slog.Int("columns", len(columns)),
		slog.Int("records", len(records)))

	return models.Dataset{Columns: columns, Records: records}, nil
}

func rawCell(row []string, i int) models.Cell {
	if i >= len(row) || IsNA(row[i]) {
		return models.MissingCell()
	}
	return models.TextCell(row[i])
}

// headerNames fills blank names and de-duplicates repeated ones as name.1, name.2, ...
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}

		name := h
		for n := 1; used[name]; n++ {
			name = h + "." + strconv.Itoa(n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// WriteCSV writes the enriched table, header first.
func WriteCSV(w io.Writer, enriched *models.EnrichedDataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(enriched.Header()); err != nil {
		return fmt.Errorf("[Dataset] write header: %w", err)
	}
	if err := writer.WriteAll(enriched.Rows()); err != nil {
		return fmt.Errorf("[Dataset] write rows: %w", err)
	}
	return nil
}
