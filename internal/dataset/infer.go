package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/votesense/internal/models"
)

// naValues are the tokens read as missing values, matching common spreadsheet and pandas exports.
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {}, "-NaN": {}, "-nan": {},
	"1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {},
	"n/a": {}, "nan": {}, "null": {},
}

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func IsNA(raw string) bool {
	_, ok := naValues[strings.TrimSpace(raw)]
	return ok
}

func parseNumber(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return f, err == nil
}

func parseDate(raw string) bool {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}

type kindCounter struct {
	present int
	numeric int
	dates   int
}

func (k *kindCounter) add(c models.Cell) {
	switch c.Kind {
	case models.CellNumber:
		k.present++
		k.numeric++
	case models.CellText:
		k.present++
		if _, ok := parseNumber(c.Text); ok {
			k.numeric++
		} else if parseDate(c.Text) {
			k.dates++
		}
	}
}

// InferColumnType classifies a column from its cells. A column is numeric or date only when every
// present value is; any free text makes it text. A column of a header-only table is text, the way an
// untyped column reads.
func InferColumnType(cells []models.Cell) models.ColumnType {
	if len(cells) == 0 {
		return models.ColumnText
	}

	var counter kindCounter
	for _, c := range cells {
		counter.add(c)
	}

	switch {
	case counter.present == 0:
		return models.ColumnEmpty
	case counter.numeric == counter.present:
		return models.ColumnNumeric
	case counter.dates == counter.present:
		return models.ColumnDate
	default:
		return models.ColumnText
	}
}

// InferTypes returns a copy of ds where every column without a declared type has one inferred.
func InferTypes(ds models.Dataset) models.Dataset {
	columns := make([]models.Column, len(ds.Columns))
	copy(columns, ds.Columns)

	for i, col := range columns {
		if col.Type != "" {
			continue
		}
		cells := make([]models.Cell, len(ds.Records))
		for j, r := range ds.Records {
			cells[j] = r.Get(col.Name)
		}
		columns[i].Type = InferColumnType(cells)
	}

	return models.Dataset{Columns: columns, Records: ds.Records}
}
