package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type CellKind uint8

const (
	CellMissing CellKind = iota
	CellText
	CellNumber
)

func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	default:
		return "missing"
	}
}

// Cell is a single scalar value of a record. The zero value is a missing cell.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

func TextCell(s string) Cell    { return Cell{Kind: CellText, Text: s} }
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Number: f} }
func MissingCell() Cell         { return Cell{} }
func (c Cell) IsText() bool     { return c.Kind == CellText }
func (c Cell) IsMissing() bool  { return c.Kind == CellMissing }
func (c Cell) AsText() (string, bool) {
	if c.Kind != CellText {
		return "", false
	}
	return c.Text, true
}

// String renders the cell the way it is written back out to a table.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Number)
	default:
		return []byte("null"), nil
	}
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = MissingCell()
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		*c = TextCell(s)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("%w: unsupported cell value %s", ErrMalformedInput, string(data))
		}
		*c = NumberCell(f)
	}
	return nil
}

type ColumnType string

const (
	ColumnText    ColumnType = "text"
	ColumnNumeric ColumnType = "numeric"
	ColumnDate    ColumnType = "date"
	ColumnEmpty   ColumnType = "empty"
)

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type,omitempty"`
}

// Record maps a column name to the raw cell read for it.
type Record map[string]Cell

// Get returns the cell for column, or a missing cell when the record has none.
func (r Record) Get(column string) Cell {
	if r == nil {
		return MissingCell()
	}
	return r[column]
}

// Clone returns a shallow copy; cells are values so the copy is independent.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type Dataset struct {
	Columns []Column `json:"columns"`
	Records []Record `json:"records"`
}

func (d Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}
