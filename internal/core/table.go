package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Number of columns of a ledger row: date, description, amount, category.
const RowWidth = 4

// Cell is a value parsed from a spreadsheet cell, kept together with its raw
// text. Err is set when the raw text could not be parsed; Value is then the zero value.
type Cell[T any] struct {
	Raw   string
	Value T
	Err   error
}

// Valid reports whether the cell parsed.
func (c Cell[T]) Valid() bool { return c.Err == nil }

// Entry is one row of a NormalizedTable.
type Entry struct {
	Partition   string // tab the row was read from
	Line        int    // 1-based row number inside the tab, header is line 1
	Date        Cell[Date]
	Description string
	Amount      Cell[decimal.Decimal]
	Category    Cell[Category]

	// Derived from Date.
	Month     int
	MonthAbbr string
}

// Table is the normalized, date-sorted view of one or more partitions.
// Rows whose date cell does not parse are left out of Entries and kept in
// Rejected, in read order, for inspection.
type Table struct {
	Partitions []string
	Entries    []Entry
	Rejected   []Entry
}

// Len returns the number of entries.
func (t Table) Len() int { return len(t.Entries) }

// IsEmpty reports whether the table holds no entries.
func (t Table) IsEmpty() bool { return len(t.Entries) == 0 }

// ParseRow converts one raw row into an Entry. Rows shorter than RowWidth are
// padded with empty cells (the Sheets API trims trailing blanks).
func ParseRow(partition string, line int, row []string) Entry {
	cells := make([]string, RowWidth)
	copy(cells, row)

	e := Entry{
		Partition:   partition,
		Line:        line,
		Description: strings.TrimSpace(cells[1]),
	}

	e.Date.Raw = cells[0]
	e.Date.Value, e.Date.Err = ParseCellDate(cells[0])
	if e.Date.Valid() {
		e.Month = e.Date.Value.MonthNumber()
		e.MonthAbbr = MonthAbbr(e.Month)
	}

	e.Amount.Raw = cells[2]
	e.Amount.Value, e.Amount.Err = ParseAmount(cells[2])

	e.Category.Raw = cells[3]
	e.Category.Value, e.Category.Err = ParseCategory(cells[3])

	return e
}
