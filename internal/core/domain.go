package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// CellDateLayout is the date format written to the spreadsheet (DD/MM/YYYY).
	CellDateLayout = "02/01/2006"
	// cellDateParseLayout also accepts unpadded days and months (5/1/2026).
	cellDateParseLayout = "2/1/2006"
	// DisplayDateLayout is the date format shown in reports (DD/MM/YY).
	DisplayDateLayout = "02/01/06"

	// MaxDescriptionLen bounds the description accepted by the write path.
	MaxDescriptionLen = 200
)

// Category classifies a record. The zero value means "not chosen yet".
type Category int

const (
	CategoryUnset Category = iota
	Income
	Expense
)

// Labels written to and read from the category column.
const (
	IncomeLabel  = "Receita"
	ExpenseLabel = "Despesa"
)

type (
	// Date is a calendar day; the time of day is always midnight UTC.
	Date struct {
		time.Time
	}

	// Record is one financial transaction. Amount carries the sign of Category
	// once normalized: income >= 0, expense <= 0.
	Record struct {
		Date        Date
		Description string
		Amount      decimal.Decimal
		Category    Category
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseCellDate parses a D/M/YYYY cell; day and month may be zero-padded.
func ParseCellDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, &ParseError{Value: s, Reason: "empty date"}
	}
	t, err := time.Parse(cellDateParseLayout, s)
	if err != nil {
		return Date{}, &ParseError{Value: s, Reason: "not a DD/MM/YYYY date"}
	}
	return Date{Time: t}, nil
}

// CellString renders the date as stored in the spreadsheet.
func (d Date) CellString() string {
	return d.Format(CellDateLayout)
}

// DisplayString renders the date as shown in reports.
func (d Date) DisplayString() string {
	return d.Format(DisplayDateLayout)
}

// Partition returns the month tab this date belongs to.
func (d Date) Partition() string {
	return PartitionFor(d.Time)
}

// MonthNumber returns the month (1-12).
func (d Date) MonthNumber() int {
	return int(d.Time.Month())
}

// Label returns the spreadsheet label of the category.
func (c Category) Label() string {
	switch c {
	case Income:
		return IncomeLabel
	case Expense:
		return ExpenseLabel
	default:
		return ""
	}
}

func (c Category) String() string {
	switch c {
	case Income:
		return "income"
	case Expense:
		return "expense"
	default:
		return "unset"
	}
}

// ParseCategory accepts the spreadsheet labels and their English names, case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "receita", "income":
		return Income, nil
	case "despesa", "expense":
		return Expense, nil
	default:
		return CategoryUnset, &ParseError{Value: s, Reason: "unknown category"}
	}
}

// Validate checks that the record can be persisted. Every offending field is
// reported in a single *ValidationError.
func (r Record) Validate() error {
	var fields []string
	if r.Date.IsZero() {
		fields = append(fields, FieldDate)
	}
	desc := strings.TrimSpace(r.Description)
	if desc == "" || utf8.RuneCountInString(desc) > MaxDescriptionLen {
		fields = append(fields, FieldDescription)
	}
	if r.Amount.Round(2).IsZero() {
		fields = append(fields, FieldAmount)
	}
	if r.Category != Income && r.Category != Expense {
		fields = append(fields, FieldCategory)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Normalize applies the category sign to the amount: expenses become the
// negative of their magnitude, income its magnitude. Applying it twice is a no-op.
func (r Record) Normalize() Record {
	r.Description = strings.TrimSpace(r.Description)
	r.Amount = r.Amount.Round(2)
	switch r.Category {
	case Expense:
		r.Amount = r.Amount.Abs().Neg()
	case Income:
		r.Amount = r.Amount.Abs()
	}
	return r
}

// Partition returns the month tab this record is appended to.
func (r Record) Partition() string {
	return r.Date.Partition()
}

// Cells builds the four-column row [DD/MM/YYYY, description, amount, label].
// The amount is numeric so the spreadsheet stores a number, not text.
func (r Record) Cells() []any {
	return []any{r.Date.CellString(), r.Description, r.Amount.InexactFloat64(), r.Category.Label()}
}

func (r Record) String() string {
	return fmt.Sprintf("%s %q %s %s", r.Date.CellString(), r.Description, FormatEuro(r.Amount), r.Category.Label())
}
