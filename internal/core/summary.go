package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthTotals aggregates the entries of one month.
type MonthTotals struct {
	Month   int // 1-12
	Abbr    string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// Summary holds the period figures shown by the report.
type Summary struct {
	Income  []Entry
	Expense []Entry

	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal // negative or zero
	Net          decimal.Decimal

	Months []MonthTotals // ascending by month

	// Skipped counts entries left out of the totals: unparseable amount or unknown category.
	Skipped int
}

// Summarize splits t by category, preserving order, and totals each side.
// Net is always TotalIncome + TotalExpense; an empty table yields zeros.
func Summarize(t Table) Summary {
	s := Summary{
		Income:       []Entry{},
		Expense:      []Entry{},
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	byMonth := map[int]*MonthTotals{}

	for _, e := range t.Entries {
		if !e.Category.Valid() {
			s.Skipped++
			continue
		}
		switch e.Category.Value {
		case Income:
			s.Income = append(s.Income, e)
		case Expense:
			s.Expense = append(s.Expense, e)
		}
		if !e.Amount.Valid() {
			s.Skipped++
			continue
		}

		mt, ok := byMonth[e.Month]
		if !ok {
			mt = &MonthTotals{Month: e.Month, Abbr: e.MonthAbbr, Income: decimal.Zero, Expense: decimal.Zero}
			byMonth[e.Month] = mt
		}
		if e.Category.Value == Income {
			s.TotalIncome = s.TotalIncome.Add(e.Amount.Value)
			mt.Income = mt.Income.Add(e.Amount.Value)
		} else {
			s.TotalExpense = s.TotalExpense.Add(e.Amount.Value)
			mt.Expense = mt.Expense.Add(e.Amount.Value)
		}
	}

	s.Net = s.TotalIncome.Add(s.TotalExpense)

	s.Months = make([]MonthTotals, 0, len(byMonth))
	for _, mt := range byMonth {
		mt.Net = mt.Income.Add(mt.Expense)
		s.Months = append(s.Months, *mt)
	}
	sort.Slice(s.Months, func(i, j int) bool { return s.Months[i].Month < s.Months[j].Month })

	return s
}

// Positive reports whether the period closed with a non-negative net result.
func (s Summary) Positive() bool {
	return !s.Net.IsNegative()
}
