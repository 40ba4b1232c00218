package services

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
	"ledger/internal/sheets/memory"

	"github.com/shopspring/decimal"
)

func TestLedgerWriter_CoffeeScenario(t *testing.T) {
	store := &fakeStore{}
	rec, err := NewLedgerWriter(store).Write(context.Background(), core.Record{
		Date:        core.NewDate(2026, 2, 12),
		Description: "Coffee",
		Amount:      decimal.RequireFromString("3.50"),
		Category:    core.Expense,
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !rec.Amount.Equal(decimal.RequireFromString("-3.5")) {
		t.Fatalf("expected normalized amount -3.5, got %s", rec.Amount)
	}
	if len(store.appendCalls) != 1 {
		t.Fatalf("expected 1 append, got %d", len(store.appendCalls))
	}
	call := store.appendCalls[0]
	if call.partition != "Feb" {
		t.Fatalf("expected partition Feb, got %s", call.partition)
	}
	want := []any{"12/02/2026", "Coffee", -3.5, "Despesa"}
	for i := range want {
		if call.row[i] != want[i] {
			t.Fatalf("cell %d: got %#v, want %#v", i, call.row[i], want[i])
		}
	}
}

func TestLedgerWriter_SignFollowsCategory(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		category core.Category
		want     string
	}{
		{"expense positive", "12.345", core.Expense, "-12.35"},
		{"expense already negative", "-7", core.Expense, "-7"},
		{"income positive", "100", core.Income, "100"},
		{"income negative", "-100", core.Income, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewLedgerWriter(&fakeStore{}).Write(context.Background(), core.Record{
				Date:        core.NewDate(2026, 3, 1),
				Description: "x",
				Amount:      decimal.RequireFromString(tt.amount),
				Category:    tt.category,
			})
			if err != nil {
				t.Fatalf("write: %v", err)
			}
			if !rec.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("got %s, want %s", rec.Amount, tt.want)
			}
		})
	}
}

func TestLedgerWriter_ValidationMakesNoStoreCall(t *testing.T) {
	tests := []struct {
		name   string
		rec    core.Record
		fields []string
	}{
		{
			name: "empty description",
			rec: core.Record{Date: core.NewDate(2026, 1, 1), Description: "  ",
				Amount: decimal.NewFromInt(5), Category: core.Income},
			fields: []string{core.FieldDescription},
		},
		{
			name:   "everything missing",
			rec:    core.Record{},
			fields: []string{core.FieldDate, core.FieldDescription, core.FieldAmount, core.FieldCategory},
		},
		{
			name: "amount rounds to zero",
			rec: core.Record{Date: core.NewDate(2026, 1, 1), Description: "tiny",
				Amount: decimal.RequireFromString("0.001"), Category: core.Expense},
			fields: []string{core.FieldAmount},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			_, err := NewLedgerWriter(store).Write(context.Background(), tt.rec)
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected ErrValidation kind")
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Fatalf("got fields %v, want %v", verr.Fields, tt.fields)
			}
			for _, f := range tt.fields {
				if !verr.Has(f) {
					t.Fatalf("missing field %s in %v", f, verr.Fields)
				}
			}
			if len(store.appendCalls) != 0 {
				t.Fatalf("expected no store calls, got %d", len(store.appendCalls))
			}
		})
	}
}

func TestLedgerWriter_StoreFailure(t *testing.T) {
	store := &fakeStore{appendErr: errors.New("quota exceeded")}
	_, err := NewLedgerWriter(store).Write(context.Background(), core.Record{
		Date: core.NewDate(2026, 5, 2), Description: "Book",
		Amount: decimal.NewFromInt(20), Category: core.Expense,
	})
	if !errors.Is(err, core.ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}
}

func TestLedgerWriter_RoundTripThroughMemoryStore(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	w := NewLedgerWriter(store)
	for _, rec := range []core.Record{
		{Date: core.NewDate(2026, 7, 9), Description: "Bonus", Amount: decimal.RequireFromString("1234.5"), Category: core.Income},
		{Date: core.NewDate(2026, 7, 2), Description: "Groceries", Amount: decimal.RequireFromString("56.78"), Category: core.Expense},
	} {
		if _, err := w.Write(ctx, rec); err != nil {
			t.Fatalf("write %s: %v", rec.Description, err)
		}
	}

	table, err := NewLedgerReader(store).Read(ctx, []string{"Jul"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if table.Len() != 2 || table.Entries[0].Description != "Groceries" {
		t.Fatalf("unexpected table %+v", table.Entries)
	}
	if table.Entries[1].Amount.Raw != "1.234,50" {
		t.Fatalf("unexpected stored amount %q", table.Entries[1].Amount.Raw)
	}
	s := core.Summarize(table)
	if core.FormatEuro(s.Net) != "€ 1.177,72" {
		t.Fatalf("unexpected net %s", core.FormatEuro(s.Net))
	}
}
