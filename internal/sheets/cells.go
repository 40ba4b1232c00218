package sheets

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// RenderRow converts appended cells to the text a decimal-comma spreadsheet
// displays for them: numbers become "-3,50", strings are kept as entered.
func RenderRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = RenderCell(v)
	}
	return out
}

// RenderCell renders a single cell value.
func RenderCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return core.FormatAmount(decimal.NewFromFloat(x))
	case float32:
		return core.FormatAmount(decimal.NewFromFloat32(x))
	case int:
		return core.FormatAmount(decimal.NewFromInt(int64(x)))
	case int64:
		return core.FormatAmount(decimal.NewFromInt(x))
	case decimal.Decimal:
		return core.FormatAmount(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// ToStrings flattens a row returned by the Sheets API.
func ToStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
