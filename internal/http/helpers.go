package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
)

var templateFuncs = template.FuncMap{
	"euro": core.FormatEuro,
	"amount": func(c core.Cell[decimal.Decimal]) string {
		if !c.Valid() {
			return c.Raw
		}
		return core.FormatEuro(c.Value)
	},
	"shortDate": func(c core.Cell[core.Date]) string {
		return c.Value.DisplayString()
	},
}

// sanitizeInput drops control characters (except tab and newlines) and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// statusFor maps an error kind to the HTTP status reported to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrPartitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStoreWrite):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

// writeJSONError writes {"error": msg} using the status derived from err.
func writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := map[string]any{"error": err.Error()}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	writeJSON(w, r, status, body)
}
