// Package http serves the ledger web UI: the record form, the period report,
// its JSON variant and the health endpoints.
//
// This file turns request bodies and query strings into domain values.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// FormDateLayout is the layout of <input type="date"> values.
const FormDateLayout = "2006-01-02"

// maxBodyBytes bounds request bodies accepted by the write path.
const maxBodyBytes = 64 << 10

// recordForm holds the raw values of the record form, kept as typed so the
// form can be re-rendered after a validation failure.
type recordForm struct {
	Date        string
	Description string
	Amount      string
	Category    string
}

// RequestBodyParser reads a JSON object or a form-encoded body once.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body of r, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like a JSON object, as form data otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if strings.HasPrefix(body, "{") {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal([]byte(body), &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns the sanitized value of key.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if v, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(v))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON reports whether the body was a JSON object.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseRecordForm extracts the record fields from a parsed body.
func parseRecordForm(p *RequestBodyParser) recordForm {
	return recordForm{
		Date:        p.Get("date"),
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
	}
}

// record converts the form leniently: a value that does not parse is left at
// its zero value so that Record.Validate reports the field.
func (f recordForm) record() core.Record {
	var rec core.Record
	if d, err := parseFormDate(f.Date); err == nil {
		rec.Date = d
	}
	rec.Description = f.Description
	if a, err := parseFormAmount(f.Amount); err == nil {
		rec.Amount = a
	}
	if c, err := core.ParseCategory(f.Category); err == nil {
		rec.Category = c
	}
	return rec
}

// parseFormDate accepts YYYY-MM-DD, as sent by date inputs, or DD/MM/YYYY.
func parseFormDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(FormDateLayout, s); err == nil {
		return core.DateOf(t), nil
	}
	return core.ParseCellDate(s)
}

// parseFormAmount accepts "12.50" as sent by number inputs and the
// decimal-comma form "1.234,56" typed by hand.
func parseFormAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		return core.ParseAmount(s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &core.ParseError{Value: s, Reason: fmt.Sprintf("not a number: %v", err)}
	}
	return d, nil
}

// parseMonths collects the month identifiers of a report request. Values may
// repeat (?month=Jan&month=Feb) or be comma separated (?month=Jan,Feb).
// selected is false when the request carries no period at all, in which case
// callers fall back to the current month.
func parseMonths(q url.Values) (ids []string, selected bool) {
	_, selected = q["month"]
	if _, ok := q["period"]; ok {
		selected = true
	}
	for _, v := range q["month"] {
		for _, id := range strings.Split(v, ",") {
			if id = sanitizeInput(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, selected
}
