package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
)

// UI messages.
const (
	msgFillAllFields = "Preencha todos os campos."
	msgSaveFailed    = "Não foi possível salvar o registro. Tente novamente."
	msgNoRecords     = "Não existem registros para esse período!"
	msgNoPeriod      = "Selecione o mês ou o período!"
	msgReadFailed    = "Não foi possível ler a planilha. Tente novamente."
	msgUnknownMonth  = "Mês desconhecido."
)

type formView struct {
	Form    recordForm
	Invalid map[string]bool
	Error   string
	Saved   *core.Record
}

type monthOption struct {
	ID       string
	Selected bool
}

type reportView struct {
	Months   []monthOption
	Error    string
	Summary  core.Summary
	Entries  []core.Entry
	Rejected int
	HasData  bool
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and pings the store when it supports it.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.health == nil:
		checks["store"] = "ok"
	default:
		if err := s.health.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			checks["store"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.activeClients()}
	checks["security"] = s.metrics.snapshot()

	writeJSON(w, r, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleIndex renders an empty record form dated today.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index", formView{
		Form: recordForm{Date: s.now().Format(FormDateLayout)},
	})
}

// handleCreateRecord accepts the record form, or the same fields as a JSON object.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Invalid request body", log.FieldError, err, log.FieldOperation, log.OpParse)
		if p.IsJSON() {
			writeJSON(w, r, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
			return
		}
		s.render(w, r, http.StatusBadRequest, "index", formView{Error: msgFillAllFields})
		return
	}

	form := parseRecordForm(p)
	saved, err := s.writer.Write(ctx, form.record())
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Record not saved", log.FieldError, err, log.FieldOperation, log.OpAppend)
		}
		if p.IsJSON() {
			writeJSONError(w, r, err)
			return
		}
		view := formView{Form: form, Error: msgSaveFailed}
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			view.Error = msgFillAllFields
			view.Invalid = make(map[string]bool, len(verr.Fields))
			for _, f := range verr.Fields {
				view.Invalid[f] = true
			}
		}
		s.render(w, r, status, "index", view)
		return
	}

	if p.IsJSON() {
		writeJSON(w, r, http.StatusCreated, newRecordJSON(saved))
		return
	}
	// The date is kept so consecutive entries of the same day are quick to type.
	s.render(w, r, http.StatusOK, "index", formView{
		Form:  recordForm{Date: saved.Date.Format(FormDateLayout)},
		Saved: &saved,
	})
}

// handleReport renders the period report. Without any period in the query the
// current month is selected.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, selected := parseMonths(r.URL.Query())
	if !selected {
		ids = []string{core.PartitionFor(s.now())}
	}

	view := reportView{Months: monthOptions(ids)}
	if len(ids) == 0 {
		view.Error = msgNoPeriod
		s.render(w, r, http.StatusOK, "report", view)
		return
	}

	table, err := s.reader.Read(ctx, ids)
	if err != nil {
		status := statusFor(err)
		view.Error = msgReadFailed
		if errors.Is(err, core.ErrPartitionNotFound) {
			view.Error = msgUnknownMonth
		} else {
			log.FromContext(ctx).ErrorContext(ctx, "Report read failed", log.FieldError, err, log.FieldMonths, ids)
		}
		s.render(w, r, status, "report", view)
		return
	}

	view.Rejected = len(table.Rejected)
	if table.IsEmpty() {
		view.Error = msgNoRecords
		s.render(w, r, http.StatusOK, "report", view)
		return
	}

	view.Summary = core.Summarize(table)
	view.Entries = table.Entries
	view.HasData = true
	s.render(w, r, http.StatusOK, "report", view)
}

// handleReportJSON serves the period report as JSON.
func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	ids, selected := parseMonths(r.URL.Query())
	if !selected {
		ids = []string{core.PartitionFor(s.now())}
	}
	table, err := s.reader.Read(r.Context(), ids)
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newReportJSON(table, core.Summarize(table)))
}

// render executes a named template into a buffer so a failure can still turn into a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template render failed",
			log.FieldError, err, log.FieldOperation, log.OpRender, "template", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func monthOptions(selected []string) []monthOption {
	out := make([]monthOption, len(core.Partitions))
	for i, p := range core.Partitions {
		out[i] = monthOption{ID: p, Selected: slices.ContainsFunc(selected, func(id string) bool {
			canonical, _, err := core.ParsePartition(id)
			return err == nil && canonical == p
		})}
	}
	return out
}

type recordJSON struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Display     string          `json:"display"`
	Category    string          `json:"category"`
	Partition   string          `json:"partition"`
}

func newRecordJSON(r core.Record) recordJSON {
	return recordJSON{
		Date:        r.Date.CellString(),
		Description: r.Description,
		Amount:      r.Amount,
		Display:     core.FormatEuro(r.Amount),
		Category:    r.Category.Label(),
		Partition:   r.Partition(),
	}
}

type entryJSON struct {
	Date        string           `json:"date"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	RawAmount   string           `json:"raw_amount,omitempty"`
	Category    string           `json:"category"`
	Month       string           `json:"month"`
	Partition   string           `json:"partition"`
	Line        int              `json:"line"`
}

type monthJSON struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

type reportJSON struct {
	Months       []string        `json:"months"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Net          decimal.Decimal `json:"net"`
	Positive     bool            `json:"positive"`
	PerMonth     []monthJSON     `json:"per_month"`
	Entries      []entryJSON     `json:"entries"`
	Skipped      int             `json:"skipped"`
	Rejected     int             `json:"rejected"`
}

func newReportJSON(t core.Table, sum core.Summary) reportJSON {
	out := reportJSON{
		Months:       t.Partitions,
		TotalIncome:  sum.TotalIncome,
		TotalExpense: sum.TotalExpense,
		Net:          sum.Net,
		Positive:     sum.Positive(),
		PerMonth:     make([]monthJSON, 0, len(sum.Months)),
		Entries:      make([]entryJSON, 0, len(t.Entries)),
		Skipped:      sum.Skipped,
		Rejected:     len(t.Rejected),
	}
	for _, m := range sum.Months {
		out.PerMonth = append(out.PerMonth, monthJSON{Month: m.Abbr, Income: m.Income, Expense: m.Expense, Net: m.Net})
	}
	for _, e := range t.Entries {
		ej := entryJSON{
			Date:        e.Date.Value.CellString(),
			Description: e.Description,
			Category:    e.Category.Raw,
			Month:       e.MonthAbbr,
			Partition:   e.Partition,
			Line:        e.Line,
		}
		if e.Amount.Valid() {
			amount := e.Amount.Value
			ej.Amount = &amount
		} else {
			ej.RawAmount = e.Amount.Raw
		}
		out.Entries = append(out.Entries, ej)
	}
	return out
}
