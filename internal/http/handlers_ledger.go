package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/report"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}
	s.refresh(r)

	user, _ := s.sessions.CurrentUser(r.Context())
	s.render(w, r, http.StatusOK, "dashboard.html", dashboardView{
		User:    user,
		Summary: s.summaryAt(ParseMonthParams(r.URL.Query(), s.now())),
	})
}

// handleSummary renders the ledger fragment refreshed after every change.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}
	s.refresh(r)
	s.render(w, r, http.StatusOK, "ledger", s.summaryAt(ParseMonthParams(r.URL.Query(), s.now())))
}

// refresh picks up writes made by other processes sharing the store. On
// failure the page is served from memory.
func (s *Server) refresh(r *http.Request) {
	if err := s.ledger.Reload(r.Context()); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Ledger reload failed, serving cached state",
			log.FieldComponent, log.ComponentLedger,
			log.FieldOperation, log.OpLoad,
			log.FieldError, err)
	}
}

func (s *Server) summaryAt(p MonthParams) summaryView {
	return newSummaryView(s.ledger.Dashboard(p.Reference(s.now().Location())), s.ledger.Revision())
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	body, errResp := s.parsePost(w, r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	amount, err := core.ParseAmount(body.Get("amount"))
	if err != nil {
		s.validationError(w, r, err)
		return
	}
	if err := s.ledger.AddIncome(r.Context(), amount); err != nil {
		s.ledgerError(w, r, "add_income", err)
		return
	}
	s.changed(w, r, body, "Income added: "+formatDollars(amount))
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	body, errResp := s.parsePost(w, r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	description := body.Get("description")
	if description == "" {
		s.validationError(w, r, core.ErrEmptyDescription)
		return
	}
	amount, err := core.ParseAmount(body.Get("amount"))
	if err != nil {
		s.validationError(w, r, err)
		return
	}
	category, err := core.ParseCategory(body.Get("category"))
	if err != nil {
		s.validationError(w, r, err)
		return
	}

	e, err := s.ledger.AddExpense(r.Context(), description, amount, category)
	if err != nil {
		s.ledgerError(w, r, "add_expense", err)
		return
	}
	s.changed(w, r, body, fmt.Sprintf("Expense added: %s %s", e.Description, formatDollars(e.Amount)))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	body, errResp := s.parsePost(w, r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	id, err := strconv.ParseInt(body.Get("id"), 10, 64)
	if err != nil {
		BadRequestError("Invalid expense id").Write(w)
		return
	}

	removed, err := s.ledger.DeleteExpense(r.Context(), id)
	if err != nil {
		s.ledgerError(w, r, "delete_expense", err)
		return
	}
	if !removed {
		if body.IsJSON() {
			writeJSON(w, http.StatusOK, apiResult{Revision: s.ledger.Revision(), Message: "Expense was already removed"})
			return
		}
		if isHTMX(r) {
			NewHTMXResponse().
				TriggerLedgerChanged(s.ledger.Revision()).
				TriggerNotification(NotificationInfo, "Expense was already removed", 3000).
				Write(w)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.changed(w, r, body, "Expense deleted")
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	body, errResp := s.parsePost(w, r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	category, err := core.ParseCategory(body.Get("category"))
	if err != nil {
		s.validationError(w, r, err)
		return
	}
	amount, err := core.ParseAmount(body.Get("amount"))
	if err != nil {
		s.validationError(w, r, err)
		return
	}

	if err := s.ledger.SetBudget(r.Context(), category, amount); err != nil {
		s.ledgerError(w, r, "set_budget", err)
		return
	}
	s.changed(w, r, body, fmt.Sprintf("%s budget set to %s", category.Label(), formatDollars(amount)))
}

// handleChart serves the spend-vs-budget PNG. Category totals do not depend
// on the selected month, so the revision plus the period identifies an image.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}

	s.refresh(r)
	p := ParseMonthParams(r.URL.Query(), s.now())
	key := fmt.Sprintf("%d:%04d-%02d", s.ledger.Revision(), p.Year, p.Month)

	png, ok := s.chartCache.Get(key)
	if !ok {
		var err error
		png, err = report.RenderCategoryChart(s.ledger.Dashboard(p.Reference(s.now().Location())))
		if err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart render failed",
				log.FieldComponent, log.ComponentReport,
				log.FieldOperation, log.OpRender,
				log.FieldError, err)
			http.Error(w, "chart unavailable", http.StatusInternalServerError)
			return
		}
		s.chartCache.Set(key, png)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}

	s.refresh(r)
	var buf bytes.Buffer
	if err := report.WriteExpensesCSV(&buf, s.ledger.State().Expenses); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			log.FieldComponent, log.ComponentReport,
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type apiExpense struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

type apiBudget struct {
	Category   string  `json:"category"`
	Spent      string  `json:"spent"`
	Budget     string  `json:"budget"`
	Percentage float64 `json:"percentage"`
	Over       bool    `json:"over"`
}

type apiLedger struct {
	Revision uint64 `json:"revision"`
	Income   string `json:"income"`
	Balance  string `json:"balance"`
	Monthly  struct {
		Year        int    `json:"year"`
		Month       int    `json:"month"`
		Count       int    `json:"count"`
		TotalSpent  string `json:"total_spent"`
		TotalBudget string `json:"total_budget"`
		Remaining   string `json:"remaining"`
	} `json:"monthly"`
	Budgets  []apiBudget  `json:"budgets"`
	Expenses []apiExpense `json:"expenses"`
}

func (s *Server) handleAPILedger(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}

	s.refresh(r)
	p := ParseMonthParams(r.URL.Query(), s.now())
	d := s.ledger.Dashboard(p.Reference(s.now().Location()))

	out := apiLedger{
		Revision: s.ledger.Revision(),
		Income:   d.Income.Fixed(),
		Balance:  d.Balance.Fixed(),
		Budgets:  make([]apiBudget, 0, len(d.Budgets)),
		Expenses: make([]apiExpense, 0, len(d.Expenses)),
	}
	out.Monthly.Year = d.Monthly.Year
	out.Monthly.Month = d.Monthly.Month
	out.Monthly.Count = d.Monthly.Count
	out.Monthly.TotalSpent = d.Monthly.TotalSpent.Fixed()
	out.Monthly.TotalBudget = d.Monthly.TotalBudget.Fixed()
	out.Monthly.Remaining = d.Monthly.Remaining.Fixed()

	for _, b := range d.Budgets {
		out.Budgets = append(out.Budgets, apiBudget{
			Category:   string(b.Category),
			Spent:      b.Spent.Fixed(),
			Budget:     b.Budget.Fixed(),
			Percentage: b.Percentage,
			Over:       b.Over,
		})
	}
	for _, e := range d.Expenses {
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.String()
		}
		out.Expenses = append(out.Expenses, apiExpense{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount.Fixed(),
			Category:    string(e.Category),
			Date:        date,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

// parsePost accepts form posts from the page and JSON bodies from scripts.
func (s *Server) parsePost(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, *HTMXResponseBuilder) {
	if errResp := RequirePOST(r); errResp != nil {
		return nil, errResp
	}
	return ParseBodyOrFail(w, r)
}

// changed reports a committed mutation.
type apiResult struct {
	Revision uint64 `json:"revision"`
	Message  string `json:"message"`
}

// changed answers a committed mutation: JSON for JSON bodies, HX-Trigger
// events for htmx and a redirect to the dashboard for plain forms.
func (s *Server) changed(w http.ResponseWriter, r *http.Request, body *RequestBodyParser, message string) {
	if body.IsJSON() {
		writeJSON(w, http.StatusOK, apiResult{Revision: s.ledger.Revision(), Message: message})
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(s.ledger.Revision()).
		TriggerFormReset().
		TriggerSuccessNotification(message).
		Write(w)
}

func (s *Server) validationError(w http.ResponseWriter, r *http.Request, err error) {
	msg := validationMessage(err)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Rejected ledger input",
		log.FieldPath, r.URL.Path,
		"error_type", log.ErrorTypeValidation,
		log.FieldError, err)
	UnprocessableEntityError(msg).TriggerErrorNotification(msg).Write(w)
}

func (s *Server) ledgerError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if isValidation(err) {
		s.validationError(w, r, err)
		return
	}
	requestID := trace.GetRequestID(r.Context())
	log.NewStructuredLogger(s.logger).LogError(r.Context(), "Ledger operation failed", err,
		log.ComponentLedger, op, log.NewFields().WithRequestID(requestID))
	InternalServerError("Could not save changes").TriggerErrorNotification("Could not save changes").Write(w)
}

func isValidation(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrUnknownCategory) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrInvalidDescription)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyDescription):
		return "Description is required"
	case errors.Is(err, core.ErrInvalidDescription):
		return "Description contains invalid characters"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a number of zero or more"
	case errors.Is(err, core.ErrUnknownCategory):
		return "Unknown category"
	default:
		return "Invalid input"
	}
}
