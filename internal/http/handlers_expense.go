package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"myexpenses/internal/amqp"
	"myexpenses/internal/core"
	"myexpenses/internal/log"
	"myexpenses/internal/services"
)

const (
	// ClearConfirmMessage is shown by the browser before clearing the list.
	ClearConfirmMessage = "Clear all expenses? This cannot be undone."

	importFailedMessage = "Could not import the file."
)

type indexData struct {
	Categories   []string
	ClearConfirm string
	Table        TableView
	Chart        ChartView
}

// handleIndex renders the full page with the add, view and summary sections.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Not found").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	list := s.svc.List(r.Context())
	s.render(w, r, "index.html", indexData{
		Categories:   s.categories,
		ClearConfirm: ClearConfirmMessage,
		Table:        NewTableView(list),
		Chart:        NewChartView(core.Summarize(list)),
	})
}

// handleTable renders the table partial from a fresh load.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "table.html", NewTableView(s.svc.List(r.Context())))
}

// handleChart renders the chart partial from a fresh aggregate.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "chart.html", NewChartView(s.svc.Summary(r.Context())))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	e, err := s.svc.AddExpense(r.Context(), parser.ExpenseInput())
	if errors.Is(err, core.ErrInvalidAmount) {
		UnprocessableEntityError(core.UserMessage(err, core.InvalidAmountMessage)).Write(w)
		return
	}
	if err != nil {
		s.reqLog.LogError(r.Context(), "Expense append failed", err,
			log.ComponentRecords, log.OpCreate, log.NewFields().WithExpense(e.Amount, e.Category))
		InternalServerError("Could not save the expense.").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerExpensesChanged(amqp.OpAppend, 1).
		TriggerFormReset().
		Message(NotificationSuccess, services.AddedMessage).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	index, ok := ParseIndex(parser.Get("index"))
	if !ok {
		BadRequestError("Missing or invalid index").Write(w)
		return
	}

	removed, err := s.svc.DeleteAt(r.Context(), index)
	if err != nil {
		s.reqLog.LogError(r.Context(), "Expense delete failed", err,
			log.ComponentRecords, log.OpDelete, log.LogFields{log.FieldIndex: index})
		InternalServerError("Could not delete the expense.").Write(w)
		return
	}

	resp := NewHTMXResponse()
	if removed {
		resp.TriggerExpensesChanged(amqp.OpDelete, 1)
	}
	resp.Write(w)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if err := s.svc.Clear(r.Context()); err != nil {
		s.reqLog.LogError(r.Context(), "Expense clear failed", err,
			log.ComponentRecords, log.OpClear, nil)
		InternalServerError("Could not clear the expenses.").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerExpensesChanged(amqp.OpClear, 0).
		Write(w)
}

// handleImport appends the records of an uploaded CSV file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxImportBytes)
	if err := r.ParseMultipartForm(s.maxImportBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "The file is too large.").Write(w)
			return
		}
		BadRequestError("Expected a multipart upload with a file field.").Write(w)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError("Please choose a CSV file.").Write(w)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.reqLog.LogError(r.Context(), "Read upload failed", err,
			log.ComponentCSV, log.OpImport, log.LogFields{log.FieldFilename: header.Filename})
		BadRequestError(importFailedMessage).Write(w)
		return
	}

	count, err := s.svc.ImportCSV(r.Context(), string(data))
	if err != nil {
		var ue *core.UserError
		if errors.As(err, &ue) {
			UnprocessableEntityError(ue.UserMessage).Write(w)
			return
		}
		s.reqLog.LogError(r.Context(), "Import failed", err,
			log.ComponentCSV, log.OpImport, log.LogFields{log.FieldFilename: header.Filename, log.FieldBytes: len(data)})
		InternalServerError(importFailedMessage).Write(w)
		return
	}

	resp := NewHTMXResponse()
	if count > 0 {
		resp.TriggerExpensesChanged(amqp.OpImport, count)
	}
	resp.Message(NotificationSuccess, ImportedMessage(count)).Write(w)
}

// ImportedMessage is the feedback shown after an import.
func ImportedMessage(count int) string {
	return "Imported " + strconv.Itoa(count) + " rows"
}

// handleExport downloads the list as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	filename, body := s.svc.ExportCSV(r.Context())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, body)
	}
}

// handleSummary returns the per-category totals as {labels, values}.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(s.svc.Summary(r.Context())); err != nil {
		s.reqLog.LogError(r.Context(), "Encode summary failed", err,
			log.ComponentHTTP, log.OpSummary, nil)
	}
}
