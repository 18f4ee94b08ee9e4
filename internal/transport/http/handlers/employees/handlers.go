package employeeshandler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"evaltool/internal/domain/evaluation"
	"evaltool/internal/domain/reports"
	"evaltool/internal/transport/http/api"
	"evaltool/internal/transport/http/middleware"
	"evaltool/internal/transport/http/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	Service *evaluation.Service
}

func NewHandler(service *evaluation.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Get("/evaluations", h.handleHistory)
			r.Post("/evaluations", h.handleRecord)
			r.Get("/report.pdf", h.handleReportPDF)
		})
	})
	r.Post("/evaluations/preview", h.handlePreview)
	r.Get("/history", h.handleSummaries)
	r.Get("/export", h.handleExport)
	r.Get("/export.xlsx", h.handleExportXLSX)
	r.Post("/import", h.handleImport)
	r.Delete("/local", h.handleClearLocal)
}

type createEmployeeRequest struct {
	Name      string `json:"name"`
	Matricule string `json:"matricule"`
	Role      string `json:"role"`
}

type previewRequest struct {
	Role string `json:"role"`
	evaluation.EvaluationInput
}

type syncPayload struct {
	Status evaluation.SyncStatus `json:"status"`
	Error  string                `json:"error,omitempty"`
}

func toSyncPayload(res evaluation.SyncResult) syncPayload {
	out := syncPayload{Status: res.Status}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.Store().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end := shared.ParsePagination(r, 1000).Bounds(len(employees))
	api.Success(w, employees[start:end], middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createEmployeeRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	emp, res, err := h.Service.Store().Add(r.Context(), payload.Name, payload.Matricule, payload.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.SuccessWithSync(w, http.StatusCreated, emp, toSyncPayload(res), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Store().Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	res, err := h.Service.Store().Remove(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.SuccessWithSync(w, http.StatusOK, map[string]string{"id": employeeID}, toSyncPayload(res), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	history, err := h.Service.History(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("since"); raw != "" {
		v := shared.NewValidator()
		since, ok := v.Date("since", raw)
		if !ok {
			v.Reject(w, requestID)
			return
		}
		filtered := history[:0]
		for _, ev := range history {
			if !ev.Date.Before(since) {
				filtered = append(filtered, ev)
			}
		}
		history = filtered
	}
	api.Success(w, history, requestID)
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var input evaluation.EvaluationInput
	if !decodeJSON(w, r, &input) {
		return
	}
	ev, res, err := h.Service.Record(r.Context(), chi.URLParam(r, "employeeID"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.SuccessWithSync(w, http.StatusCreated, ev, toSyncPayload(res), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Store().Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := reports.EmployeePDF(emp)
	if err != nil {
		slog.Warn("employee report failed", "employeeId", emp.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Attachment(w, "application/pdf", "evaluation_"+emp.ID+".pdf", data)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	var payload previewRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	role := strings.ToLower(strings.TrimSpace(payload.Role))
	api.Success(w, h.Service.Preview(role, payload.EvaluationInput), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummaries(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.Store().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, reports.Summaries(employees), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.Store().ExportAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Attachment(w, "application/json", evaluation.ExportFileName, data)
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.Store().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := reports.Workbook(employees)
	if err != nil {
		slog.Warn("workbook export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render workbook", middleware.GetRequestID(r.Context()))
		return
	}
	api.Attachment(w, xlsxContentType, strings.TrimSuffix(evaluation.ExportFileName, ".json")+".xlsx", data)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	res, err := h.Service.Store().ImportAll(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	employees, err := h.Service.Store().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.SuccessWithSync(w, http.StatusOK, map[string]int{"imported": len(employees)}, toSyncPayload(res), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClearLocal(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Store().ClearLocal(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"cleared": true}, middleware.GetRequestID(r.Context()))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	data, ok := readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
			return nil, false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read request body", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return data, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	var fieldErr *evaluation.FieldError
	switch {
	case errors.As(err, &fieldErr):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: fieldErr.Field, Reason: fieldErr.Reason}})
	case errors.Is(err, evaluation.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, evaluation.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, evaluation.ErrMalformedImport):
		api.Fail(w, http.StatusBadRequest, "malformed_import", "import payload must be a JSON array of employees", requestID)
	default:
		slog.Error("storage operation failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "storage_error", "storage operation failed", requestID)
	}
}
