package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/agrifield/be-fs-liquidations/internal/flow"
	"github.com/agrifield/be-fs-liquidations/internal/repository"
	"github.com/agrifield/be-fs-liquidations/internal/service"
	"github.com/agrifield/be-fs-liquidations/pkg/errors"
	"github.com/agrifield/be-fs-liquidations/pkg/logger"
)

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	service *service.ApprovalService
	log     *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(service *service.ApprovalService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		log:     log,
	}
}

// ── request/response shapes ───────────────────────────────────────────────────

type approveRequest struct {
	PhoneNumber string `json:"phone_number"`
	RecordDate  string `json:"record_date"`
	Role        string `json:"role"`
	User        string `json:"user"`
}

type editRequest struct {
	PhoneNumber  string                    `json:"phone_number"`
	RecordDate   string                    `json:"record_date"`
	Role         string                    `json:"role"`
	User         string                    `json:"user"`
	EmployeeName *string                   `json:"employee_name"`
	HQ           *string                   `json:"hq"`
	Zone         *string                   `json:"zone"`
	Area         *string                   `json:"area"`
	Products     *[]repository.ProductLine `json:"products"`
}

type approvalView struct {
	Actor string    `json:"actor"`
	Role  string    `json:"role"`
	At    time.Time `json:"at"`
}

// recordView is the wire form of a record. approved_by keeps the
// rendered "Name (ROLE)" tags of the original column; the structured
// entries ride alongside under approvals.
type recordView struct {
	PhoneNumber  string                   `json:"phone_number"`
	RecordDate   string                   `json:"record_date"`
	EmployeeName string                   `json:"employee_name"`
	HQ           string                   `json:"hq"`
	Zone         string                   `json:"zone"`
	Area         string                   `json:"area"`
	Products     []repository.ProductLine `json:"products"`
	Status       string                   `json:"status"`
	ApprovedBy   []string                 `json:"approved_by"`
	Approvals    []approvalView           `json:"approvals"`
	EditedBy     *string                  `json:"edited_by"`
	EditedAt     *time.Time               `json:"edited_at"`
	CreatedAt    time.Time                `json:"created_at"`
}

func toRecordView(rec *repository.Record) *recordView {
	approvals := make([]approvalView, len(rec.Approvals))
	for i, a := range rec.Approvals {
		approvals[i] = approvalView{Actor: a.Actor, Role: string(a.Role), At: a.At}
	}
	return &recordView{
		PhoneNumber:  rec.PhoneNumber,
		RecordDate:   rec.RecordDate,
		EmployeeName: rec.EmployeeName,
		HQ:           rec.HQ,
		Zone:         rec.Zone,
		Area:         rec.Area,
		Products:     rec.Products,
		Status:       string(rec.Status),
		ApprovedBy:   rec.ApprovedTags(),
		Approvals:    approvals,
		EditedBy:     rec.EditedBy,
		EditedAt:     rec.EditedAt,
		CreatedAt:    rec.CreatedAt,
	}
}

// ── endpoints ─────────────────────────────────────────────────────────────────

// ApproveRecord handles POST /api/v1/records/approve.
func (h *HTTPHandler) ApproveRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.InvalidInput("body", "malformed JSON"))
		return
	}
	if req.PhoneNumber == "" || req.RecordDate == "" {
		h.respondError(w, r, errors.InvalidInput("record key", "phone_number and record_date are required"))
		return
	}

	rec, err := h.service.Approve(r.Context(), &service.ApproveRequest{
		PhoneNumber: req.PhoneNumber,
		RecordDate:  req.RecordDate,
		Role:        flow.Role(req.Role),
		Actor:       req.User,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  toRecordView(rec),
	})
}

// EditRecord handles PATCH /api/v1/records/edit.
func (h *HTTPHandler) EditRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.InvalidInput("body", "malformed JSON"))
		return
	}
	if req.PhoneNumber == "" || req.RecordDate == "" {
		h.respondError(w, r, errors.InvalidInput("record key", "phone_number and record_date are required"))
		return
	}

	rec, err := h.service.ApplyEdit(r.Context(), &service.EditRequest{
		PhoneNumber: req.PhoneNumber,
		RecordDate:  req.RecordDate,
		Role:        flow.Role(req.Role),
		Actor:       req.User,
		Patch: repository.FieldPatch{
			EmployeeName: req.EmployeeName,
			HQ:           req.HQ,
			Zone:         req.Zone,
			Area:         req.Area,
			Products:     req.Products,
		},
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  toRecordView(rec),
	})
}

// ListRecords handles GET /api/v1/records.
func (h *HTTPHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	req := &service.ListRequest{
		ViewerKey:  q.Get("viewer"),
		ViewerRole: flow.Role(q.Get("viewer_role")),
	}

	if v := q.Get("status"); v != "" {
		status := flow.Status(v)
		req.Status = &status
	}
	if v := q.Get("zone"); v != "" {
		req.Zone = &v
	}
	if v := q.Get("from_date"); v != "" {
		req.FromDate = &v
	}
	if v := q.Get("to_date"); v != "" {
		req.ToDate = &v
	}

	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	records, total, err := h.service.ListRecords(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	views := make([]*recordView, len(records))
	for i, rec := range records {
		views[i] = toRecordView(rec)
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"records": views,
		"total":   total,
	})
}

// GetRecord handles GET /api/v1/records/get.
func (h *HTTPHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	phoneNumber := r.URL.Query().Get("phone_number")
	recordDate := r.URL.Query().Get("record_date")
	if phoneNumber == "" || recordDate == "" {
		h.respondError(w, r, errors.InvalidInput("record key", "phone_number and record_date are required"))
		return
	}

	rec, err := h.service.GetRecord(r.Context(), phoneNumber, recordDate)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toRecordView(rec))
}

// ── response helpers ──────────────────────────────────────────────────────────

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOf(err)
	status := errors.HTTPStatus(code)

	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		h.log.Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
	}

	h.respondJSON(w, status, map[string]any{
		"error": errors.MessageOf(err),
		"code":  string(code),
	})
}
