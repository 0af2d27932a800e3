package http

import (
	"net/http"
	"strconv"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/audit"
	"github.com/fieldclock/fieldclock-backend-go/internal/handler/http/response"
)

type AuditHandler interface {
	Query(w http.ResponseWriter, r *http.Request)
}

type auditHandlerImpl struct {
	trail audit.TrailRepository
}

func NewAuditHandler(trail audit.TrailRepository) AuditHandler {
	return &auditHandlerImpl{trail: trail}
}

// Query implements AuditHandler.
func (h *auditHandlerImpl) Query(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{}

	if workerID := r.URL.Query().Get("worker_id"); workerID != "" {
		filter.WorkerID = &workerID
	}

	if siteID := r.URL.Query().Get("site_id"); siteID != "" {
		filter.SiteID = &siteID
	}

	if action := r.URL.Query().Get("action"); action != "" {
		filter.Action = &action
	}

	if startDate := r.URL.Query().Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}

	if endDate := r.URL.Query().Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	filter.Page = page

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}
	filter.Limit = limit

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	records, total, err := h.trail.Query(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	responses := make([]audit.RecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, audit.ToResponse(rec))
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	}

	response.Success(w, audit.ListRecordsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Records:    responses,
	})
}
