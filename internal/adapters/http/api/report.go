package api

import (
	"net/http"
	"strconv"
)

// ReportHandler handles LTV report requests.
type ReportHandler struct {
	deps         ReportDependencies
	body         bodyReader
	defaultLimit int
	maxLimit     int
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies, maxPayloadBytes int64, defaultLimit, maxLimit int) *ReportHandler {
	return &ReportHandler{
		deps:         deps,
		body:         bodyReader{max: maxPayloadBytes},
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// HandlePostReport handles POST /reports/ltv?limit=N. The body is an ingest
// payload; the response ranks its customers by LTV.
func (h *ReportHandler) HandlePostReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_report"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	n := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrLimitExceeded))
		return
	}
	raw, err := h.body.read(w, r)
	if err != nil {
		writeBodyError(w, op, err)
		return
	}
	rep, err := h.deps.Report(r.Context(), raw, n)
	if err != nil {
		writeDependencyError(w, op, err)
		return
	}
	if rep.Customers == nil {
		rep.Customers = []Entry{}
	}
	writeJSON(w, http.StatusOK, rep)
}
