package api

import (
	"net/http"
	"strconv"

	service "github.com/okian/ltv/internal/app"
	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/internal/domain/types"
	"github.com/okian/ltv/pkg/logger"
)

// Response headers set by POST /events.
const (
	HeaderTransactionID = "X-Transaction-ID"
	HeaderRejectedItems = "X-Rejected-Items"
)

// EventsHandler handles event requests.
type EventsHandler struct {
	deps   EventDependencies
	body   bodyReader
	logger logger.Logger
}

// NewEventsHandler creates a new events handler that accepts bodies up to
// maxPayloadBytes.
func NewEventsHandler(deps EventDependencies, maxPayloadBytes int64, l logger.Logger) *EventsHandler {
	return &EventsHandler{deps: deps, body: bodyReader{max: maxPayloadBytes}, logger: l}
}

type verboseResponse struct {
	TransactionID string            `json:"transaction_id"`
	Events        []event.Record    `json:"events"`
	Rejections    []types.Rejection `json:"rejections"`
}

// HandlePostEvents handles POST /events. The body is one event object or an
// array of them; the response is the collected event set. With
// ?rejections=true the dropped items are listed as well.
func (h *EventsHandler) HandlePostEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_events"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	raw, err := h.body.read(w, r)
	if err != nil {
		writeBodyError(w, op, err)
		return
	}
	set, res, err := h.deps.Ingest(r.Context(), raw)
	if err != nil {
		h.logger.Error(r.Context(), "ingest failed", logger.Error(err))
		writeDependencyError(w, op, err)
		return
	}

	verbose, _ := strconv.ParseBool(r.URL.Query().Get("rejections"))
	h.logger.Debug(r.Context(), "events collected",
		logger.String("transaction_id", set.TransactionID().String()),
		logger.Int("events", set.Len()),
		logger.Int("rejected", len(res.Rejections)),
		logger.Bool("verbose", verbose))

	w.Header().Set(HeaderTransactionID, set.TransactionID().String())
	w.Header().Set(HeaderRejectedItems, strconv.Itoa(len(res.Rejections)))
	if verbose {
		events := set.Events()
		if events == nil {
			events = []event.Record{}
		}
		writeJSON(w, http.StatusOK, verboseResponse{
			TransactionID: set.TransactionID().String(),
			Events:        events,
			Rejections:    service.Rejections(res.Rejections),
		})
		return
	}
	writeJSON(w, http.StatusOK, set)
}
