package api

import (
	"context"
	"errors"
	"net/http"

	"log/slog"

	"github.com/sinowatch/sinowatch/internal/ingestion"
)

// IngestTrigger starts one ingestion cycle on demand.
type IngestTrigger interface {
	RunCycle(ctx context.Context) (int, error)
}

// AdminHandler serves the authenticated operator endpoints.
type AdminHandler struct {
	trigger IngestTrigger
	logger  *slog.Logger
}

// NewAdminHandler builds the admin handler.
func NewAdminHandler(trigger IngestTrigger, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{trigger: trigger, logger: logger}
}

type ingestResponse struct {
	Status   string `json:"status"`
	Inserted int    `json:"inserted"`
}

// TriggerIngest handles POST /api/admin/ingest. The cycle runs inline so
// the response carries the insert count; an already-running cycle answers
// 409 rather than queueing a second one.
func (h *AdminHandler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	inserted, err := h.trigger.RunCycle(r.Context())
	if errors.Is(err, ingestion.ErrCycleRunning) {
		http.Error(w, "Ingestion cycle already running", http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("manual ingestion cycle failed", "error", err)
		http.Error(w, "Ingestion cycle failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{Status: "completed", Inserted: inserted})
}
