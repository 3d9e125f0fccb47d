package sync

import (
	"errors"
	"net/http"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/ghl"
	"github.com/opsforge/workflow-automation/internal/integration"
	"github.com/opsforge/workflow-automation/internal/utils"
)

type Handler struct {
	Syncer *Syncer
}

func NewHandler(s *Syncer) *Handler {
	return &Handler{Syncer: s}
}

// Run handles POST /sync/run: one on-demand sync for the caller's org.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	res, err := h.Syncer.SyncOrganization(r.Context(), orgID)
	if err != nil {
		switch {
		case errors.Is(err, integration.ErrNotConnected):
			utils.WriteError(w, http.StatusNotFound, "integration not connected")
		case errors.Is(err, ghl.ErrAuthExpired):
			utils.WriteError(w, http.StatusUnauthorized, "authentication failed, please reconnect")
		default:
			h.Syncer.Log.Errorw("manual sync", "org", orgID, "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "sync failed")
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}
