package contact

import (
	"net/http"
	"strconv"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/utils"

	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Repository: NewRepository()}
}

// List handles GET /contacts (cached rows, not a CRM round trip).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	list, err := h.Repository.List(h.DB, orgID, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"contacts": list})
}
