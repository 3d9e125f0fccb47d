package opportunity

import (
	"net/http"
	"strconv"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Repository: NewRepository()}
}

// Search handles GET /opportunities with q/stage/status/assignedTo filters.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)
	params := r.URL.Query()

	q := SearchQuery{
		Text:       params.Get("q"),
		Stage:      params.Get("stage"),
		Status:     params.Get("status"),
		AssignedTo: params.Get("assignedTo"),
	}
	if v, err := strconv.Atoi(params.Get("limit")); err == nil {
		q.Limit = v
	}
	if v, err := strconv.Atoi(params.Get("offset")); err == nil && v >= 0 {
		q.Offset = v
	}

	list, total, err := h.Repository.Search(h.DB, orgID, q)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to search opportunities")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"opportunities": list,
		"total":         total,
	})
}

// Get handles GET /opportunities/{opportunityId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)
	oppID := mux.Vars(r)["opportunityId"]

	o, err := h.Repository.FindByExternalID(h.DB, orgID, oppID)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "opportunity not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}
