package commission

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Log        *zap.SugaredLogger
}

func NewHandler(db *gorm.DB, log *zap.SugaredLogger) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Log: log}
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// Create handles POST /commissions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.OpportunityID == "" || req.GHLUserID == "" {
		utils.WriteError(w, http.StatusBadRequest, "opportunityId and ghlUserId are required")
		return
	}
	switch req.CommissionType {
	case TypePercentageGross, TypePercentageProfit, TypeFlat:
	default:
		utils.WriteError(w, http.StatusBadRequest, "unknown commission type")
		return
	}

	saved, err := h.Repository.Upsert(h.DB, &CommissionAssignment{
		OrganizationID: orgID,
		OpportunityID:  req.OpportunityID,
		GHLUserID:      req.GHLUserID,
		CommissionType: req.CommissionType,
		BaseRate:       ClampRate(req.CommissionType, req.BaseRate),
	})
	if err != nil {
		h.Log.Errorw("create commission assignment", "org", orgID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to save assignment")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, saved)
}

func parseBoolParam(v string) *bool {
	if v == "" {
		return nil
	}
	b := v == "true" || v == "1"
	return &b
}

// List handles GET /commissions with the deal value join.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)
	params := r.URL.Query()

	f := ListFilter{
		OpportunityID: params.Get("opportunityId"),
		GHLUserID:     params.Get("ghlUserId"),
		IsPaid:        parseBoolParam(params.Get("isPaid")),
		IsDisabled:    parseBoolParam(params.Get("isDisabled")),
	}

	rows, err := h.Repository.ListWithValues(h.DB, orgID, f)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to list commissions")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"commissions": rows})
}

// Summary handles GET /commissions/summary; disabled assignments are not
// eligible and are excluded from the totals.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	rows, err := h.Repository.ListWithValues(h.DB, orgID, ListFilter{})
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to load commissions")
		return
	}

	var s SummaryDTO
	s.Assignments = len(rows)
	for _, row := range rows {
		if row.IsDisabled {
			s.DisabledCount++
			continue
		}
		s.TotalEarned += row.Amount
		if row.IsPaid {
			s.PaidCount++
			s.TotalPaid += row.PaidAmount
		} else {
			s.TotalPending += row.Amount
		}
	}
	utils.WriteJSON(w, http.StatusOK, s)
}

// MarkPaid handles POST /commissions/{id}/mark-paid. A missing paidAmount
// defaults to 0 and a missing paidDate to now.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req markPaidRequest
	if r.Body != nil {
		// Empty body is allowed; defaults apply.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	amount := 0.0
	if req.PaidAmount != nil {
		amount = *req.PaidAmount
	}
	date := time.Now()
	if req.PaidDate != nil {
		date = *req.PaidDate
	}

	if err := h.Repository.MarkPaid(h.DB, orgID, id, amount, date); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "assignment not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to mark paid")
		return
	}

	a, err := h.Repository.FindByID(h.DB, orgID, id)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "assignment not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, a)
}

// Toggle handles POST /commissions/{id}/toggle (is_disabled flip).
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.Repository.ToggleDisabled(h.DB, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "assignment not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to toggle assignment")
		return
	}
	utils.WriteJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /commissions/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.Repository.Delete(h.DB, orgID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "assignment not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to delete assignment")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
