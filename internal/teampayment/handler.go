package teampayment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type createPaymentRequest struct {
	PayeeUserID uint    `json:"payeeUserId"`
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	Period      string  `json:"period"`
	Note        string  `json:"note"`
}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Repository: NewRepository()}
}

// Create handles POST /team-payments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.PayeeUserID == 0 || req.Amount <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "payeeUserId and a positive amount are required")
		return
	}

	p := TeamPayment{
		OrganizationID: orgID,
		PayeeUserID:    req.PayeeUserID,
		Amount:         req.Amount,
		Method:         req.Method,
		Status:         StatusPending,
		Period:         req.Period,
		Note:           req.Note,
	}
	if err := h.Repository.Save(h.DB, &p); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to save payment")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

// List handles GET /team-payments?status=&period=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	list, err := h.Repository.List(h.DB, orgID, r.URL.Query().Get("status"), r.URL.Query().Get("period"))
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"payments": list})
}

// MarkPaid handles POST /team-payments/{id}/mark-paid. Missing paidDate
// defaults to now, the same rule commissions use.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		PaidDate *time.Time `json:"paidDate"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	date := time.Now()
	if req.PaidDate != nil {
		date = *req.PaidDate
	}

	if err := h.Repository.MarkPaid(h.DB, orgID, uint(id), date); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "payment not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to mark paid")
		return
	}

	p, err := h.Repository.FindByID(h.DB, orgID, uint(id))
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "payment not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /team-payments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.Repository.Delete(h.DB, orgID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "payment not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to delete payment")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
