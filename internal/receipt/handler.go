package receipt

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

type createReceiptRequest struct {
	Vendor       string  `json:"vendor"`
	Amount       float64 `json:"amount"`
	Category     string  `json:"category"`
	CardType     string  `json:"cardType"`
	Reimbursable bool    `json:"reimbursable"`
	Note         string  `json:"note"`
	ReceiptDate  string  `json:"receiptDate"`
}

// Absent fields leave the stored value alone.
type updateReceiptRequest struct {
	Vendor       *string  `json:"vendor"`
	Amount       *float64 `json:"amount"`
	Category     *string  `json:"category"`
	CardType     *string  `json:"cardType"`
	Reimbursable *bool    `json:"reimbursable"`
	Note         *string  `json:"note"`
	ReceiptDate  *string  `json:"receiptDate"`
}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Repository: NewRepository()}
}

// Create handles POST /receipts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	var req createReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Vendor == "" || req.Amount <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "vendor and a positive amount are required")
		return
	}
	cardType := req.CardType
	if cardType == "" {
		cardType = CardPersonal
	}
	if cardType != CardPersonal && cardType != CardCompany {
		utils.WriteError(w, http.StatusBadRequest, "unknown card type")
		return
	}

	receiptDate := time.Now()
	if req.ReceiptDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.ReceiptDate)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "receiptDate must be RFC3339")
			return
		}
		receiptDate = parsed
	}

	rc := Receipt{
		OrganizationID: orgID,
		UserID:         auth.UserID(r),
		Vendor:         req.Vendor,
		Amount:         req.Amount,
		Category:       req.Category,
		CardType:       cardType,
		Reimbursable:   req.Reimbursable,
		Note:           req.Note,
		ReceiptDate:    receiptDate,
	}
	if err := h.Repository.Save(h.DB, &rc); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to save receipt")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, rc)
}

// List handles GET /receipts?category=&month=YYYY-MM.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	var month *time.Time
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := time.Parse("2006-01", m)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = &parsed
	}

	list, err := h.Repository.List(h.DB, orgID, r.URL.Query().Get("category"), month)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to list receipts")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"receipts": list})
}

// Update handles PUT /receipts/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	rc, err := h.Repository.FindByID(h.DB, orgID, uint(id))
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "receipt not found")
		return
	}

	var req updateReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Vendor != nil {
		if *req.Vendor == "" {
			utils.WriteError(w, http.StatusBadRequest, "vendor cannot be empty")
			return
		}
		rc.Vendor = *req.Vendor
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			utils.WriteError(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		rc.Amount = *req.Amount
	}
	if req.Category != nil {
		rc.Category = *req.Category
	}
	if req.CardType != nil {
		if *req.CardType != CardPersonal && *req.CardType != CardCompany {
			utils.WriteError(w, http.StatusBadRequest, "unknown card type")
			return
		}
		rc.CardType = *req.CardType
	}
	if req.Reimbursable != nil {
		rc.Reimbursable = *req.Reimbursable
	}
	if req.Note != nil {
		rc.Note = *req.Note
	}
	if req.ReceiptDate != nil {
		parsed, err := time.Parse(time.RFC3339, *req.ReceiptDate)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "receiptDate must be RFC3339")
			return
		}
		rc.ReceiptDate = parsed
	}

	if err := h.Repository.Save(h.DB, rc); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to update receipt")
		return
	}
	utils.WriteJSON(w, http.StatusOK, rc)
}

// Delete handles DELETE /receipts/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.Repository.Delete(h.DB, orgID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "receipt not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to delete receipt")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
