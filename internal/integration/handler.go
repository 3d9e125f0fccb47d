package integration

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/crypto"
	"github.com/opsforge/workflow-automation/internal/ghl"
	"github.com/opsforge/workflow-automation/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler owns the integration routes and the CRM proxy routes.
type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Log        *zap.SugaredLogger
}

func NewHandler(db *gorm.DB, log *zap.SugaredLogger) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Log: log}
}

// Connect handles POST /integrations/ghl/connect. Either an OAuth code or a
// PIT must be supplied; tokens are encrypted before the upsert.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Code == "" && req.PIT == "" {
		utils.WriteError(w, http.StatusBadRequest, "code or pit is required")
		return
	}

	cfg := Config{
		LocationID:            req.LocationID,
		DefaultCommissionRate: req.DefaultCommissionRate,
	}

	if req.PIT != "" {
		encPIT, err := crypto.Encrypt(req.PIT)
		if err != nil {
			h.Log.Errorw("encrypt pit", "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to store credentials")
			return
		}
		cfg.PIT = encPIT
	} else {
		tokens, err := ghl.ExchangeCode(r.Context(), req.Code)
		if err != nil {
			h.Log.Errorw("exchange oauth code", "org", orgID, "error", err)
			utils.WriteError(w, http.StatusBadGateway, "oauth code exchange failed")
			return
		}
		encAccess, err := crypto.Encrypt(tokens.AccessToken)
		if err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "failed to store credentials")
			return
		}
		encRefresh, err := crypto.Encrypt(tokens.RefreshToken)
		if err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "failed to store credentials")
			return
		}
		cfg.AccessToken = encAccess
		cfg.RefreshToken = encRefresh
		cfg.TokenExpiresAt = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
		if tokens.LocationID != "" {
			cfg.LocationID = tokens.LocationID
		}
		cfg.CompanyID = tokens.CompanyID
	}

	saved, err := h.Repository.Upsert(h.DB, &Integration{
		OrganizationID: orgID,
		Type:           TypeGoHighLevel,
		Config:         cfg,
		IsActive:       true,
	})
	if err != nil {
		h.Log.Errorw("upsert integration", "org", orgID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to save integration")
		return
	}

	utils.WriteJSON(w, http.StatusOK, toDTO(*saved))
}

// List handles GET /integrations.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	list, err := h.Repository.ListByOrganization(h.DB, orgID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to list integrations")
		return
	}
	dtos := make([]IntegrationDTO, 0, len(list))
	for _, in := range list {
		dtos = append(dtos, toDTO(in))
	}
	utils.WriteJSON(w, http.StatusOK, dtos)
}

// Disconnect handles DELETE /integrations/ghl. Soft-disable only; the row
// and its encrypted config stay for reconnection.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r)

	if err := h.Repository.Deactivate(h.DB, orgID, TypeGoHighLevel); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "integration not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to disconnect integration")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"disconnected": true})
}

// BuildClient resolves the org's active GHL connection into a ready client.
// Refreshed tokens are re-encrypted and persisted before any CRM result is
// returned to a caller.
func (h *Handler) BuildClient(orgID uint) (*ghl.Client, *Integration, error) {
	in, err := h.Repository.FindActive(h.DB, orgID, TypeGoHighLevel)
	if err != nil {
		return nil, nil, err
	}

	if in.Config.PIT != "" {
		pit, err := crypto.Decrypt(in.Config.PIT)
		if err != nil {
			return nil, nil, err
		}
		return ghl.NewPITClient(pit, in.Config.LocationID), in, nil
	}

	access, err := crypto.Decrypt(in.Config.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := crypto.Decrypt(in.Config.RefreshToken)
	if err != nil {
		return nil, nil, err
	}

	integrationID := in.ID
	cfg := in.Config
	client := ghl.NewClient(access, refresh, in.Config.LocationID, func(tokens ghl.Tokens) error {
		encAccess, err := crypto.Encrypt(tokens.AccessToken)
		if err != nil {
			return err
		}
		cfg.AccessToken = encAccess
		if tokens.RefreshToken != "" {
			encRefresh, err := crypto.Encrypt(tokens.RefreshToken)
			if err != nil {
				return err
			}
			cfg.RefreshToken = encRefresh
		}
		cfg.TokenExpiresAt = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
		return h.Repository.SaveConfig(h.DB, integrationID, cfg)
	})
	return client, in, nil
}

// writeCRMError maps client failures onto the contract the frontend knows.
func (h *Handler) writeCRMError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotConnected):
		utils.WriteError(w, http.StatusNotFound, "integration not connected")
	case errors.Is(err, ghl.ErrAuthExpired):
		utils.WriteError(w, http.StatusUnauthorized, "authentication failed, please reconnect")
	default:
		var apiErr *ghl.APIError
		if errors.As(err, &apiErr) {
			// PIT clients never refresh, so a CRM 401 reaches here as a
			// plain API error. Same reconnect contract as ErrAuthExpired.
			if apiErr.StatusCode == http.StatusUnauthorized {
				utils.WriteError(w, http.StatusUnauthorized, "authentication failed, please reconnect")
				return
			}
			utils.WriteError(w, http.StatusInternalServerError, apiErr.Message)
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "crm request failed")
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 100
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// Contacts handles GET /crm/contacts.
func (h *Handler) Contacts(w http.ResponseWriter, r *http.Request) {
	client, _, err := h.BuildClient(auth.OrgID(r))
	if err != nil {
		h.writeCRMError(w, err)
		return
	}
	limit, offset := pagination(r)
	contacts, err := client.ListContacts(r.Context(), limit, offset)
	if err != nil {
		h.writeCRMError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"contacts": contacts})
}

// Opportunities handles GET /crm/opportunities.
func (h *Handler) Opportunities(w http.ResponseWriter, r *http.Request) {
	client, _, err := h.BuildClient(auth.OrgID(r))
	if err != nil {
		h.writeCRMError(w, err)
		return
	}
	limit, offset := pagination(r)
	opps, err := client.ListOpportunities(r.Context(), limit, offset)
	if err != nil {
		h.writeCRMError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"opportunities": opps})
}

// Invoices handles GET /crm/invoices.
func (h *Handler) Invoices(w http.ResponseWriter, r *http.Request) {
	client, _, err := h.BuildClient(auth.OrgID(r))
	if err != nil {
		h.writeCRMError(w, err)
		return
	}
	limit, offset := pagination(r)
	invoices, err := client.ListInvoices(r.Context(), limit, offset)
	if err != nil {
		h.writeCRMError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"invoices": invoices})
}
