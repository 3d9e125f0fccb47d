package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/organization"
	"github.com/opsforge/workflow-automation/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type signupRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	OrganizationName string `json:"organizationName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type inviteRequest struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Orgs       organization.Repository
	Log        *zap.SugaredLogger
}

func NewHandler(db *gorm.DB, log *zap.SugaredLogger) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Orgs:       organization.NewRepository(),
		Log:        log,
	}
}

// Signup creates the user, their organization, and the owner membership in
// one transaction.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Email == "" || req.Password == "" || req.OrganizationName == "" {
		utils.WriteError(w, http.StatusBadRequest, "email, password and organizationName are required")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to process password")
		return
	}

	u := User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	}
	org := organization.Organization{
		Name:               req.OrganizationName,
		Slug:               organization.Slugify(req.OrganizationName),
		SubscriptionPlan:   "free",
		SubscriptionStatus: organization.StatusTrialing,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		// Slug collisions get a numeric suffix keyed on the new user id.
		if _, err := h.Orgs.FindBySlug(tx, org.Slug); err == nil {
			org.Slug = fmt.Sprintf("%s-%d", org.Slug, u.ID)
		}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		return tx.Create(&organization.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         u.ID,
			Role:           organization.RoleOwner,
			IsActive:       true,
		}).Error
	})
	if err != nil {
		h.Log.Errorw("signup", "email", req.Email, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	token, err := auth.IssueTokensOnLogin(h.DB, w, u.ID, org.ID, true)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"token":        token,
		"user":         u,
		"organization": org,
	})
}

// Login verifies credentials and issues the token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	u, err := h.Repository.FindByEmail(h.DB, req.Email)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !utils.CheckPassword(u.PasswordHash, req.Password) {
		utils.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	membership, err := h.activeMembership(u.ID)
	if err != nil {
		utils.WriteError(w, http.StatusForbidden, "no active organization membership")
		return
	}
	isAdmin := membership.Role == organization.RoleOwner || membership.Role == organization.RoleAdmin

	token, err := auth.IssueTokensOnLogin(h.DB, w, u.ID, membership.OrganizationID, isAdmin)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":              token,
		"user":               u,
		"organizationId":     membership.OrganizationID,
		"needsPasswordReset": u.NeedsPasswordReset,
	})
}

// InviteMember handles POST /organizations/{id}/members (admin only). An
// unknown email gets a new account with a temporary password that must be
// changed on first login; a previously removed member is reactivated.
func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || uint(orgID) != auth.OrgID(r) {
		utils.WriteError(w, http.StatusForbidden, "access denied")
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		utils.WriteError(w, http.StatusBadRequest, "email is required")
		return
	}
	if req.Role == "" {
		req.Role = organization.RoleMember
	}
	switch req.Role {
	case organization.RoleOwner, organization.RoleAdmin, organization.RoleMember:
	default:
		utils.WriteError(w, http.StatusBadRequest, "unknown role")
		return
	}

	resp := map[string]interface{}{"role": req.Role}

	u, err := h.Repository.FindByEmail(h.DB, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tempPassword, err := utils.GenerateTemporaryPassword()
		if err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "failed to create account")
			return
		}
		hash, err := utils.HashPassword(tempPassword)
		if err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "failed to create account")
			return
		}
		u = &User{
			Email:              req.Email,
			FirstName:          req.FirstName,
			LastName:           req.LastName,
			PasswordHash:       hash,
			NeedsPasswordReset: true,
		}
		if err := h.DB.Create(u).Error; err != nil {
			h.Log.Errorw("invite member", "email", req.Email, "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to create account")
			return
		}
		// No mailer; the inviter relays the credential.
		resp["temporaryPassword"] = tempPassword
	} else if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}

	member, err := h.Orgs.FindMember(h.DB, uint(orgID), u.ID)
	switch {
	case err == nil && member.IsActive:
		utils.WriteError(w, http.StatusConflict, "already a member")
		return
	case err == nil:
		if err := h.Orgs.ReactivateMember(h.DB, uint(orgID), u.ID, req.Role); err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "failed to add member")
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := h.Orgs.AddMember(h.DB, &organization.OrganizationMember{
			OrganizationID: uint(orgID),
			UserID:         u.ID,
			Role:           req.Role,
			IsActive:       true,
		}); err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "failed to add member")
			return
		}
	default:
		utils.WriteError(w, http.StatusInternalServerError, "failed to add member")
		return
	}

	resp["user"] = u
	utils.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) activeMembership(userID uint) (*organization.OrganizationMember, error) {
	var m organization.OrganizationMember
	err := h.DB.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &m, err
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Repository.FindByID(h.DB, auth.UserID(r))
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}
