package organization

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

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

// orgFromPath enforces tenant isolation: the path id must match the token's
// organization.
func orgFromPath(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, false
	}
	return uint(id), uint(id) == auth.OrgID(r)
}

// Get handles GET /organizations/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orgFromPath(r)
	if !ok {
		utils.WriteError(w, http.StatusForbidden, "access denied")
		return
	}
	org, err := h.Repository.FindByID(h.DB, id)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "organization not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, org)
}

// Update handles PUT /organizations/{id} (admin only; name change re-slugs).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := orgFromPath(r)
	if !ok {
		utils.WriteError(w, http.StatusForbidden, "access denied")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		utils.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	org, err := h.Repository.FindByID(h.DB, id)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "organization not found")
		return
	}
	org.Name = req.Name
	slug := Slugify(req.Name)
	// Same suffixing as signup: a slug held by another org gets the id
	// appended instead of tripping the unique index.
	if existing, err := h.Repository.FindBySlug(h.DB, slug); err == nil && existing.ID != org.ID {
		slug = fmt.Sprintf("%s-%d", slug, org.ID)
	}
	org.Slug = slug
	if err := h.Repository.Save(h.DB, org); err != nil {
		h.Log.Errorw("update organization", "org", id, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to update organization")
		return
	}
	utils.WriteJSON(w, http.StatusOK, org)
}

// UpdateSubscription handles PUT /organizations/{id}/subscription. Stand-in
// for the billing webhook writer.
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := orgFromPath(r)
	if !ok {
		utils.WriteError(w, http.StatusForbidden, "access denied")
		return
	}

	var req struct {
		Plan   string `json:"plan"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	switch req.Status {
	case "", StatusTrialing, StatusActive, StatusPastDue, StatusCanceled:
	default:
		utils.WriteError(w, http.StatusBadRequest, "unknown subscription status")
		return
	}

	if err := h.Repository.UpdateSubscription(h.DB, id, req.Plan, req.Status); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to update subscription")
		return
	}
	org, err := h.Repository.FindByID(h.DB, id)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "organization not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, org)
}

// ListMembers handles GET /organizations/{id}/members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := orgFromPath(r)
	if !ok {
		utils.WriteError(w, http.StatusForbidden, "access denied")
		return
	}
	members, err := h.Repository.ListMembers(h.DB, id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	utils.WriteJSON(w, http.StatusOK, members)
}

// UpdateMemberRole handles PUT /organizations/{id}/members/{userId}.
func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	id, ok := orgFromPath(r)
	if !ok {
		utils.WriteError(w, http.StatusForbidden, "access denied")
		return
	}
	userID, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	switch req.Role {
	case RoleOwner, RoleAdmin, RoleMember:
	default:
		utils.WriteError(w, http.StatusBadRequest, "unknown role")
		return
	}

	if err := h.Repository.UpdateMemberRole(h.DB, id, uint(userID), req.Role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "member not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// DeactivateMember handles DELETE /organizations/{id}/members/{userId}.
// Soft removal only.
func (h *Handler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := orgFromPath(r)
	if !ok {
		utils.WriteError(w, http.StatusForbidden, "access denied")
		return
	}
	userID, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.Repository.DeactivateMember(h.DB, id, uint(userID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "member not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"removed": true})
}
