package workflow

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/opsforge/workflow-automation/internal/auth"
	"github.com/opsforge/workflow-automation/internal/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type upsertWorkflowRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Definition  *Definition `json:"definition"`
	IsActive    *bool       `json:"isActive"`
}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Engine     *Engine
	Log        *zap.SugaredLogger
}

func NewHandler(db *gorm.DB, log *zap.SugaredLogger) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Engine:     NewEngine(db, log),
		Log:        log,
	}
}

// Create handles POST /workflows.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		utils.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	wf := Workflow{
		OrganizationID: auth.OrgID(r),
		UserID:         auth.UserID(r),
		Name:           req.Name,
		Description:    req.Description,
		IsActive:       true,
	}
	if req.Definition != nil {
		wf.Definition = *req.Definition
	}
	if err := h.Repository.Save(h.DB, &wf); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to save workflow")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, wf)
}

// List handles GET /workflows.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repository.ListByUser(h.DB, auth.UserID(r))
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to list workflows")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"workflows": list})
}

// Get handles GET /workflows/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	wf, err := h.Repository.FindByID(h.DB, auth.UserID(r), uint(id))
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "workflow not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, wf)
}

// Update handles PUT /workflows/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	wf, err := h.Repository.FindByID(h.DB, auth.UserID(r), uint(id))
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "workflow not found")
		return
	}

	var req upsertWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name != "" {
		wf.Name = req.Name
	}
	wf.Description = req.Description
	if req.Definition != nil {
		wf.Definition = *req.Definition
	}
	if req.IsActive != nil {
		wf.IsActive = *req.IsActive
	}

	if err := h.Repository.Save(h.DB, wf); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to update workflow")
		return
	}
	utils.WriteJSON(w, http.StatusOK, wf)
}

// Delete handles DELETE /workflows/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repository.Delete(h.DB, auth.UserID(r), uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "workflow not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to delete workflow")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Execute handles POST /workflows/{id}/execute. The response carries the
// execution id only; state is read back via the executions routes.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r)
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	wf, err := h.Repository.FindByID(h.DB, userID, uint(id))
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "workflow not found")
		return
	}
	if !wf.IsActive {
		utils.WriteError(w, http.StatusBadRequest, "workflow is not active")
		return
	}

	var input map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&input)

	exec := Execution{
		ExecutionID: uuid.NewString(),
		WorkflowID:  wf.ID,
		UserID:      userID,
		Status:      StatusPending,
		Input:       input,
	}
	if err := h.Repository.SaveExecution(h.DB, &exec); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to create execution")
		return
	}

	h.Engine.Execute(r.Context(), wf, &exec)

	utils.WriteJSON(w, http.StatusOK, map[string]string{"executionId": exec.ExecutionID})
}

// ListExecutions handles GET /workflows/{id}/executions.
func (h *Handler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.Repository.ListExecutions(h.DB, auth.UserID(r), uint(id), limit)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to list executions")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"executions": list})
}

// GetExecution handles GET /executions/{executionId}.
func (h *Handler) GetExecution(w http.ResponseWriter, r *http.Request) {
	exec, err := h.Repository.FindExecution(h.DB, auth.UserID(r), mux.Vars(r)["executionId"])
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "execution not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, exec)
}
