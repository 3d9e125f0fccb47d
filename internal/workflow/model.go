package workflow

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Node is one step of the definition graph.
type Node struct {
	ID     string                 `json:"id"`
	Type   string                 `json:"type"` // trigger | delay | webhook | log
	Config map[string]interface{} `json:"config,omitempty"`
}

// Edge connects two nodes, from → to.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Definition is the user-authored automation graph.
type Definition struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Workflow is a user-authored automation, scoped by its owner.
type Workflow struct {
	gorm.Model
	OrganizationID uint       `gorm:"not null;index" json:"organizationId"`
	UserID         uint       `gorm:"not null;index" json:"userId"`
	Name           string     `gorm:"not null" json:"name"`
	Description    string     `json:"description"`
	Definition     Definition `gorm:"type:jsonb;serializer:json" json:"definition"`
	IsActive       bool       `gorm:"not null;default:true" json:"isActive"`
}

// Execution is one run record. ExecutionID is the externally visible uuid;
// the execute route returns nothing else.
type Execution struct {
	gorm.Model
	ExecutionID string                 `gorm:"size:36;uniqueIndex;not null" json:"executionId"`
	WorkflowID  uint                   `gorm:"not null;index" json:"workflowId"`
	UserID      uint                   `gorm:"not null;index" json:"userId"`
	Status      string                 `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Input       map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"input"`
	Output      map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"output"`
	Error       string                 `json:"error,omitempty"`
	StartedAt   *time.Time             `json:"startedAt"`
	FinishedAt  *time.Time             `json:"finishedAt"`
}
