package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opsforge/workflow-automation/internal/auth"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&Workflow{}, &Execution{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func runDefinition(t *testing.T, db *gorm.DB, def Definition, input map[string]interface{}) *Execution {
	t.Helper()
	engine := NewEngine(db, zap.NewNop().Sugar())

	wf := Workflow{OrganizationID: 1, UserID: 1, Name: "wf", Definition: def, IsActive: true}
	if err := NewRepository().Save(db, &wf); err != nil {
		t.Fatalf("save workflow: %v", err)
	}
	exec := Execution{ExecutionID: uuid.NewString(), WorkflowID: wf.ID, UserID: 1, Status: StatusPending, Input: input}
	if err := NewRepository().SaveExecution(db, &exec); err != nil {
		t.Fatalf("save execution: %v", err)
	}

	engine.Execute(context.Background(), &wf, &exec)

	got, err := NewRepository().FindExecution(db, 1, exec.ExecutionID)
	if err != nil {
		t.Fatalf("reload execution: %v", err)
	}
	return got
}

func TestEngineCompletesLinearGraph(t *testing.T) {
	db := testDB(t)

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("webhook payload: %v", err)
		}
		if payload["lead"] != "l-1" {
			t.Fatalf("payload = %+v", payload)
		}
	}))
	defer srv.Close()

	def := Definition{
		Nodes: []Node{
			{ID: "t", Type: "trigger"},
			{ID: "n1", Type: "log", Config: map[string]interface{}{"message": "hi"}},
			{ID: "n2", Type: "webhook", Config: map[string]interface{}{"url": srv.URL}},
		},
		Edges: []Edge{{From: "t", To: "n1"}, {From: "n1", To: "n2"}},
	}

	got := runDefinition(t, db, def, map[string]interface{}{"lead": "l-1"})
	if got.Status != StatusCompleted {
		t.Fatalf("status = %q, error = %q", got.Status, got.Error)
	}
	if hits != 1 {
		t.Fatalf("webhook hits = %d", hits)
	}
	if got.StartedAt == nil || got.FinishedAt == nil {
		t.Fatalf("timestamps not recorded: %+v", got)
	}
}

func TestEngineFailsOnUnknownNodeType(t *testing.T) {
	db := testDB(t)

	def := Definition{
		Nodes: []Node{
			{ID: "t", Type: "trigger"},
			{ID: "x", Type: "teleport"},
		},
		Edges: []Edge{{From: "t", To: "x"}},
	}

	got := runDefinition(t, db, def, nil)
	if got.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if !strings.Contains(got.Error, "unknown node type") {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestEngineFailsWithoutTrigger(t *testing.T) {
	db := testDB(t)

	def := Definition{Nodes: []Node{{ID: "n1", Type: "log"}}}
	got := runDefinition(t, db, def, nil)
	if got.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
}

func TestEngineDetectsCycle(t *testing.T) {
	db := testDB(t)

	def := Definition{
		Nodes: []Node{
			{ID: "t", Type: "trigger"},
			{ID: "a", Type: "log"},
		},
		Edges: []Edge{{From: "t", To: "a"}, {From: "a", To: "t"}},
	}

	got := runDefinition(t, db, def, nil)
	if got.Status != StatusFailed || !strings.Contains(got.Error, "cycle") {
		t.Fatalf("status = %q, error = %q", got.Status, got.Error)
	}
}

func TestExecuteRouteReturnsExecutionIDOnly(t *testing.T) {
	db := testDB(t)
	h := NewHandler(db, zap.NewNop().Sugar())

	wf := Workflow{
		OrganizationID: 1, UserID: 5, Name: "wf", IsActive: true,
		Definition: Definition{Nodes: []Node{{ID: "t", Type: "trigger"}}},
	}
	if err := h.Repository.Save(db, &wf); err != nil {
		t.Fatalf("save: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/workflows/1/execute", strings.NewReader(`{"k":"v"}`))
	ctx := context.WithValue(req.Context(), auth.UserIDKey, uint(5))
	ctx = context.WithValue(ctx, auth.OrgIDKey, uint(1))
	req = mux.SetURLVars(req.WithContext(ctx), map[string]string{"id": "1"})

	rec := httptest.NewRecorder()
	h.Execute(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["executionId"] == "" {
		t.Fatalf("executionId missing: %v", body)
	}
	if len(body) != 1 {
		t.Fatalf("response must carry the execution id only: %v", body)
	}
}
