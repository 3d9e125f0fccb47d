package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Delay nodes are capped so a bad definition cannot hold a request open.
const maxNodeDelay = 30 * time.Second

// Engine runs a workflow definition sequentially from its trigger node.
// Every run leaves an Execution row in a terminal state; engine failures
// are recorded, never panicked.
type Engine struct {
	DB         *gorm.DB
	Repository Repository
	Log        *zap.SugaredLogger
	HTTPClient *http.Client
}

func NewEngine(db *gorm.DB, log *zap.SugaredLogger) *Engine {
	return &Engine{
		DB:         db,
		Repository: NewRepository(),
		Log:        log,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Execute runs the workflow and records the outcome on the execution row.
func (e *Engine) Execute(ctx context.Context, wf *Workflow, exec *Execution) {
	now := time.Now()
	exec.Status = StatusRunning
	exec.StartedAt = &now
	if err := e.Repository.SaveExecution(e.DB, exec); err != nil {
		e.Log.Errorw("save execution", "execution", exec.ExecutionID, "error", err)
		return
	}

	output, err := e.traverse(ctx, wf.Definition, exec.Input)
	finished := time.Now()
	exec.FinishedAt = &finished
	if err != nil {
		exec.Status = StatusFailed
		exec.Error = err.Error()
		e.Log.Warnw("workflow execution failed",
			"workflow", wf.ID, "execution", exec.ExecutionID, "error", err)
	} else {
		exec.Status = StatusCompleted
		exec.Output = output
	}
	if err := e.Repository.SaveExecution(e.DB, exec); err != nil {
		e.Log.Errorw("save execution result", "execution", exec.ExecutionID, "error", err)
	}
}

// traverse walks the graph from the trigger node, following at most one
// outgoing edge per node. Cycles are cut off by the visited set.
func (e *Engine) traverse(ctx context.Context, def Definition, input map[string]interface{}) (map[string]interface{}, error) {
	nodes := make(map[string]Node, len(def.Nodes))
	next := make(map[string]string, len(def.Edges))
	for _, n := range def.Nodes {
		nodes[n.ID] = n
	}
	for _, edge := range def.Edges {
		next[edge.From] = edge.To
	}

	var start string
	for _, n := range def.Nodes {
		if n.Type == "trigger" {
			start = n.ID
			break
		}
	}
	if start == "" {
		return nil, fmt.Errorf("definition has no trigger node")
	}

	payload := map[string]interface{}{}
	for k, v := range input {
		payload[k] = v
	}

	visited := make(map[string]bool)
	steps := []string{}
	for id := start; id != ""; id = next[id] {
		if visited[id] {
			return nil, fmt.Errorf("cycle detected at node %q", id)
		}
		visited[id] = true

		node, ok := nodes[id]
		if !ok {
			return nil, fmt.Errorf("edge points to unknown node %q", id)
		}
		if err := e.runNode(ctx, node, payload); err != nil {
			return nil, fmt.Errorf("node %q: %w", id, err)
		}
		steps = append(steps, id)
	}

	payload["steps"] = steps
	return payload, nil
}

func (e *Engine) runNode(ctx context.Context, n Node, payload map[string]interface{}) error {
	switch n.Type {
	case "trigger":
		return nil
	case "log":
		e.Log.Infow("workflow log node", "node", n.ID, "message", n.Config["message"])
		return nil
	case "delay":
		return e.runDelay(ctx, n)
	case "webhook":
		return e.runWebhook(ctx, n, payload)
	default:
		return fmt.Errorf("unknown node type %q", n.Type)
	}
}

func (e *Engine) runDelay(ctx context.Context, n Node) error {
	seconds, _ := n.Config["seconds"].(float64)
	d := time.Duration(seconds * float64(time.Second))
	if d < 0 {
		d = 0
	}
	if d > maxNodeDelay {
		d = maxNodeDelay
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) runWebhook(ctx context.Context, n Node, payload map[string]interface{}) error {
	url, _ := n.Config["url"].(string)
	if url == "" {
		return fmt.Errorf("webhook node missing url")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
