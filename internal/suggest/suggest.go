// Package suggest turns a free-text description into a task-creation
// payload. A remote inference model is tried first when configured; a
// deterministic local generator covers every failure so a payload is always
// produced. The generator never persists anything itself.
package suggest

import "context"

// Payload is the task shape both generation paths produce. It feeds the task
// engine's create operation unchanged.
type Payload struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority"`
	EstimatedTime int      `json:"estimated_time"`
	Tags          []string `json:"tags"`
}

// Source generates a task payload from a description.
type Source interface {
	Generate(ctx context.Context, description string) (Payload, error)
}
