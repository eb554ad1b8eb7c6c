package store

import (
	"context"
	"errors"
	"time"
)

// Run is one solve execution: which instance, which algorithm, how it was
// seeded, and what came out. Sequence holds the final tour encoding as node
// names; only the final solution is persisted, never the search history.
type Run struct {
	ID           string    `json:"id"`
	InstanceName string    `json:"instanceName"`
	Algorithm    string    `json:"algorithm"`
	Seed         int64     `json:"seed"`
	Status       string    `json:"status"`
	Cost         float64   `json:"cost"`
	Feasible     bool      `json:"feasible"`
	Iterations   int       `json:"iterations"`
	CoolingSteps int       `json:"coolingSteps"`
	DurationMs   int64     `json:"durationMs"`
	Sequence     []string  `json:"sequence,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Algorithms recorded on runs. Baseline results produced by external exact
// solvers share the store under their own discriminator.
const (
	AlgGreedy = "greedy"
	AlgAnneal = "anneal"
)

// Store persists solve runs.
type Store interface {
	CreateRun(ctx context.Context, run Run) (Run, error)
	UpdateRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, cursor string, limit int) ([]Run, string, error)
}

var ErrNotFound = errors.New("not found")
