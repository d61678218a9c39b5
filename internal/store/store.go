// Package store persists validated address points between the ingest and
// build stages.
package store

import (
	"context"
	"time"

	"github.com/psc-mapa/psc-cli/internal/pointset"
)

// RunStatus tracks an ingest run's lifecycle.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// IngestRun records one ingest invocation and its row counts.
type IngestRun struct {
	ID         string
	Source     string
	Status     RunStatus
	Accepted   int
	Rejected   int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Stats summarizes the point store for the status command.
type Stats struct {
	Points  int
	Codes   int
	MinLon  float64
	MinLat  float64
	MaxLon  float64
	MaxLat  float64
	LastRun *IngestRun
}

// Store is the point persistence contract.
type Store interface {
	Migrate(ctx context.Context) error
	BeginRun(ctx context.Context, source string) (*IngestRun, error)
	CompleteRun(ctx context.Context, runID string, accepted, rejected int) error
	FailRun(ctx context.Context, runID, reason string) error
	InsertPoints(ctx context.Context, runID string, pts []pointset.Point) error
	LoadPoints(ctx context.Context) ([]pointset.Point, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}
