// Package store persists resolution runs so that their bindings can be
// queried after the fact.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/diagnostics"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/multicast"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("run not found")

// Run summarizes one resolution of one module
type Run struct {
	ID        uuid.UUID `json:"id"`
	Assembly  string    `json:"assembly"`
	Module    string    `json:"module"`
	StartedAt time.Time `json:"started_at"`
	Bindings  int       `json:"bindings"`
	Errors    int       `json:"errors"`
	Warnings  int       `json:"warnings"`
}

// BindingRecord is a final binding flattened to strings
type BindingRecord struct {
	Target     string `json:"target"`
	Kind       string `json:"kind"`
	Annotation string `json:"annotation"`
	Text       string `json:"text"`
	InstanceID int64  `json:"instance_id"`
	Priority   int64  `json:"priority"`
	Inherited  bool   `json:"inherited"`
	DeclaredOn string `json:"declared_on"`
	Storage    string `json:"storage"`
}

// Snapshot is a run with its bindings and diagnostics
type Snapshot struct {
	Run         Run              `json:"run"`
	Bindings    []BindingRecord  `json:"bindings"`
	Diagnostics diagnostics.List `json:"diagnostics"`
}

// Store persists snapshots
type Store interface {
	SaveRun(ctx context.Context, s *Snapshot) error
	// ListRuns returns the runs, most recent first
	ListRuns(ctx context.Context) ([]Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	// FindBindings returns the bindings of a run, restricted to one target
	// declaration id unless target is empty
	FindBindings(ctx context.Context, id uuid.UUID, target string) ([]BindingRecord, error)
	Close() error
}

// FromResult flattens a resolution result
func FromResult(res *multicast.Result, startedAt time.Time) *Snapshot {
	s := &Snapshot{
		Run: Run{
			ID:        res.RunID,
			Module:    res.Module.Name(),
			StartedAt: startedAt.UTC(),
			Bindings:  res.Len(),
		},
		Diagnostics: res.Diagnostics,
	}
	if asm := res.Module.Assembly(); asm != nil {
		s.Run.Assembly = asm.Name()
	}
	s.Run.Errors, s.Run.Warnings, _ = res.Diagnostics.ErrorCount()

	for _, b := range res.All() {
		s.Bindings = append(s.Bindings, BindingRecord{
			Target:     b.Target.ID(),
			Kind:       b.Target.Kind().String(),
			Annotation: b.Annotation.Type.Name(),
			Text:       b.Annotation.String(),
			InstanceID: b.InstanceID,
			Priority:   b.Priority,
			Inherited:  b.Inherited,
			DeclaredOn: b.DeclaredOn.ID(),
			Storage:    b.Storage.String(),
		})
	}
	return s
}

// Config selects and configures a backend
type Config struct {
	// Driver is sqlite3, pgx or redis
	Driver string `mapstructure:"driver"`
	// DSN is the database source name, or the redis address
	DSN string `mapstructure:"dsn"`
	// Prefix namespaces redis keys
	Prefix string `mapstructure:"prefix"`
}

// Open opens the configured backend
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "sqlite3", "pgx":
		return OpenSQL(ctx, cfg.Driver, cfg.DSN)
	case "redis":
		return OpenRedis(ctx, cfg.DSN, cfg.Prefix)
	case "":
		return nil, fmt.Errorf("no store driver configured")
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
