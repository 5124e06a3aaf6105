package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/diagnostics"
)

const schema = `
CREATE TABLE IF NOT EXISTS multicast_runs (
	id VARCHAR(36) PRIMARY KEY,
	assembly VARCHAR(255) NOT NULL,
	module VARCHAR(255) NOT NULL,
	started_at BIGINT NOT NULL,
	bindings INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	warnings INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS multicast_bindings (
	run_id VARCHAR(36) NOT NULL,
	seq INTEGER NOT NULL,
	target TEXT NOT NULL,
	kind VARCHAR(32) NOT NULL,
	annotation TEXT NOT NULL,
	text TEXT NOT NULL,
	instance_id BIGINT NOT NULL,
	priority BIGINT NOT NULL,
	inherited BOOLEAN NOT NULL,
	declared_on TEXT NOT NULL,
	storage VARCHAR(16) NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_multicast_bindings_target
ON multicast_bindings(run_id, target);

CREATE TABLE IF NOT EXISTS multicast_diagnostics (
	run_id VARCHAR(36) NOT NULL,
	seq INTEGER NOT NULL,
	code VARCHAR(16) NOT NULL,
	severity VARCHAR(16) NOT NULL,
	category VARCHAR(32) NOT NULL,
	annotation_type TEXT NOT NULL,
	declaration TEXT NOT NULL,
	message TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// SQLStore keeps runs in a relational database
type SQLStore struct {
	db *sql.DB
}

// OpenSQL opens a database with the sqlite3 or pgx driver and ensures the
// schema exists
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	s := NewSQLStore(db)
	if err := s.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Initialize creates the tables if they do not exist
func (s *SQLStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize store tables: %w", err)
	}
	return nil
}

// SaveRun writes a snapshot in one transaction
func (s *SQLStore) SaveRun(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	r := snap.Run
	_, err = tx.ExecContext(ctx, `
INSERT INTO multicast_runs (id, assembly, module, started_at, bindings, errors, warnings)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, r.ID.String(), r.Assembly, r.Module, r.StartedAt.UnixNano(), r.Bindings, r.Errors, r.Warnings)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for i, b := range snap.Bindings {
		_, err := tx.ExecContext(ctx, `
INSERT INTO multicast_bindings (run_id, seq, target, kind, annotation, text, instance_id, priority, inherited, declared_on, storage)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`, r.ID.String(), i, b.Target, b.Kind, b.Annotation, b.Text, b.InstanceID, b.Priority, b.Inherited, b.DeclaredOn, b.Storage)
		if err != nil {
			return fmt.Errorf("failed to record binding on %s: %w", b.Target, err)
		}
	}

	for i, d := range snap.Diagnostics {
		_, err := tx.ExecContext(ctx, `
INSERT INTO multicast_diagnostics (run_id, seq, code, severity, category, annotation_type, declaration, message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, r.ID.String(), i, string(d.Code), string(d.Severity), string(d.Category), d.AnnotationType, d.Declaration, d.Message)
		if err != nil {
			return fmt.Errorf("failed to record diagnostic %s: %w", d.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns every run, most recent first
func (s *SQLStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, assembly, module, started_at, bindings, errors, warnings
FROM multicast_runs
ORDER BY started_at DESC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r       Run
		id      string
		started int64
	)
	if err := row.Scan(&id, &r.Assembly, &r.Module, &started, &r.Bindings, &r.Errors, &r.Warnings); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	r.ID = parsed
	r.StartedAt = time.Unix(0, started).UTC()
	return &r, nil
}

// GetRun returns a run with its bindings and diagnostics
func (s *SQLStore) GetRun(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, assembly, module, started_at, bindings, errors, warnings
FROM multicast_runs
WHERE id = $1
`, id.String())
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	snap := &Snapshot{Run: *r}
	if snap.Bindings, err = s.FindBindings(ctx, id, ""); err != nil {
		return nil, err
	}
	if snap.Diagnostics, err = s.diagnostics(ctx, id); err != nil {
		return nil, err
	}
	return snap, nil
}

// FindBindings returns the bindings of a run in resolution order
func (s *SQLStore) FindBindings(ctx context.Context, id uuid.UUID, target string) ([]BindingRecord, error) {
	query := `
SELECT target, kind, annotation, text, instance_id, priority, inherited, declared_on, storage
FROM multicast_bindings
WHERE run_id = $1`
	args := []any{id.String()}
	if target != "" {
		query += " AND target = $2"
		args = append(args, target)
	}
	query += " ORDER BY seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bindings: %w", err)
	}
	defer rows.Close()

	var out []BindingRecord
	for rows.Next() {
		var b BindingRecord
		if err := rows.Scan(&b.Target, &b.Kind, &b.Annotation, &b.Text, &b.InstanceID, &b.Priority, &b.Inherited, &b.DeclaredOn, &b.Storage); err != nil {
			return nil, fmt.Errorf("failed to scan binding: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bindings: %w", err)
	}

	if len(out) == 0 {
		var n int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM multicast_runs WHERE id = $1", id.String()).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("failed to check run: %w", err)
		}
		if n == 0 {
			return nil, ErrNotFound
		}
	}
	return out, nil
}

func (s *SQLStore) diagnostics(ctx context.Context, id uuid.UUID) ([]*diagnostics.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT code, severity, category, annotation_type, declaration, message
FROM multicast_diagnostics
WHERE run_id = $1
ORDER BY seq ASC
`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []*diagnostics.Diagnostic
	for rows.Next() {
		var code, severity, category string
		d := &diagnostics.Diagnostic{}
		if err := rows.Scan(&code, &severity, &category, &d.AnnotationType, &d.Declaration, &d.Message); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		d.Code = diagnostics.Code(code)
		d.Severity = diagnostics.Severity(severity)
		d.Category = diagnostics.Category(category)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating diagnostics: %w", err)
	}
	return out, nil
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
