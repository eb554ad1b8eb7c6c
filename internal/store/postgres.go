package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres persists runs in a single solve_runs table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the schema if it is missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS solve_runs (
    id            UUID PRIMARY KEY,
    instance_name TEXT NOT NULL,
    algorithm     TEXT NOT NULL,
    seed          BIGINT NOT NULL,
    status        TEXT NOT NULL,
    cost          DOUBLE PRECISION NOT NULL DEFAULT 0,
    feasible      BOOLEAN NOT NULL DEFAULT FALSE,
    iterations    INTEGER NOT NULL DEFAULT 0,
    cooling_steps INTEGER NOT NULL DEFAULT 0,
    duration_ms   BIGINT NOT NULL DEFAULT 0,
    sequence      JSONB,
    last_error    TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
)`)
	return err
}

func (p *Postgres) CreateRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now
	if run.Status == "" {
		run.Status = StatusRunning
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO solve_runs
        (id, instance_name, algorithm, seed, status, cost, feasible, iterations, cooling_steps, duration_ms, sequence, last_error, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		run.ID, run.InstanceName, run.Algorithm, run.Seed, run.Status, run.Cost, run.Feasible,
		run.Iterations, run.CoolingSteps, run.DurationMs, toJSON(run.Sequence), run.Error, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (p *Postgres) UpdateRun(ctx context.Context, run Run) error {
	res, err := p.db.ExecContext(ctx, `UPDATE solve_runs SET
        status=$2, cost=$3, feasible=$4, iterations=$5, cooling_steps=$6,
        duration_ms=$7, sequence=$8, last_error=$9, updated_at=$10
        WHERE id=$1`,
		run.ID, run.Status, run.Cost, run.Feasible, run.Iterations, run.CoolingSteps,
		run.DurationMs, toJSON(run.Sequence), run.Error, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetRun(ctx context.Context, id string) (Run, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id::text, instance_name, algorithm, seed, status, cost, feasible,
        iterations, cooling_steps, duration_ms, sequence, last_error, created_at, updated_at
        FROM solve_runs WHERE id=$1`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

func (p *Postgres) ListRuns(ctx context.Context, cursor string, limit int) ([]Run, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, instance_name, algorithm, seed, status, cost, feasible,
            iterations, cooling_steps, duration_ms, sequence, last_error, created_at, updated_at
            FROM solve_runs WHERE id::text > $1 ORDER BY id LIMIT $2`, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, instance_name, algorithm, seed, status, cost, feasible,
            iterations, cooling_steps, duration_ms, sequence, last_error, created_at, updated_at
            FROM solve_runs ORDER BY id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	var next string
	if len(out) == limit && len(out) > 0 {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (Run, error) {
	var run Run
	var seq []byte
	err := r.Scan(&run.ID, &run.InstanceName, &run.Algorithm, &run.Seed, &run.Status, &run.Cost, &run.Feasible,
		&run.Iterations, &run.CoolingSteps, &run.DurationMs, &seq, &run.Error, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return Run{}, err
	}
	if len(seq) > 0 {
		_ = json.Unmarshal(seq, &run.Sequence)
	}
	return run, nil
}

func toJSON(v any) any {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
