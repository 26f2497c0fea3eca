package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/qdsl/internal/ir"
)

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// ProgramRecord is a stored program.
type ProgramRecord struct {
	Hash      string
	Width     int
	IR        string
	IRVersion string
}

// Run is one recorded invocation.
type Run struct {
	ID           string          `json:"id"`
	ProgramHash  string          `json:"program_hash"`
	Source       string          `json:"source"`
	Backend      string          `json:"backend"`
	Seq          int64           `json:"seq"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	ToolVersion  string          `json:"tool_version"`
}

// WriteProgram stores p under its content hash and returns the hash.
// Writing the same program twice is a no-op.
func (s *Store) WriteProgram(ctx context.Context, p *ir.Program) (string, error) {
	data, err := ir.MarshalCanonical(p.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}
	hash, err := ir.ProgramHash(p)
	if err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO programs (hash, width, ir, ir_version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, p.Width, string(data), ir.IRVersion)
	if err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}
	return hash, nil
}

// ReadProgram returns the program stored under hash.
func (s *Store) ReadProgram(ctx context.Context, hash string) (ProgramRecord, error) {
	var rec ProgramRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, width, ir, ir_version FROM programs WHERE hash = ?
	`, hash).Scan(&rec.Hash, &rec.Width, &rec.IR, &rec.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return ProgramRecord{}, fmt.Errorf("program %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return ProgramRecord{}, fmt.Errorf("read program: %w", err)
	}
	return rec, nil
}

// RecordRun stores p (if new) and appends a run for it. The run's ID, seq
// and program hash are assigned here; runErr, when non-nil, is recorded
// with its error code instead of a result.
func (s *Store) RecordRun(ctx context.Context, p *ir.Program, source, backend string, result any, runErr error) (Run, error) {
	hash, err := s.WriteProgram(ctx, p)
	if err != nil {
		return Run{}, err
	}
	run := Run{
		ID:          s.ids.Generate(),
		ProgramHash: hash,
		Source:      source,
		Backend:     backend,
		Status:      StatusOK,
		ToolVersion: ir.ToolVersion,
	}
	if runErr != nil {
		run.Status = StatusError
		run.ErrorMessage = runErr.Error()
		run.ErrorCode = string(ir.CodeOf(runErr))
	} else {
		data, err := json.Marshal(result)
		if err != nil {
			return Run{}, fmt.Errorf("record run: marshal result: %w", err)
		}
		run.Result = data
	}
	if err := s.WriteRun(ctx, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// WriteRun appends run, assigning the next seq. The referenced program
// must already be stored.
func (s *Store) WriteRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return fmt.Errorf("write run: next seq: %w", err)
	}

	var result any
	if run.Result != nil {
		result = string(run.Result)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, program_hash, source, backend, seq, status, result, error_code, error_message, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.ProgramHash,
		run.Source,
		run.Backend,
		run.Seq,
		run.Status,
		result,
		run.ErrorCode,
		run.ErrorMessage,
		run.ToolVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs in seq order. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, program_hash, source, backend, seq, status, result, error_code, error_message, tool_version
		FROM (
			SELECT * FROM runs ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT ?
		)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	if limit <= 0 {
		limit = -1
	}
	return s.queryRuns(ctx, query, limit)
}

// RunsForProgram returns every run of the program with the given hash.
func (s *Store) RunsForProgram(ctx context.Context, hash string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT id, program_hash, source, backend, seq, status, result, error_code, error_message, tool_version
		FROM runs
		WHERE program_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, hash)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run    Run
			result sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.ProgramHash, &run.Source, &run.Backend, &run.Seq,
			&run.Status, &result, &run.ErrorCode, &run.ErrorMessage, &run.ToolVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if result.Valid {
			run.Result = json.RawMessage(result.String)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
