package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/events"
)

// PostgresStorage implements Storage using Postgres. It mirrors the
// SQLite layout: full state as JSONB plus scalar listing columns.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects a pooled Postgres storage instance.
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// Initialize creates the database schema.
func (s *PostgresStorage) Initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS debates (
		thread_id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		phase TEXT NOT NULL,
		debate_mode TEXT NOT NULL,
		rounds INTEGER NOT NULL DEFAULT 0,
		panel_size INTEGER NOT NULL DEFAULT 0,
		consensus BOOLEAN NOT NULL DEFAULT FALSE,
		state_json JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS debate_events (
		thread_id TEXT NOT NULL REFERENCES debates(thread_id) ON DELETE CASCADE,
		seq BIGINT NOT NULL,
		type TEXT NOT NULL,
		data_json JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (thread_id, seq)
	);

	CREATE TABLE IF NOT EXISTS argument_units (
		id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL REFERENCES debates(thread_id) ON DELETE CASCADE,
		panelist TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT NOT NULL,
		round INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stances (
		thread_id TEXT NOT NULL REFERENCES debates(thread_id) ON DELETE CASCADE,
		round INTEGER NOT NULL,
		panelist TEXT NOT NULL,
		label TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		core_claim TEXT,
		evidence_strength DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (thread_id, round, panelist)
	);

	CREATE INDEX IF NOT EXISTS idx_argument_units_thread ON argument_units(thread_id, round);
	CREATE INDEX IF NOT EXISTS idx_debates_phase ON debates(phase);
	CREATE INDEX IF NOT EXISTS idx_debates_created_at ON debates(created_at DESC);
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the connection pool.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

// SaveState upserts the full debate state.
func (s *PostgresStorage) SaveState(ctx context.Context, state *core.DebateState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
	INSERT INTO debates (thread_id, topic, phase, debate_mode, rounds, panel_size, consensus, state_json, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (thread_id)
	DO UPDATE SET
		topic = EXCLUDED.topic,
		phase = EXCLUDED.phase,
		debate_mode = EXCLUDED.debate_mode,
		rounds = EXCLUDED.rounds,
		panel_size = EXCLUDED.panel_size,
		consensus = EXCLUDED.consensus,
		state_json = EXCLUDED.state_json,
		updated_at = EXCLUDED.updated_at
	`

	_, err = s.pool.Exec(ctx, query,
		state.ThreadID,
		state.Topic,
		state.Phase,
		state.DebateMode,
		state.DebateRoundNum,
		len(state.Panel),
		state.ConsensusReached,
		stateJSON,
		state.CreatedAt,
		state.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

// LoadState retrieves a debate state by thread ID.
func (s *PostgresStorage) LoadState(ctx context.Context, threadID string) (*core.DebateState, error) {
	var stateJSON []byte

	err := s.pool.QueryRow(ctx,
		"SELECT state_json FROM debates WHERE thread_id = $1", threadID,
	).Scan(&stateJSON)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state core.DebateState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fmt.Errorf("thread %s: %w: %v", threadID, ErrCorrupt, err)
	}

	return &state, nil
}

// DeleteState removes a debate and its event log.
func (s *PostgresStorage) DeleteState(ctx context.Context, threadID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM debates WHERE thread_id = $1", threadID)
	if err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	return nil
}

// ListStates returns debate summaries, newest first.
func (s *PostgresStorage) ListStates(ctx context.Context, limit, offset int) ([]*core.DebateSummary, error) {
	query := `
	SELECT thread_id, topic, phase, debate_mode, rounds, panel_size, consensus, created_at, updated_at
	FROM debates
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	var summaries []*core.DebateSummary
	for rows.Next() {
		var summary core.DebateSummary
		err := rows.Scan(
			&summary.ThreadID,
			&summary.Topic,
			&summary.Phase,
			&summary.DebateMode,
			&summary.Rounds,
			&summary.PanelSize,
			&summary.ConsensusReached,
			&summary.CreatedAt,
			&summary.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, &summary)
	}

	return summaries, rows.Err()
}

// AppendEvents appends events to a thread's event log.
func (s *PostgresStorage) AppendEvents(ctx context.Context, threadID string, evs []events.Event) error {
	if len(evs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO debate_events (thread_id, seq, type, data_json, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`

	for _, ev := range evs {
		var dataJSON []byte
		if ev.Data != nil {
			dataJSON, err = json.Marshal(ev.Data)
			if err != nil {
				return fmt.Errorf("failed to marshal event data: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, query, threadID, ev.Seq, ev.Type, dataJSON, ev.Timestamp); err != nil {
			return fmt.Errorf("failed to insert event %d: %w", ev.Seq, err)
		}
	}

	return tx.Commit(ctx)
}

// SaveArgumentUnits stores extracted argument units for a thread.
func (s *PostgresStorage) SaveArgumentUnits(ctx context.Context, threadID string, units []core.ArgumentUnit) error {
	if len(units) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO argument_units (id, thread_id, panelist, kind, text, round)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
	`

	for _, unit := range units {
		if _, err := tx.Exec(ctx, query, unit.ID, threadID, unit.Panelist, unit.Kind, unit.Text, unit.Round); err != nil {
			return fmt.Errorf("failed to insert argument unit: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListArgumentUnits returns all argument units for a thread in round order.
func (s *PostgresStorage) ListArgumentUnits(ctx context.Context, threadID string) ([]core.ArgumentUnit, error) {
	query := `
	SELECT id, panelist, kind, text, round
	FROM argument_units
	WHERE thread_id = $1
	ORDER BY round ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list argument units: %w", err)
	}
	defer rows.Close()

	var units []core.ArgumentUnit
	for rows.Next() {
		var unit core.ArgumentUnit
		if err := rows.Scan(&unit.ID, &unit.Panelist, &unit.Kind, &unit.Text, &unit.Round); err != nil {
			return nil, fmt.Errorf("failed to scan argument unit: %w", err)
		}
		units = append(units, unit)
	}

	return units, rows.Err()
}

// SaveStances stores one round's extracted stances.
func (s *PostgresStorage) SaveStances(ctx context.Context, threadID string, round int, stances map[string]*core.Stance) error {
	if len(stances) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO stances (thread_id, round, panelist, label, confidence, core_claim, evidence_strength)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (thread_id, round, panelist)
	DO UPDATE SET
		label = EXCLUDED.label,
		confidence = EXCLUDED.confidence,
		core_claim = EXCLUDED.core_claim,
		evidence_strength = EXCLUDED.evidence_strength
	`

	for panelist, stance := range stances {
		if stance == nil {
			continue
		}
		if _, err := tx.Exec(ctx, query, threadID, round, panelist, stance.Label, stance.Confidence, stance.CoreClaim, stance.EvidenceStrength); err != nil {
			return fmt.Errorf("failed to insert stance: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListStances returns all stored stances for a thread in round order.
func (s *PostgresStorage) ListStances(ctx context.Context, threadID string) ([]core.StanceRecord, error) {
	query := `
	SELECT round, panelist, label, confidence, COALESCE(core_claim, ''), evidence_strength
	FROM stances
	WHERE thread_id = $1
	ORDER BY round ASC, panelist ASC
	`

	rows, err := s.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stances: %w", err)
	}
	defer rows.Close()

	var records []core.StanceRecord
	for rows.Next() {
		var rec core.StanceRecord
		if err := rows.Scan(&rec.Round, &rec.Panelist, &rec.Stance.Label, &rec.Stance.Confidence, &rec.Stance.CoreClaim, &rec.Stance.EvidenceStrength); err != nil {
			return nil, fmt.Errorf("failed to scan stance: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ListEvents returns a thread's events with seq greater than afterSeq, in
// seq order.
func (s *PostgresStorage) ListEvents(ctx context.Context, threadID string, afterSeq int64) ([]events.Event, error) {
	query := `
	SELECT seq, type, data_json, created_at
	FROM debate_events
	WHERE thread_id = $1 AND seq > $2
	ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, threadID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var evs []events.Event
	for rows.Next() {
		var ev events.Event
		var dataJSON []byte

		if err := rows.Scan(&ev.Seq, &ev.Type, &dataJSON, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		ev.ThreadID = threadID
		if len(dataJSON) > 0 {
			ev.Data = json.RawMessage(dataJSON)
		}

		evs = append(evs, ev)
	}

	return evs, rows.Err()
}
