package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/events"
)

// SQLiteStorage implements Storage using SQLite. The full debate state
// lives in one JSON column; a few scalar columns are mirrored out for
// listing without decoding every state.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStorage) Initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS debates (
		thread_id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		phase TEXT NOT NULL,
		debate_mode TEXT NOT NULL,
		rounds INTEGER NOT NULL DEFAULT 0,
		panel_size INTEGER NOT NULL DEFAULT 0,
		consensus INTEGER NOT NULL DEFAULT 0,
		state_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS debate_events (
		thread_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		data_json TEXT,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (thread_id, seq),
		FOREIGN KEY (thread_id) REFERENCES debates(thread_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS argument_units (
		id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL,
		panelist TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT NOT NULL,
		round INTEGER NOT NULL,
		FOREIGN KEY (thread_id) REFERENCES debates(thread_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS stances (
		thread_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		panelist TEXT NOT NULL,
		label TEXT NOT NULL,
		confidence REAL NOT NULL,
		core_claim TEXT,
		evidence_strength REAL NOT NULL,
		PRIMARY KEY (thread_id, round, panelist),
		FOREIGN KEY (thread_id) REFERENCES debates(thread_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_argument_units_thread ON argument_units(thread_id, round);
	CREATE INDEX IF NOT EXISTS idx_debates_phase ON debates(phase);
	CREATE INDEX IF NOT EXISTS idx_debates_created_at ON debates(created_at DESC);
	`

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveState upserts the full debate state.
func (s *SQLiteStorage) SaveState(ctx context.Context, state *core.DebateState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
	INSERT INTO debates (thread_id, topic, phase, debate_mode, rounds, panel_size, consensus, state_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(thread_id) DO UPDATE SET
		topic = excluded.topic,
		phase = excluded.phase,
		debate_mode = excluded.debate_mode,
		rounds = excluded.rounds,
		panel_size = excluded.panel_size,
		consensus = excluded.consensus,
		state_json = excluded.state_json,
		updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		state.ThreadID,
		state.Topic,
		state.Phase,
		state.DebateMode,
		state.DebateRoundNum,
		len(state.Panel),
		state.ConsensusReached,
		string(stateJSON),
		state.CreatedAt,
		state.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

// LoadState retrieves a debate state by thread ID.
func (s *SQLiteStorage) LoadState(ctx context.Context, threadID string) (*core.DebateState, error) {
	var stateJSON string

	err := s.db.QueryRowContext(ctx,
		"SELECT state_json FROM debates WHERE thread_id = ?", threadID,
	).Scan(&stateJSON)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state core.DebateState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("thread %s: %w: %v", threadID, ErrCorrupt, err)
	}

	return &state, nil
}

// DeleteState removes a debate and its event log.
func (s *SQLiteStorage) DeleteState(ctx context.Context, threadID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM debates WHERE thread_id = ?", threadID)
	if err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}

	return nil
}

// ListStates returns debate summaries, newest first.
func (s *SQLiteStorage) ListStates(ctx context.Context, limit, offset int) ([]*core.DebateSummary, error) {
	query := `
	SELECT thread_id, topic, phase, debate_mode, rounds, panel_size, consensus, created_at, updated_at
	FROM debates
	ORDER BY created_at DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
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
func (s *SQLiteStorage) AppendEvents(ctx context.Context, threadID string, evs []events.Event) error {
	if len(evs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO debate_events (thread_id, seq, type, data_json, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	for _, ev := range evs {
		var dataJSON *string
		if ev.Data != nil {
			data, err := json.Marshal(ev.Data)
			if err != nil {
				return fmt.Errorf("failed to marshal event data: %w", err)
			}
			str := string(data)
			dataJSON = &str
		}

		if _, err := tx.ExecContext(ctx, query, threadID, ev.Seq, ev.Type, dataJSON, ev.Timestamp); err != nil {
			return fmt.Errorf("failed to insert event %d: %w", ev.Seq, err)
		}
	}

	return tx.Commit()
}

// SaveArgumentUnits stores extracted argument units for a thread.
func (s *SQLiteStorage) SaveArgumentUnits(ctx context.Context, threadID string, units []core.ArgumentUnit) error {
	if len(units) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT OR REPLACE INTO argument_units (id, thread_id, panelist, kind, text, round)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	for _, unit := range units {
		if _, err := tx.ExecContext(ctx, query, unit.ID, threadID, unit.Panelist, unit.Kind, unit.Text, unit.Round); err != nil {
			return fmt.Errorf("failed to insert argument unit: %w", err)
		}
	}

	return tx.Commit()
}

// ListArgumentUnits returns all argument units for a thread in round order.
func (s *SQLiteStorage) ListArgumentUnits(ctx context.Context, threadID string) ([]core.ArgumentUnit, error) {
	query := `
	SELECT id, panelist, kind, text, round
	FROM argument_units
	WHERE thread_id = ?
	ORDER BY round ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, threadID)
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
func (s *SQLiteStorage) SaveStances(ctx context.Context, threadID string, round int, stances map[string]*core.Stance) error {
	if len(stances) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT OR REPLACE INTO stances (thread_id, round, panelist, label, confidence, core_claim, evidence_strength)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for panelist, stance := range stances {
		if stance == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, threadID, round, panelist, stance.Label, stance.Confidence, stance.CoreClaim, stance.EvidenceStrength); err != nil {
			return fmt.Errorf("failed to insert stance: %w", err)
		}
	}

	return tx.Commit()
}

// ListStances returns all stored stances for a thread in round order.
func (s *SQLiteStorage) ListStances(ctx context.Context, threadID string) ([]core.StanceRecord, error) {
	query := `
	SELECT round, panelist, label, confidence, core_claim, evidence_strength
	FROM stances
	WHERE thread_id = ?
	ORDER BY round ASC, panelist ASC
	`

	rows, err := s.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stances: %w", err)
	}
	defer rows.Close()

	var records []core.StanceRecord
	for rows.Next() {
		var rec core.StanceRecord
		var coreClaim sql.NullString
		if err := rows.Scan(&rec.Round, &rec.Panelist, &rec.Stance.Label, &rec.Stance.Confidence, &coreClaim, &rec.Stance.EvidenceStrength); err != nil {
			return nil, fmt.Errorf("failed to scan stance: %w", err)
		}
		rec.Stance.CoreClaim = coreClaim.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ListEvents returns a thread's events with seq greater than afterSeq, in
// seq order. Pass afterSeq -1 for the full log.
func (s *SQLiteStorage) ListEvents(ctx context.Context, threadID string, afterSeq int64) ([]events.Event, error) {
	query := `
	SELECT seq, type, data_json, created_at
	FROM debate_events
	WHERE thread_id = ? AND seq > ?
	ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, threadID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var evs []events.Event
	for rows.Next() {
		var ev events.Event
		var dataJSON sql.NullString

		if err := rows.Scan(&ev.Seq, &ev.Type, &dataJSON, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		ev.ThreadID = threadID
		if dataJSON.Valid {
			ev.Data = json.RawMessage(dataJSON.String)
		}

		evs = append(evs, ev)
	}

	return evs, rows.Err()
}
