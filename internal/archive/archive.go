// Package archive provides SQLite-based storage of run results: per-day
// nation states, actions, responses and their costs, and consequence
// records, keyed by a run identifier.
package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/statecraft/internal/sim"
)

// DB wraps a SQLite connection for run archival.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		config_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nation_days (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		nation TEXT NOT NULL,
		dynamic_json TEXT NOT NULL,
		PRIMARY KEY (run_id, day, nation)
	);

	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		actor TEXT NOT NULL,
		target TEXT NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		dropped INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS responses (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		nation TEXT NOT NULL,
		reasoning TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL,
		completion_sec REAL NOT NULL,
		PRIMARY KEY (run_id, day, nation)
	);

	CREATE TABLE IF NOT EXISTS consequences (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		text TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL,
		completion_sec REAL NOT NULL,
		PRIMARY KEY (run_id, day)
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		run_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_actions_run_day ON actions(run_id, day);
	CREATE INDEX IF NOT EXISTS idx_nation_days_run ON nation_days(run_id, day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun registers a new run and returns its identifier.
func (db *DB) BeginRun(config any) (string, error) {
	cfgJSON, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	id := uuid.NewString()
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, started_at, config_json) VALUES (?, ?, ?)",
		id, time.Now().UTC().Format(time.RFC3339), string(cfgJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	slog.Info("run registered", "run_id", id)
	return id, nil
}

// RecordDay writes one completed day's states, actions, responses, and
// consequence record in a single transaction.
func (db *DB) RecordDay(runID string, rep sim.DayReport) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for nation, st := range rep.States {
		dynJSON, _ := json.Marshal(st.Dynamic)
		_, err := tx.Exec(
			"INSERT INTO nation_days (run_id, day, nation, dynamic_json) VALUES (?, ?, ?, ?)",
			runID, rep.Day, nation, string(dynJSON),
		)
		if err != nil {
			return fmt.Errorf("insert nation day %s: %w", nation, err)
		}
	}

	insertAction := func(a sim.Action, droppedFlag int) error {
		_, err := tx.Exec(
			"INSERT INTO actions (run_id, day, actor, target, kind, content, dropped) VALUES (?, ?, ?, ?, ?, ?, ?)",
			runID, rep.Day, a.Actor, a.Target, a.Kind, a.Content, droppedFlag,
		)
		return err
	}
	for _, a := range rep.Actions {
		if err := insertAction(a, 0); err != nil {
			return fmt.Errorf("insert action: %w", err)
		}
	}
	for _, a := range rep.Dropped {
		if err := insertAction(a, 1); err != nil {
			return fmt.Errorf("insert dropped action: %w", err)
		}
	}

	for nation, r := range rep.Responses {
		if r == nil {
			continue
		}
		msgJSON, _ := json.Marshal(r.Messages)
		_, err := tx.Exec(
			`INSERT INTO responses
			(run_id, day, nation, reasoning, messages_json,
			 prompt_tokens, completion_tokens, total_tokens, completion_sec)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, rep.Day, nation, r.Reasoning, string(msgJSON),
			r.Usage.PromptTokens, r.Usage.CompletionTokens,
			r.Usage.TotalTokens, r.Usage.CompletionSec,
		)
		if err != nil {
			return fmt.Errorf("insert response %s: %w", nation, err)
		}
	}

	c := rep.Consequence
	_, err = tx.Exec(
		`INSERT INTO consequences
		(run_id, day, text, prompt_tokens, completion_tokens, total_tokens, completion_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, c.Day, c.Text,
		c.Usage.PromptTokens, c.Usage.CompletionTokens,
		c.Usage.TotalTokens, c.Usage.CompletionSec,
	)
	if err != nil {
		return fmt.Errorf("insert consequence: %w", err)
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair for a run.
func (db *DB) SaveMeta(runID, key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (run_id, key, value) VALUES (?, ?, ?)",
		runID, key, value,
	)
	return err
}

// GetMeta retrieves a run metadata value.
func (db *DB) GetMeta(runID, key string) (string, error) {
	var value string
	err := db.conn.Get(&value,
		"SELECT value FROM run_meta WHERE run_id = ? AND key = ?", runID, key)
	return value, err
}

// Consequences returns a run's consequence records in day order.
func (db *DB) Consequences(runID string) ([]sim.Consequence, error) {
	rows, err := db.conn.Queryx(
		"SELECT day, text, prompt_tokens, completion_tokens, total_tokens, completion_sec FROM consequences WHERE run_id = ? ORDER BY day",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.Consequence
	for rows.Next() {
		var c sim.Consequence
		err := rows.Scan(&c.Day, &c.Text,
			&c.Usage.PromptTokens, &c.Usage.CompletionTokens,
			&c.Usage.TotalTokens, &c.Usage.CompletionSec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DynamicHistory returns one nation's dynamic variables for every archived
// day of a run, in day order.
func (db *DB) DynamicHistory(runID, nation string) (map[int]map[string]float64, error) {
	rows, err := db.conn.Queryx(
		"SELECT day, dynamic_json FROM nation_days WHERE run_id = ? AND nation = ? ORDER BY day",
		runID, nation,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]map[string]float64)
	for rows.Next() {
		var day int
		var dynJSON string
		if err := rows.Scan(&day, &dynJSON); err != nil {
			return nil, err
		}
		var dyn map[string]float64
		if err := json.Unmarshal([]byte(dynJSON), &dyn); err != nil {
			return nil, fmt.Errorf("day %d: %w", day, err)
		}
		out[day] = dyn
	}
	return out, rows.Err()
}
