// Package ledger persists the session audit trail in SQLite: session
// metadata, the conversation transcript, the append-only score ledger,
// and operational events (fail-open substitutions, forced endings,
// interruptions) for operator review.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/casemill/interview-controller/internal/interview"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	case_id       TEXT NOT NULL,
	candidate_id  TEXT,
	started_at    TEXT NOT NULL,
	completed     INTEGER NOT NULL DEFAULT 0,
	interrupted   INTEGER NOT NULL DEFAULT 0,
	final_score   REAL,
	final_summary TEXT,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS conversation_turns (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	role        TEXT NOT NULL,
	content     TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE(session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS score_records (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id         TEXT NOT NULL,
	seq                INTEGER NOT NULL,
	unit_id            TEXT NOT NULL,
	phase              TEXT NOT NULL,
	score              INTEGER NOT NULL,
	rationale          TEXT,
	evidence_json      TEXT,
	difficulty_at_time INTEGER NOT NULL,
	created_at         TEXT NOT NULL,
	UNIQUE(session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS session_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	detail      TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE INDEX IF NOT EXISTS idx_turns_session ON conversation_turns(session_id);
CREATE INDEX IF NOT EXISTS idx_scores_session ON score_records(session_id);
CREATE INDEX IF NOT EXISTS idx_events_session ON session_events(session_id);
`

// #endregion schema

// #region store-struct
// Store manages the audit trail in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region sessions

// SessionMeta is one row of the sessions table.
type SessionMeta struct {
	SessionID    string
	CaseID       string
	CandidateID  string
	StartedAt    time.Time
	Completed    bool
	Interrupted  bool
	FinalScore   *float64
	FinalSummary string
	UpdatedAt    time.Time
}

// CreateSession inserts a session row at creation time.
func (s *Store) CreateSession(sessionID, caseID, candidateID string, startedAt time.Time) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, case_id, candidate_id, started_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, caseID, nullIfEmpty(candidateID), startedAt.UTC().Format(time.RFC3339Nano), now,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FinalizeSession records the terminal fields once a session ends.
func (s *Store) FinalizeSession(sessionID string, finalScore *float64, summary string, interrupted bool) error {
	var scorePtr interface{}
	if finalScore != nil {
		scorePtr = *finalScore
	}
	_, err := s.db.Exec(
		`UPDATE sessions SET completed = 1, interrupted = ?, final_score = ?, final_summary = ?, updated_at = ?
		 WHERE session_id = ?`,
		boolToInt(interrupted), scorePtr, nullIfEmpty(summary),
		time.Now().UTC().Format(time.RFC3339Nano), sessionID,
	)
	if err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}
	return nil
}

// Session reads one session row.
func (s *Store) Session(sessionID string) (SessionMeta, error) {
	var m SessionMeta
	var candidate, summary sql.NullString
	var score sql.NullFloat64
	var completed, interrupted int
	var startedStr, updatedStr string

	err := s.db.QueryRow(
		`SELECT session_id, case_id, candidate_id, started_at, completed, interrupted, final_score, final_summary, updated_at
		 FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&m.SessionID, &m.CaseID, &candidate, &startedStr, &completed, &interrupted, &score, &summary, &updatedStr)
	if err != nil {
		return SessionMeta{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	if candidate.Valid {
		m.CandidateID = candidate.String
	}
	if summary.Valid {
		m.FinalSummary = summary.String
	}
	if score.Valid {
		v := score.Float64
		m.FinalScore = &v
	}
	m.Completed = completed == 1
	m.Interrupted = interrupted == 1
	m.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	m.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
	return m, nil
}

// Sessions returns the most recently updated sessions.
func (s *Store) Sessions(limit int) ([]SessionMeta, error) {
	rows, err := s.db.Query(
		`SELECT session_id, case_id, candidate_id, started_at, completed, interrupted, final_score, final_summary, updated_at
		 FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionMeta
	for rows.Next() {
		var m SessionMeta
		var candidate, summary sql.NullString
		var score sql.NullFloat64
		var completed, interrupted int
		var startedStr, updatedStr string
		if err := rows.Scan(&m.SessionID, &m.CaseID, &candidate, &startedStr, &completed, &interrupted, &score, &summary, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if candidate.Valid {
			m.CandidateID = candidate.String
		}
		if summary.Valid {
			m.FinalSummary = summary.String
		}
		if score.Valid {
			v := score.Float64
			m.FinalScore = &v
		}
		m.Completed = completed == 1
		m.Interrupted = interrupted == 1
		m.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		m.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		out = append(out, m)
	}
	return out, rows.Err()
}

// #endregion sessions

// #region turns

// AppendTurn writes one conversation turn at the given sequence number.
func (s *Store) AppendTurn(sessionID string, seq int, turn interview.Turn) error {
	_, err := s.db.Exec(
		`INSERT INTO conversation_turns (session_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, seq, string(turn.Role), turn.Content, turn.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// Transcript reads a session's conversation log in order.
func (s *Store) Transcript(sessionID string) ([]interview.Turn, error) {
	rows, err := s.db.Query(
		`SELECT role, content, created_at FROM conversation_turns
		 WHERE session_id = ? ORDER BY seq ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	defer rows.Close()

	var turns []interview.Turn
	for rows.Next() {
		var role, content, createdStr string
		if err := rows.Scan(&role, &content, &createdStr); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t := interview.Turn{Role: interview.Role(role), Content: content}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// #endregion turns

// #region scores

// AppendScore writes one score record at the given ledger position.
func (s *Store) AppendScore(sessionID string, seq int, rec interview.ScoreRecord) error {
	evidence, err := json.Marshal(rec.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO score_records (session_id, seq, unit_id, phase, score, rationale, evidence_json, difficulty_at_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, seq, rec.UnitID, string(rec.Phase), rec.Score,
		nullIfEmpty(rec.Rationale), string(evidence), rec.DifficultyAtTime,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append score: %w", err)
	}
	return nil
}

// ScoreRecords reads a session's scoring ledger in order.
func (s *Store) ScoreRecords(sessionID string) ([]interview.ScoreRecord, error) {
	rows, err := s.db.Query(
		`SELECT unit_id, phase, score, rationale, evidence_json, difficulty_at_time, created_at
		 FROM score_records WHERE session_id = ? ORDER BY seq ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("score records: %w", err)
	}
	defer rows.Close()

	var records []interview.ScoreRecord
	for rows.Next() {
		var rec interview.ScoreRecord
		var phase, createdStr string
		var rationale, evidenceJSON sql.NullString
		if err := rows.Scan(&rec.UnitID, &phase, &rec.Score, &rationale, &evidenceJSON, &rec.DifficultyAtTime, &createdStr); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		rec.Phase = interview.Phase(phase)
		if rationale.Valid {
			rec.Rationale = rationale.String
		}
		if evidenceJSON.Valid && evidenceJSON.String != "" {
			if err := json.Unmarshal([]byte(evidenceJSON.String), &rec.Evidence); err != nil {
				return nil, fmt.Errorf("unmarshal evidence: %w", err)
			}
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion scores

// #region events

// Event is one operational audit entry.
type Event struct {
	SessionID string
	Kind      string
	Detail    string
	CreatedAt time.Time
}

// RecordEvent writes an operational event row. Implements the
// controller's Recorder surface through Recorder below.
func (s *Store) RecordEvent(sessionID, kind, detail string) error {
	_, err := s.db.Exec(
		`INSERT INTO session_events (session_id, kind, detail, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, kind, nullIfEmpty(detail), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Events reads a session's operational events in order.
func (s *Store) Events(sessionID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT kind, detail, created_at FROM session_events
		 WHERE session_id = ? ORDER BY id ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var detail sql.NullString
		var createdStr string
		if err := rows.Scan(&e.Kind, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.SessionID = sessionID
		if detail.Valid {
			e.Detail = detail.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		events = append(events, e)
	}
	return events, rows.Err()
}

// #endregion events

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
