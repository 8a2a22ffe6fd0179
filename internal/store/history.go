package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// HistoryStore keeps the most recent runs and gateway messages in sqlite.
type HistoryStore struct {
	DB *sql.DB
	// Limit bounds the number of runs kept; zero or less keeps everything.
	Limit int
}

// Message is one gateway chat line.
type Message struct {
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewHistoryStore(dbPath string, limit int) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE,
			mode TEXT,
			query TEXT,
			plan TEXT,
			results TEXT,
			agents_used TEXT,
			final_text TEXT,
			started_at TEXT,
			duration_ns INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT,
			role TEXT,
			content TEXT,
			timestamp TEXT
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &HistoryStore{DB: db, Limit: limit}, nil
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}

// AddRun stores run and prunes the oldest entries beyond Limit.
func (h *HistoryStore) AddRun(run Run) error {
	plan, err := json.Marshal(run.Plan)
	if err != nil {
		return err
	}
	results, err := json.Marshal(run.Results)
	if err != nil {
		return err
	}
	agents, err := json.Marshal(run.AgentsUsed)
	if err != nil {
		return err
	}

	query := `INSERT INTO runs (id, mode, query, plan, results, agents_used, final_text, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = h.DB.Exec(query, run.ID, run.Mode, run.Query, string(plan), string(results), string(agents),
		run.FinalText, run.StartedAt.UTC().Format(time.RFC3339Nano), int64(run.Duration))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if h.Limit > 0 {
		_, err = h.DB.Exec(`DELETE FROM runs WHERE seq NOT IN (SELECT seq FROM runs ORDER BY seq DESC LIMIT ?)`, h.Limit)
		if err != nil {
			return fmt.Errorf("failed to prune runs: %w", err)
		}
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (h *HistoryStore) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT id, mode, query, plan, results, agents_used, final_text, started_at, duration_ns
		FROM runs ORDER BY seq DESC LIMIT ?`
	rows, err := h.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var plan, results, agents, startedAt string
		var durationNS int64
		if err := rows.Scan(&r.ID, &r.Mode, &r.Query, &plan, &results, &agents, &r.FinalText, &startedAt, &durationNS); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(plan), &r.Plan); err != nil {
			return nil, fmt.Errorf("run %s: bad plan: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(results), &r.Results); err != nil {
			return nil, fmt.Errorf("run %s: bad results: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(agents), &r.AgentsUsed); err != nil {
			return nil, fmt.Errorf("run %s: bad agents: %w", r.ID, err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		r.Duration = time.Duration(durationNS)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (h *HistoryStore) ClearRuns() error {
	_, err := h.DB.Exec(`DELETE FROM runs`)
	return err
}

func (h *HistoryStore) AddMessage(chatID string, role string, content string) error {
	query := `INSERT INTO messages (chat_id, role, content, timestamp) VALUES (?, ?, ?, ?)`
	_, err := h.DB.Exec(query, chatID, role, content, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// GetMessages returns the last limit messages of a chat in chronological order.
func (h *HistoryStore) GetMessages(chatID string, limit int) ([]Message, error) {
	query := `SELECT chat_id, role, content, timestamp FROM messages WHERE chat_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := h.DB.Query(query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Message
	for rows.Next() {
		var m Message
		var ts string
		if err := rows.Scan(&m.ChatID, &m.Role, &m.Content, &ts); err != nil {
			return nil, err
		}
		m.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}
