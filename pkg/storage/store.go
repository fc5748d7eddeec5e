// Package storage persists session records to a local sqlite
// database so past sessions can be listed, reviewed, and exported.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"focusgroup/pkg/session"
)

// ErrNotFound is returned when no session matches a lookup.
var ErrNotFound = errors.New("session not found")

// ErrAmbiguousID is returned when a partial id matches more than one
// session.
var ErrAmbiguousID = errors.New("ambiguous session id")

// ListEntry is the lightweight row returned by List. The full record
// is only loaded on demand.
type ListEntry struct {
	ID         string    `json:"id"`
	DisplayID  string    `json:"display_id"`
	Name       string    `json:"name,omitempty"`
	Tool       string    `json:"tool"`
	Mode       string    `json:"mode"`
	AgentCount int       `json:"agent_count"`
	RoundCount int       `json:"round_count"`
	CreatedAt  time.Time `json:"created_at"`
	IsComplete bool      `json:"is_complete"`
	Tags       []string  `json:"tags,omitempty"`
}

// ListOptions filter the session listing.
type ListOptions struct {
	Tool  string
	Tags  []string
	Limit int
}

// Store is a sqlite-backed session store. The full record is kept as
// JSON; indexed columns exist for listing and filtering.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore opens (or creates) the session database.
func NewStore(dbPath string, logger zerolog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			name TEXT,
			tool TEXT NOT NULL,
			mode TEXT NOT NULL,
			agent_count INTEGER NOT NULL,
			round_count INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			completed_at INTEGER,
			tags TEXT,
			record TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_tool ON sessions(tool);
		CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save writes or replaces a session record.
func (s *Store) Save(rec *session.SessionRecord) error {
	record, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	var tags any
	if len(rec.Tags) > 0 {
		tagsJSON, err := json.Marshal(rec.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}
		tags = string(tagsJSON)
	}

	var completedAt any
	if rec.CompletedAt != nil {
		completedAt = rec.CompletedAt.Unix()
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO sessions
			(id, name, tool, mode, agent_count, round_count, created_at, completed_at, tags, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Tool, rec.Mode, rec.AgentCount, len(rec.Rounds),
		rec.CreatedAt.Unix(), completedAt, tags, string(record),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug().Str("session_id", rec.ID).Msg("session saved")
	return nil
}

// Load fetches a session by id. The id may be the short id, the
// display id, or a unique prefix of either.
func (s *Store) Load(id string) (*session.SessionRecord, error) {
	resolved, err := s.resolveID(id)
	if err != nil {
		return nil, err
	}

	var record string
	err = s.db.QueryRow("SELECT record FROM sessions WHERE id = ?", resolved).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var rec session.SessionRecord
	if err := json.Unmarshal([]byte(record), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", resolved, err)
	}
	return &rec, nil
}

// List returns session entries, newest first.
func (s *Store) List(opts ListOptions) ([]ListEntry, error) {
	query := `
		SELECT id, name, tool, mode, agent_count, round_count, created_at, completed_at, tags
		FROM sessions`
	var args []any
	if opts.Tool != "" {
		query += " WHERE tool = ?"
		args = append(args, opts.Tool)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var entries []ListEntry
	for rows.Next() {
		var entry ListEntry
		var name, tags sql.NullString
		var createdAt int64
		var completedAt sql.NullInt64

		if err := rows.Scan(&entry.ID, &name, &entry.Tool, &entry.Mode,
			&entry.AgentCount, &entry.RoundCount, &createdAt, &completedAt, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}

		entry.Name = name.String
		entry.CreatedAt = time.Unix(createdAt, 0)
		entry.IsComplete = completedAt.Valid
		entry.DisplayID = fmt.Sprintf("%s-%s", entry.CreatedAt.Format("20060102"), entry.ID)
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &entry.Tags); err != nil {
				s.logger.Warn().Str("session_id", entry.ID).Msg("malformed tags, ignoring")
			}
		}

		if len(opts.Tags) > 0 && !hasAllTags(entry.Tags, opts.Tags) {
			continue
		}

		entries = append(entries, entry)
		if opts.Limit > 0 && len(entries) >= opts.Limit {
			break
		}
	}
	return entries, rows.Err()
}

// Delete removes a session. Partial ids resolve the same way Load
// resolves them.
func (s *Store) Delete(id string) error {
	resolved, err := s.resolveID(id)
	if err != nil {
		return err
	}

	result, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", resolved)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.logger.Debug().Str("session_id", resolved).Msg("session deleted")
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// resolveID turns user input into a stored session id. Display ids
// ("20250601-abc12345") have their date prefix stripped; everything
// else is matched as an exact id or a unique prefix.
func (s *Store) resolveID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrNotFound
	}

	if i := strings.IndexByte(id, '-'); i == 8 {
		id = id[i+1:]
	}

	// Exact match first.
	var exact string
	err := s.db.QueryRow("SELECT id FROM sessions WHERE id = ?", id).Scan(&exact)
	if err == nil {
		return exact, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to resolve session id: %w", err)
	}

	rows, err := s.db.Query("SELECT id FROM sessions WHERE id LIKE ?", id+"%")
	if err != nil {
		return "", fmt.Errorf("failed to resolve session id: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var match string
		if err := rows.Scan(&match); err != nil {
			return "", err
		}
		matches = append(matches, match)
	}
	switch len(matches) {
	case 0:
		return "", ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %d sessions", ErrAmbiguousID, id, len(matches))
	}
}

func hasAllTags(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, tag := range have {
		set[tag] = struct{}{}
	}
	for _, tag := range want {
		if _, ok := set[tag]; !ok {
			return false
		}
	}
	return true
}
