// Package store persists the last selected track in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "mymusic"
	dbFileName   = "mymusic.db"
	saveDebounce = 500 * time.Millisecond
)

// Selection is the persisted form of the selected track.
type Selection struct {
	Title           string   `json:"title"`
	URI             string   `json:"uri"`
	DurationSeconds *float64 `json:"duration,omitempty"`
	Index           int      `json:"index"`
}

// Store reads and writes the selection stored under one namespace key.
type Store struct {
	db        *sql.DB
	namespace string

	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *Selection
}

// DefaultPath returns the database location under the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Open opens (or creates) the database at path. An empty path selects DefaultPath.
func Open(path, namespace string) (*Store, error) {
	if namespace == "" {
		return nil, errors.New("store namespace is required")
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve data path")
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// A single connection keeps writes serialized
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	zlog.Debug().Msgf("store: opened: path=%s namespace=%s", path, namespace)
	return &Store{db: db, namespace: namespace}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS selection_state (
			namespace TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	return err
}

// Load returns the stored selection, or nil if none was saved.
func (s *Store) Load(ctx context.Context) (*Selection, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM selection_state WHERE namespace = ?`, s.namespace,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load selection")
	}

	var sel Selection
	if err := json.Unmarshal([]byte(value), &sel); err != nil {
		return nil, errors.Wrap(err, "failed to decode stored selection")
	}
	return &sel, nil
}

// Save writes the selection immediately.
func (s *Store) Save(ctx context.Context, sel Selection) error {
	value, err := json.Marshal(sel)
	if err != nil {
		return errors.Wrap(err, "failed to encode selection")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO selection_state (namespace, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, s.namespace, string(value), time.Now().Unix())
	if err != nil {
		return errors.Wrap(err, "failed to save selection")
	}
	return nil
}

// SaveLater schedules a write. Calls within the debounce window collapse
// into one write of the latest selection.
func (s *Store) SaveLater(sel Selection) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.pending = &sel
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(saveDebounce, s.flush)
}

// Flush writes a pending selection, if any.
func (s *Store) Flush() {
	s.saveMu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.saveMu.Unlock()
	s.flush()
}

func (s *Store) flush() {
	s.saveMu.Lock()
	pending := s.pending
	s.pending = nil
	s.saveMu.Unlock()

	if pending == nil {
		return
	}
	if err := s.Save(context.Background(), *pending); err != nil {
		zlog.Error().Msgf("store: failed to persist selection: %v", err)
	}
}

// Close flushes pending writes and closes the database.
func (s *Store) Close() error {
	s.Flush()
	return s.db.Close()
}
