package token

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/teemow/roombook/internal/logging"
)

// DefaultFileName is the name of the token cache file in the user's home directory.
const DefaultFileName = ".exchange_token_cache.json"

// Store is the process-wide token cache. The record is loaded from disk at most
// once and every Save writes through to disk.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	record Record
	loaded bool
}

// NewStore creates a token store backed by the file at path.
// If path is empty, DefaultPath() is used. If logger is nil, slog.Default() is used.
func NewStore(path string, logger *slog.Logger) *Store {
	if path == "" {
		path = DefaultPath()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logging.WithService(logger, "token_store"),
	}
}

// DefaultPath returns the token cache location in the user's home directory.
func DefaultPath() string {
	return filepath.Join(homeDir(), DefaultFileName)
}

// Path returns the on-disk location of the token cache.
func (s *Store) Path() string {
	return s.path
}

// Load returns the cached record, reading it from disk on first use.
// A missing or unreadable file yields the zero record; Load never fails.
func (s *Store) Load() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.record
	}

	s.record = s.readFile()
	s.loaded = true
	return s.record
}

func (s *Store) readFile() Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read token cache", "path", s.path, logging.Err(err))
		}
		return Record{}
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("failed to parse token cache", "path", s.path, logging.Err(err))
		return Record{}
	}
	return rec
}

// Save replaces the cached record and persists it. A failed write is logged;
// the in-memory record stays authoritative for the rest of the process.
func (s *Store) Save(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = rec
	s.loaded = true

	if err := s.writeFile(rec); err != nil {
		s.logger.Error("failed to save token cache", "path", s.path, logging.Err(err))
		return
	}
	s.logger.Debug("token cache saved",
		"access_token", logging.SanitizeToken(rec.AccessToken),
		"expires_at", rec.ExpiresAt)
}

// Clear saves the zero record.
func (s *Store) Clear() {
	s.Save(Record{})
}

// Authenticated reports whether the cached access token is usable at now.
func (s *Store) Authenticated(now time.Time) bool {
	return s.Load().Valid(now)
}

// writeFile writes the record via a temp file and rename so a crash never
// leaves a truncated cache behind.
func (s *Store) writeFile(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode token record: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".exchange-token-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		return fmt.Errorf("failed to chmod token cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token cache: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename token cache: %w", err)
	}

	success = true
	return nil
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}
