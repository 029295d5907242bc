package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one JSON document per persona id under a base
// directory. Writes go to a temporary file followed by an atomic rename
// so readers never observe a partially written record.
type FileStore struct {
	dir    string
	opts   Options
	locks  *keyedMutex
	logger *slog.Logger
}

// NewFileStore creates the base directory if needed.
func NewFileStore(dir string, opts Options, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create memory dir: %v", ErrStorage, err)
	}
	return &FileStore{
		dir:    dir,
		opts:   opts.withDefaults(),
		locks:  newKeyedMutex(),
		logger: logger,
	}, nil
}

func (s *FileStore) path(personaID string) string {
	return filepath.Join(s.dir, sanitizeID(personaID)+".json")
}

// sanitizeID keeps persona ids inside the memory directory. Anything
// outside [a-zA-Z0-9_-] becomes an underscore.
func sanitizeID(id string) string {
	if id == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (s *FileStore) Load(ctx context.Context, personaID string) (*Record, error) {
	unlock := s.locks.lock(personaID)
	defer unlock()
	return s.loadLocked(personaID)
}

// loadLocked reads the record without taking the per-key lock; callers
// must hold it.
func (s *FileStore) loadLocked(personaID string) (*Record, error) {
	data, err := os.ReadFile(s.path(personaID))
	if os.IsNotExist(err) {
		rec := DefaultRecord()
		if err := s.saveLocked(personaID, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, personaID, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt document: substitute a safe default rather than
		// failing the chat request.
		s.logger.Warn("memory record corrupt, using default", "persona", personaID, "error", err)
		return DefaultRecord(), nil
	}
	normalize(&rec)
	return &rec, nil
}

func (s *FileStore) Save(ctx context.Context, personaID string, rec *Record) error {
	unlock := s.locks.lock(personaID)
	defer unlock()
	return s.saveLocked(personaID, rec)
}

func (s *FileStore) saveLocked(personaID string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrStorage, personaID, err)
	}

	target := s.path(personaID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, personaID, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", ErrStorage, personaID, err)
	}
	return nil
}

func (s *FileStore) AppendTurns(ctx context.Context, personaID string, turns ...Turn) error {
	unlock := s.locks.lock(personaID)
	defer unlock()

	rec, err := s.loadLocked(personaID)
	if err != nil {
		return err
	}
	rec.append(s.opts.MaxTurns, s.opts.TurnRunes, turns...)
	return s.saveLocked(personaID, rec)
}

func (s *FileStore) Reset(ctx context.Context, personaID string) error {
	unlock := s.locks.lock(personaID)
	defer unlock()
	return s.saveLocked(personaID, DefaultRecord())
}

func (s *FileStore) UpdateProfile(ctx context.Context, personaID string, patch ProfilePatch) (*Record, error) {
	unlock := s.locks.lock(personaID)
	defer unlock()

	rec, err := s.loadLocked(personaID)
	if err != nil {
		return nil, err
	}
	rec.applyPatch(patch)
	if err := s.saveLocked(personaID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// normalize repairs nil collections after unmarshalling partial or
// hand-edited documents.
func normalize(rec *Record) {
	if rec.User.Interests == nil {
		rec.User.Interests = []string{}
	}
	if rec.User.Notes == nil {
		rec.User.Notes = map[string]string{}
	}
	if rec.Conversations == nil {
		rec.Conversations = []Turn{}
	}
}
