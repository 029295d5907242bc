package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each record as a JSON string under
// "{prefix}:{personaID}". The per-key mutex serializes the
// read-modify-write cycle within the process; cross-process sharing of
// one persona id is out of scope for this deployment shape.
type RedisStore struct {
	client *redis.Client
	prefix string
	opts   Options
	locks  *keyedMutex
	logger *slog.Logger
}

// NewRedisStore pings the server once so misconfiguration surfaces at
// startup instead of on the first chat request.
func NewRedisStore(ctx context.Context, client *redis.Client, opts Options, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: redis ping: %v", ErrStorage, err)
	}
	return &RedisStore{
		client: client,
		prefix: "aisha:mem",
		opts:   opts.withDefaults(),
		locks:  newKeyedMutex(),
		logger: logger,
	}, nil
}

func (s *RedisStore) key(personaID string) string {
	return s.prefix + ":" + sanitizeID(personaID)
}

func (s *RedisStore) Load(ctx context.Context, personaID string) (*Record, error) {
	unlock := s.locks.lock(personaID)
	defer unlock()
	return s.loadLocked(ctx, personaID)
}

func (s *RedisStore) loadLocked(ctx context.Context, personaID string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(personaID)).Result()
	if errors.Is(err, redis.Nil) {
		rec := DefaultRecord()
		if err := s.saveLocked(ctx, personaID, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis get %s: %v", ErrStorage, personaID, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		s.logger.Warn("memory record corrupt, using default", "persona", personaID, "error", err)
		return DefaultRecord(), nil
	}
	normalize(&rec)
	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, personaID string, rec *Record) error {
	unlock := s.locks.lock(personaID)
	defer unlock()
	return s.saveLocked(ctx, personaID, rec)
}

func (s *RedisStore) saveLocked(ctx context.Context, personaID string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrStorage, personaID, err)
	}
	// SET is atomic on the server side; no tmp-and-rename dance needed.
	if err := s.client.Set(ctx, s.key(personaID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %v", ErrStorage, personaID, err)
	}
	return nil
}

func (s *RedisStore) AppendTurns(ctx context.Context, personaID string, turns ...Turn) error {
	unlock := s.locks.lock(personaID)
	defer unlock()

	rec, err := s.loadLocked(ctx, personaID)
	if err != nil {
		return err
	}
	rec.append(s.opts.MaxTurns, s.opts.TurnRunes, turns...)
	return s.saveLocked(ctx, personaID, rec)
}

func (s *RedisStore) Reset(ctx context.Context, personaID string) error {
	unlock := s.locks.lock(personaID)
	defer unlock()
	return s.saveLocked(ctx, personaID, DefaultRecord())
}

func (s *RedisStore) UpdateProfile(ctx context.Context, personaID string, patch ProfilePatch) (*Record, error) {
	unlock := s.locks.lock(personaID)
	defer unlock()

	rec, err := s.loadLocked(ctx, personaID)
	if err != nil {
		return nil, err
	}
	rec.applyPatch(patch)
	if err := s.saveLocked(ctx, personaID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
