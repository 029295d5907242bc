package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrStorage marks I/O failures in a memory backend. Callers check it
// with errors.Is; load-time corruption is not an error (the store
// substitutes a fresh default record instead).
var ErrStorage = errors.New("memory storage error")

// Default tunables, overridable through Options.
const (
	DefaultMaxTurns  = 60
	DefaultTurnRunes = 200
)

// Options bounds the history kept by a store.
type Options struct {
	// MaxTurns caps the conversation list; oldest entries drop first.
	MaxTurns int
	// TurnRunes truncates each stored message at append time.
	TurnRunes int
}

func (o Options) withDefaults() Options {
	if o.MaxTurns <= 0 {
		o.MaxTurns = DefaultMaxTurns
	}
	if o.TurnRunes <= 0 {
		o.TurnRunes = DefaultTurnRunes
	}
	return o
}

// Store is the pluggable persistence backend for memory records.
//
// Load never fails on a corrupt record: implementations return the
// default shape and log the condition. Save must replace the stored
// document atomically so a crash mid-write never exposes a truncated
// record.
type Store interface {
	Load(ctx context.Context, personaID string) (*Record, error)
	Save(ctx context.Context, personaID string, rec *Record) error
	AppendTurns(ctx context.Context, personaID string, turns ...Turn) error
	Reset(ctx context.Context, personaID string) error
	UpdateProfile(ctx context.Context, personaID string, patch ProfilePatch) (*Record, error)
}

// keyedMutex hands out one mutex per persona id, serializing the
// load-mutate-save cycle without a store-wide lock. The per-key lock is
// only held for the duration of a store operation, never across a
// completion call.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

func (k *keyedMutex) lock(key string) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}
