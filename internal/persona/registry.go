package persona

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Registry is the immutable id -> Persona lookup table.
type Registry struct {
	personas map[string]*Persona
	logger   *slog.Logger
}

// Load builds a registry from the built-in personas, optionally merged
// with a YAML file. File entries override built-ins with the same id.
// Invalid entries are logged and skipped; a missing or invalid "default"
// entry is fatal because every lookup ultimately rests on it.
func Load(path string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{personas: make(map[string]*Persona), logger: logger}
	for _, p := range builtins() {
		r.add(p)
	}

	if path != "" {
		if err := r.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if _, ok := r.personas[DefaultID]; !ok {
		return nil, fmt.Errorf("persona registry has no %q entry", DefaultID)
	}
	return r, nil
}

func (r *Registry) add(p Persona) {
	if err := p.Validate(); err != nil {
		r.logger.Warn("skipping invalid persona", "error", err)
		return
	}
	cp := p
	r.personas[p.ID] = &cp
}

func (r *Registry) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read persona file: %w", err)
	}

	var file struct {
		Personas []Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse persona file %s: %w", path, err)
	}

	for _, p := range file.Personas {
		if _, exists := r.personas[p.ID]; exists {
			r.logger.Info("persona overridden from file", "id", p.ID)
		}
		r.add(p)
	}
	return nil
}

// Resolve returns the persona for id, falling back to the default
// persona when the id is unknown. It never fails.
func (r *Registry) Resolve(id string) *Persona {
	if p, ok := r.personas[id]; ok {
		return p
	}
	return r.personas[DefaultID]
}

// Get returns the persona for id, or false when it does not exist.
func (r *Registry) Get(id string) (*Persona, bool) {
	p, ok := r.personas[id]
	return p, ok
}

// List returns id -> display name for every registered persona.
func (r *Registry) List() map[string]string {
	out := make(map[string]string, len(r.personas))
	for id, p := range r.personas {
		out[id] = p.DisplayName
	}
	return out
}
