// Package persona provides the static registry of chat personas.
//
// A persona bundles the system prompt, the display name and the emoji
// vocabulary the reply polisher is allowed to inject. Definitions are
// immutable after load.
package persona

import (
	"fmt"
	"strings"
)

// DefaultID is the persona every component falls back to when an
// unknown id is requested. The registry refuses to load without it.
const DefaultID = "default"

// Persona is one named system-prompt configuration.
type Persona struct {
	ID           string   `yaml:"id"`
	DisplayName  string   `yaml:"name"`
	SystemPrompt string   `yaml:"system_prompt"`
	AllowedEmoji []string `yaml:"allowed_emoji"`

	// NeutralTerm replaces scrubbed pet names in replies ("buddy", "yaar").
	NeutralTerm string `yaml:"neutral_term"`
}

// Validate checks the fields every persona must carry.
func (p *Persona) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("persona has no id")
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("persona %q has no display name", p.ID)
	}
	if strings.TrimSpace(p.SystemPrompt) == "" {
		return fmt.Errorf("persona %q has no system prompt", p.ID)
	}
	if len(p.AllowedEmoji) == 0 {
		return fmt.Errorf("persona %q has no allowed emoji", p.ID)
	}
	return nil
}

// ContainsAllowedEmoji reports whether text already carries one of the
// persona's emoji glyphs.
func (p *Persona) ContainsAllowedEmoji(text string) bool {
	for _, e := range p.AllowedEmoji {
		if strings.Contains(text, e) {
			return true
		}
	}
	return false
}

// SignatureEmoji returns the glyph the polisher injects when a reply
// carries none of the allowed set.
func (p *Persona) SignatureEmoji() string {
	return p.AllowedEmoji[0]
}
