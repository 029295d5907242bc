// Package memory provides durable per-persona conversational state.
//
// One Record exists per persona id. The backing store owns the record
// exclusively: all mutation goes through Store methods, and each
// implementation serializes its read-modify-write cycle per persona id
// so concurrent chat requests cannot lose an appended turn.
package memory

import "unicode/utf8"

// Roles recorded in conversation history. Anything that is not
// RoleUser maps to the assistant when replayed to the model.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one recorded message in a persona's conversation history.
// Immutable once appended.
type Turn struct {
	Role    string `json:"role"`
	Message string `json:"msg"`
}

// Profile holds the user-facing fields of a record.
type Profile struct {
	Name      *string           `json:"name"`
	Interests []string          `json:"interests"`
	Notes     map[string]string `json:"notes"`
}

// Record is the persisted memory document for one persona.
type Record struct {
	User          Profile `json:"user"`
	Conversations []Turn  `json:"conversations"`
}

// ProfilePatch is a partial profile update; nil fields are untouched.
// Notes are merged key by key rather than replaced.
type ProfilePatch struct {
	Name      *string           `json:"name,omitempty"`
	Interests []string          `json:"interests,omitempty"`
	Notes     map[string]string `json:"notes,omitempty"`
}

// DefaultRecord returns the empty shape written on first access.
func DefaultRecord() *Record {
	return &Record{
		User: Profile{
			Interests: []string{},
			Notes:     map[string]string{},
		},
		Conversations: []Turn{},
	}
}

// append adds turns with message truncation, then trims the history to
// maxTurns from the front so the retained entries stay chronological.
func (r *Record) append(maxTurns, maxRunes int, turns ...Turn) {
	for _, t := range turns {
		t.Message = truncateRunes(t.Message, maxRunes)
		r.Conversations = append(r.Conversations, t)
	}
	if excess := len(r.Conversations) - maxTurns; excess > 0 {
		r.Conversations = append([]Turn(nil), r.Conversations[excess:]...)
	}
}

// applyPatch merges a profile patch into the record.
func (r *Record) applyPatch(p ProfilePatch) {
	if p.Name != nil {
		r.User.Name = p.Name
	}
	if p.Interests != nil {
		r.User.Interests = p.Interests
	}
	if len(p.Notes) > 0 {
		if r.User.Notes == nil {
			r.User.Notes = map[string]string{}
		}
		for k, v := range p.Notes {
			r.User.Notes[k] = v
		}
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
