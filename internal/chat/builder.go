package chat

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/aisha-chat/aisha-go/internal/imaging"
	"github.com/aisha-chat/aisha-go/internal/memory"
	"github.com/aisha-chat/aisha-go/internal/persona"
)

// defaultImagePrompt is used when an image arrives without a caption.
const defaultImagePrompt = "What do you see in this image?"

// digestRunes bounds each history entry inside the system prompt's
// memory summary; the full text still rides along as its own message.
const digestRunes = 80

var languageNames = map[string]string{
	"en":       "English",
	"hi":       "Hindi",
	"hinglish": "Hinglish",
}

// buildMessages composes the ordered message list for one completion
// call: persona system prompt (with the memory summary interpolated),
// the recent history window oldest-first, then the new user turn.
func buildMessages(p *persona.Persona, rec *memory.Record, userMessage, language string, img *imaging.Image, window int) []llms.MessageContent {
	recent := rec.Conversations
	if window > 0 && len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	messages := make([]llms.MessageContent, 0, len(recent)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem,
		systemPrompt(p, rec, recent, language)))

	for _, turn := range recent {
		role := llms.ChatMessageTypeAI
		if turn.Role == memory.RoleUser {
			role = llms.ChatMessageTypeHuman
		}
		messages = append(messages, llms.TextParts(role, turn.Message))
	}

	messages = append(messages, userTurn(userMessage, img))
	return messages
}

func systemPrompt(p *persona.Persona, rec *memory.Record, recent []memory.Turn, language string) string {
	name := "friend"
	if rec.User.Name != nil && *rec.User.Name != "" {
		name = *rec.User.Name
	}

	summary := fmt.Sprintf("User name: %s. Interests: %s.",
		name, strings.Join(rec.User.Interests, ", "))

	digest := "No recent conv."
	if len(recent) > 0 {
		parts := make([]string, len(recent))
		for i, turn := range recent {
			msg := turn.Message
			if runes := []rune(msg); len(runes) > digestRunes {
				msg = string(runes[:digestRunes])
			}
			parts[i] = turn.Role + ": " + msg
		}
		digest = strings.Join(parts, " | ")
	}

	lang, ok := languageNames[language]
	if !ok {
		lang = languageNames["en"]
	}

	return fmt.Sprintf("%s\nMemory summary: %s\nRecent: %s\nRespond in a warm, friendly way in %s.",
		strings.TrimSpace(p.SystemPrompt), summary, digest, lang)
}

// userTurn emits the final message. With an image attached the content
// is structured: a text part plus a JPEG data-URL part.
func userTurn(userMessage string, img *imaging.Image) llms.MessageContent {
	if img == nil {
		return llms.TextParts(llms.ChatMessageTypeHuman, userMessage)
	}

	text := strings.TrimSpace(userMessage)
	if text == "" {
		text = defaultImagePrompt
	}
	return llms.MessageContent{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextPart(text),
			llms.ImageURLPart(img.DataURL()),
		},
	}
}
