package chat

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/aisha-chat/aisha-go/internal/mood"
	"github.com/aisha-chat/aisha-go/internal/persona"
)

var (
	multiNewline = regexp.MustCompile(`\n{2,}`)

	// Pet names the personas are not allowed to use, scrubbed
	// case-insensitively on whole-word matches.
	petNames = regexp.MustCompile(`(?i)\b(baby|sweetheart|darling|love|honey|babe)\b`)
)

// Polish sanitizes raw model output: collapses blank lines, scrubs
// forbidden pet names, guarantees one of the persona's emoji is
// present (with a mood-matched interjection) and truncates at a word
// boundary. Pure and total; any input yields a string within maxRunes.
func Polish(raw string, m mood.Mood, p *persona.Persona, maxRunes int) string {
	text := multiNewline.ReplaceAllString(raw, "\n")
	text = strings.TrimSpace(text)

	neutral := p.NeutralTerm
	if neutral == "" {
		neutral = "buddy"
	}
	text = petNames.ReplaceAllString(text, neutral)

	// Truncate before the emoji check: a glyph sitting past the cap
	// would otherwise be counted and then cut. The interjection lands
	// at the front, so it survives the re-truncation.
	text = truncateAtWord(text, maxRunes)
	if !p.ContainsAllowedEmoji(text) {
		text = truncateAtWord(interjection(m, p.SignatureEmoji())+text, maxRunes)
	}

	return strings.TrimSpace(text)
}

func interjection(m mood.Mood, emoji string) string {
	switch m {
	case mood.Positive:
		return "Aww that's great! " + emoji + " "
	case mood.Negative:
		return "Oh no, I'm here for you. " + emoji + " "
	default:
		return "Hey! " + emoji + " "
	}
}

// truncateAtWord cuts text at the last whitespace boundary at or before
// maxRunes and appends an ellipsis marker, so a word is never split.
func truncateAtWord(text string, maxRunes int) string {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}

	cut := maxRunes
	for i := maxRunes; i > 0; i-- {
		if unicode.IsSpace(runes[i-1]) {
			cut = i - 1
			break
		}
	}
	return strings.TrimRight(string(runes[:cut]), " \t\n") + "..."
}
