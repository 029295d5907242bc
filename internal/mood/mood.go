// Package mood provides a lightweight rule-based sentiment hint.
//
// The hint only selects a cosmetic reply embellishment downstream; it is
// deliberately crude (substring containment, no tokenization) so that it
// stays cheap and dependency-free.
package mood

import "strings"

// Mood is a coarse sentiment classification of a user message.
type Mood string

const (
	Positive Mood = "positive"
	Negative Mood = "negative"
	Neutral  Mood = "neutral"
)

var positiveWords = []string{
	"good", "great", "awesome", "happy", "fine", "cool", "nice", "love",
}

var negativeWords = []string{
	"sad", "tired", "angry", "upset", "stressed", "bad", "bored",
}

// Detect classifies text by counting positive and negative keyword hits.
// A keyword embedded in a longer word still counts. Ties are Neutral.
func Detect(text string) Mood {
	lower := strings.ToLower(text)

	pos := countHits(lower, positiveWords)
	neg := countHits(lower, negativeWords)

	switch {
	case pos > neg && pos >= 1:
		return Positive
	case neg > pos && neg >= 1:
		return Negative
	default:
		return Neutral
	}
}

func countHits(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}
