// Package bionic splits words into an emphasized prefix and a plain
// remainder so the eye can anchor on the start of each word.
package bionic

import (
	"math"
	"strings"
)

// DefaultIntensity is the fraction of each word that is emphasized.
const DefaultIntensity = 0.4

// Span is one word split for rendering.
type Span struct {
	Bold string `json:"b"`
	Rest string `json:"r"`
}

// Emphasize splits word after max(1, ceil(runes*intensity)) runes.
// Intensity is clamped to [0, 1].
func Emphasize(word string, intensity float64) Span {
	if word == "" {
		return Span{}
	}
	if intensity < 0 || math.IsNaN(intensity) {
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}

	runes := []rune(word)
	n := int(math.Ceil(float64(len(runes)) * intensity))
	if n < 1 {
		n = 1
	}
	if n > len(runes) {
		n = len(runes)
	}
	return Span{Bold: string(runes[:n]), Rest: string(runes[n:])}
}

// Words emphasizes every word of a page.
func Words(words []string, intensity float64) []Span {
	out := make([]Span, len(words))
	for i, w := range words {
		out[i] = Emphasize(w, intensity)
	}
	return out
}

// Markup renders a line as text with the bold prefixes wrapped in
// open/close markers, for terminal and log output.
func Markup(line string, intensity float64, open, close string) string {
	var b strings.Builder
	for i, w := range strings.Fields(line) {
		if i > 0 {
			b.WriteByte(' ')
		}
		s := Emphasize(w, intensity)
		b.WriteString(open)
		b.WriteString(s.Bold)
		b.WriteString(close)
		b.WriteString(s.Rest)
	}
	return b.String()
}
