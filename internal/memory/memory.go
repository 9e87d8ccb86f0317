// Package memory holds the conversation memory of a single tutoring session.
//
// The log is append-only and unbounded; only the tail is exposed as context.
// It is not safe for concurrent use: the conversation loop is its only
// reader and writer.
package memory

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"pathtutor/internal/logging"
	"pathtutor/internal/taxonomy"
)

// DefaultTurns is the default number of turns rendered as context.
const DefaultTurns = 3

// ErrInvalidCategory is returned when appending a turn whose category is not
// in the closed set.
var ErrInvalidCategory = errors.New("turn category must be a known label")

// Turn is one recorded question/answer exchange. Turns are values; the
// memory never hands out references into its log.
type Turn struct {
	Ordinal  int               `json:"ordinal"`
	Question string            `json:"question"`
	Category taxonomy.Category `json:"category"`
	Answer   string            `json:"answer"`
	At       time.Time         `json:"at"`
}

// Format renders the turn as a "Q: ...\nA: ..." pair.
func (t Turn) Format() string {
	return "Q: " + t.Question + "\nA: " + t.Answer
}

// ConversationMemory is the ordered log of turns for one session.
type ConversationMemory struct {
	turns []Turn
	next  int
	now   func() time.Time
}

// New creates an empty memory.
func New() *ConversationMemory {
	return &ConversationMemory{next: 1, now: time.Now}
}

// Append records a new turn at the end of the log.
func (m *ConversationMemory) Append(category taxonomy.Category, question, answer string) (Turn, error) {
	if !category.IsKnown() {
		return Turn{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	t := Turn{
		Ordinal:  m.next,
		Question: question,
		Category: category,
		Answer:   answer,
		At:       m.now(),
	}
	m.next++
	m.turns = append(m.turns, t)
	logging.MemoryDebug("Appended turn %d (%s), log size %d", t.Ordinal, category, len(m.turns))
	return t, nil
}

// Lines yields the formatted last max turns, oldest first. The sequence is
// lazy and can be ranged over more than once.
func (m *ConversationMemory) Lines(max int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, t := range m.tail(max) {
			if !yield(t.Format()) {
				return
			}
		}
	}
}

// Render joins the last max turns with newlines. It returns "" when the log
// is empty or max <= 0.
func (m *ConversationMemory) Render(max int) string {
	var b strings.Builder
	for line := range m.Lines(max) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// Clear empties the log. Ordinals keep increasing so they stay unique for
// the session.
func (m *ConversationMemory) Clear() {
	logging.Memory("Cleared %d turns", len(m.turns))
	m.turns = nil
}

// Len returns the number of turns in the full log.
func (m *ConversationMemory) Len() int {
	return len(m.turns)
}

// Turns returns a copy of the full log.
func (m *ConversationMemory) Turns() []Turn {
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

func (m *ConversationMemory) tail(max int) []Turn {
	if max <= 0 || len(m.turns) == 0 {
		return nil
	}
	if max > len(m.turns) {
		max = len(m.turns)
	}
	return m.turns[len(m.turns)-max:]
}
