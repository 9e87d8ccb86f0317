package articulation

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathtutor/internal/taxonomy"
)

func plain() (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewRenderer(&buf), &buf
}

func TestNewRenderer_PlainForNonTerminal(t *testing.T) {
	r, _ := plain()
	assert.False(t, r.Styled())
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestWelcome(t *testing.T) {
	r, buf := plain()
	r.Welcome()

	out := buf.String()
	assert.Contains(t, out, WelcomeTitle)
	assert.Contains(t, out, "Type 'menu' anytime")
	assert.NotContains(t, out, "\x1b[")
}

func TestMenu_ListsOptionsAndSpecialists(t *testing.T) {
	tax, err := taxonomy.Default()
	require.NoError(t, err)

	r, buf := plain()
	r.Menu(tax.Specialists())

	out := buf.String()
	assert.Contains(t, out, "5. Exit")
	for _, c := range taxonomy.Labels() {
		assert.Contains(t, out, "- "+string(c))
		assert.Contains(t, out, Examples[c])
	}
}

func TestMenu_WithoutSpecialists(t *testing.T) {
	r, buf := plain()
	r.Menu(nil)

	assert.Contains(t, buf.String(), "5. Exit")
	assert.NotContains(t, buf.String(), "I can help with")
}

func TestResult_PlainKeepsOutputVerbatim(t *testing.T) {
	r, buf := plain()
	r.Result(taxonomy.Comparison, "**lists** are mutable")

	out := buf.String()
	assert.Contains(t, out, "Category: Comparison")
	assert.Contains(t, out, "**lists** are mutable")
}

func TestNotices(t *testing.T) {
	r, buf := plain()
	r.Unhandled("Astrology")
	r.Invalid()
	r.Interrupted()
	r.Error(errors.New("provider down"))
	r.Farewell()

	out := buf.String()
	assert.Contains(t, out, "Category 'Astrology' not handled yet or irrelevant.")
	assert.Contains(t, out, InvalidChoice)
	assert.Contains(t, out, InterruptNotice)
	assert.Contains(t, out, "Error: provider down")
	assert.Contains(t, out, Goodbye)
}

func TestFollowUpMenu(t *testing.T) {
	r, buf := plain()
	r.FollowUpMenu()

	out := buf.String()
	assert.Contains(t, out, "1. Ask follow-up\n")
	assert.Contains(t, out, "2. New question\n")
	assert.Contains(t, out, "3. Exit\n")
	assert.True(t, strings.HasSuffix(out, ChoicePrompt))
}

func TestStyled_RendersMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, WithStyled(true), WithWordWrap(60))
	require.True(t, r.Styled())

	out := r.Markdown("# Title\n\nSome *text*.")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "text")
	assert.False(t, strings.HasSuffix(out, "\n"))
}
