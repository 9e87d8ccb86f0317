// Package articulation renders the tutor's conversation to the terminal.
//
// On a TTY answers are rendered as markdown with glamour and chrome is
// styled with lipgloss. Anywhere else (pipes, files, tests) the same text is
// written plain.
package articulation

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"pathtutor/internal/logging"
	"pathtutor/internal/taxonomy"
)

// Fixed interface strings.
const (
	WelcomeTitle      = "Welcome to Pathway Tutor - Your AI Learning Companion!"
	QuestionPrompt    = "What would you like to learn about? "
	FollowUpPrompt    = "What specifically would you like to follow up on? "
	NewQuestionPrompt = "What new question would you like to ask? "
	ChoicePrompt      = "Choice (1-3): "
	InvalidChoice     = "Please choose a valid option."
	InterruptNotice   = "Session interrupted. Type 'exit' to quit or ask another question."
	Goodbye           = "Thank you for learning with Pathway Tutor!"
)

// Examples gives one sample question per category for the menu.
var Examples = map[taxonomy.Category]string{
	taxonomy.DefinitionBased:    "What is a closure?",
	taxonomy.ConceptExplanation: "How does recursion work?",
	taxonomy.ProblemSolving:     "How do I find the median of two sorted lists?",
	taxonomy.Comparison:         "What is the difference between a list and a tuple?",
	taxonomy.ProcessGuide:       "How do I set up a virtual environment?",
	taxonomy.DoubtClearing:      "Why does my loop variable keep its last value?",
	taxonomy.PythonCode:         "Write a function that reverses a string.",
	taxonomy.PythonDebug:        "Why does this raise IndexError: list index out of range?",
}

// Renderer writes tutor output to a single writer.
type Renderer struct {
	out      io.Writer
	styled   bool
	wordWrap int
	styles   Styles
	md       *glamour.TermRenderer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyled forces styled (true) or plain (false) output.
func WithStyled(styled bool) Option {
	return func(r *Renderer) { r.styled = styled }
}

// WithWordWrap sets the markdown wrap width.
func WithWordWrap(width int) Option {
	return func(r *Renderer) { r.wordWrap = width }
}

// NewRenderer creates a Renderer. Output is styled when out is a terminal.
func NewRenderer(out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{
		out:      out,
		styled:   IsTerminal(out),
		wordWrap: 80,
		styles:   DefaultStyles(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.styled {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(r.wordWrap),
		)
		if err != nil {
			logging.ArticulationDebug("glamour renderer unavailable, using plain answers: %v", err)
		} else {
			r.md = md
		}
	}
	return r
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Styled reports whether the renderer emits ANSI styling.
func (r *Renderer) Styled() bool {
	return r.styled
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) println(text string) {
	fmt.Fprintln(r.out, text)
}

// Welcome prints the session banner.
func (r *Renderer) Welcome() {
	r.println("")
	if r.styled {
		r.println(r.styles.Banner.Render(WelcomeTitle))
	} else {
		rule := strings.Repeat("*", len(WelcomeTitle))
		r.println(rule)
		r.println(WelcomeTitle)
		r.println(rule)
	}
	r.println("")
	r.println(r.style(r.styles.Subtitle, "I'll help you understand concepts through guided learning."))
	r.println(r.style(r.styles.Subtitle, "Type 'menu' anytime to see options or 'exit' to quit."))
}

// Menu lists the session options and the kinds of question the tutor
// answers, with an example for each.
func (r *Renderer) Menu(specialists []taxonomy.Specialist) {
	r.println("")
	r.println(r.style(r.styles.Heading, "Options:"))
	for _, line := range []string{
		"1. Ask a new question",
		"2. Clarify previous answer",
		"3. Go deeper into current topic",
		"4. Change subject",
		"5. Exit",
	} {
		r.println(r.style(r.styles.Option, line))
	}

	if len(specialists) == 0 {
		return
	}
	r.println("")
	r.println(r.style(r.styles.Heading, "I can help with:"))
	for _, s := range specialists {
		line := "- " + string(s.Category)
		if ex, ok := Examples[s.Category]; ok {
			line += " " + r.style(r.styles.Muted, fmt.Sprintf("(e.g. %q)", ex))
		}
		r.println(r.style(r.styles.Option, line))
	}
}

// Prompt writes a prompt on a fresh line, without a trailing newline.
func (r *Renderer) Prompt(text string) {
	fmt.Fprint(r.out, "\n"+r.style(r.styles.Prompt, text))
}

// Category announces the classification of the current question.
func (r *Renderer) Category(c taxonomy.Category) {
	r.println("Question category: " + r.style(r.styles.Category, string(c)))
}

// Result presents a specialist answer.
func (r *Renderer) Result(c taxonomy.Category, output string) {
	r.println("")
	r.println(r.style(r.styles.Heading, strings.Repeat("=", 50)))
	r.println("Category: " + r.style(r.styles.Category, string(c)))
	r.println(r.style(r.styles.Heading, "Guidance:"))
	r.println(r.Markdown(output))
}

// Markdown renders text through glamour when styled.
func (r *Renderer) Markdown(text string) string {
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		logging.ArticulationDebug("markdown render failed: %v", err)
		return text
	}
	return strings.TrimRight(out, "\n")
}

// FollowUpMenu prints the follow-up choices and the choice prompt.
func (r *Renderer) FollowUpMenu() {
	r.println("")
	r.println("Would you like to:")
	r.println(r.style(r.styles.Option, "1. Ask follow-up"))
	r.println(r.style(r.styles.Option, "2. New question"))
	r.println(r.style(r.styles.Option, "3. Exit"))
	fmt.Fprint(r.out, r.style(r.styles.Prompt, ChoicePrompt))
}

// Unhandled reports a category with no specialist.
func (r *Renderer) Unhandled(label string) {
	r.println(r.style(r.styles.Warning, fmt.Sprintf("Category '%s' not handled yet or irrelevant.", label)))
}

// Invalid reports an unrecognized follow-up choice.
func (r *Renderer) Invalid() {
	r.println("")
	r.println(r.style(r.styles.Warning, InvalidChoice))
}

// Interrupted reports a soft interrupt.
func (r *Renderer) Interrupted() {
	r.println("")
	r.println(r.style(r.styles.Warning, InterruptNotice))
}

// Error reports a failed turn.
func (r *Renderer) Error(err error) {
	r.println("")
	r.println(r.style(r.styles.Error, "Error: "+err.Error()))
}

// Farewell prints the goodbye line.
func (r *Renderer) Farewell() {
	r.println("")
	r.println(r.style(r.styles.Heading, Goodbye))
}

// Line writes text followed by a newline.
func (r *Renderer) Line(text string) {
	r.println(text)
}
