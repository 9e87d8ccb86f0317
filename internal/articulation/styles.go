package articulation

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	Primary     = lipgloss.Color("#8BC34A") // Lime Green
	Accent      = lipgloss.Color("#2196F3") // Blue
	Muted       = lipgloss.Color("#6b7785")
	Destructive = lipgloss.Color("#e53935")
	Warning     = lipgloss.Color("#FFC107")
)

// Styles groups the lipgloss styles used by the Renderer.
type Styles struct {
	Banner   lipgloss.Style
	Subtitle lipgloss.Style
	Prompt   lipgloss.Style
	Heading  lipgloss.Style
	Category lipgloss.Style
	Option   lipgloss.Style
	Muted    lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

// DefaultStyles returns the tutor's terminal styles.
func DefaultStyles() Styles {
	return Styles{
		Banner: lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 2),

		Subtitle: lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true),

		Prompt: lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true),

		Heading: lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true),

		Category: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(Accent).
			Padding(0, 1).
			Bold(true),

		Option: lipgloss.NewStyle().
			PaddingLeft(2),

		Muted: lipgloss.NewStyle().
			Foreground(Muted),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),
	}
}
