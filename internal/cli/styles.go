package cli

import "github.com/charmbracelet/lipgloss"

// Theme holds the color scheme for CLI output.
type Theme struct {
	Speaker lipgloss.Color
	Reply   lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Speaker: lipgloss.Color("#D75FD7"), // magenta
	Reply:   lipgloss.Color("#FFFFFF"), // white
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) speakerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Speaker).Bold(true)
}

func (t Theme) replyStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Reply)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}
