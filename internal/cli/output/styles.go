package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	Code    lipgloss.Style
}

// NewStyles builds styles bound to a lipgloss renderer so color detection
// follows the renderer's writer.
func NewStyles(re *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:  re.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: re.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: re.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   re.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Muted:   re.NewStyle().Faint(true),
		Key:     re.NewStyle().Bold(true),
		Code:    re.NewStyle().Foreground(lipgloss.Color("14")),
	}
}
