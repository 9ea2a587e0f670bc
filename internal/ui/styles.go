package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette
var (
	ColorAccent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	ColorPass   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#73D08F"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#F2B84B"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#F7768E"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"}
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	failStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	accentStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
)

// InitColor picks the color profile once at startup. Color is dropped
// entirely when ShouldUseColor says no or noColor is set.
func InitColor(noColor bool) {
	if noColor || !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// RenderPass renders s as a success marker.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders s as a warning marker.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail renders s as an error marker.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderMuted renders secondary text.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderAccent renders a highlighted name.
func RenderAccent(s string) string { return accentStyle.Render(s) }
