package ui

import "github.com/charmbracelet/lipgloss"

// Brand and status colors for the catalog browser.
const (
	colorBrand   = "#E50914" // titles and headers
	colorOK      = "#04B575" // playback ready
	colorError   = "#FF0000"
	colorWarning = "#FFA500" // not-watchable notices
	colorMuted   = "#626262" // help lines
)

// palette is the stylesheet shared by every view; one [lipgloss.Style] per role.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

var styles = palette{
	title: bold(colorBrand).MarginBottom(1),
	ok:    bold(colorOK),
	err:   bold(colorError),
	warn:  fg(colorWarning),
	help:  fg(colorMuted).Italic(true),
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func bold(color string) lipgloss.Style {
	return fg(color).Bold(true)
}
