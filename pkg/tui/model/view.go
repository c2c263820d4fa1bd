package model

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	logStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// View renders the console.
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		a.output.View(),
		a.renderStatusBar(),
		a.input.View(),
	)
}

func (a App) renderStatusBar() string {
	left := a.statusMsg
	if left == "" {
		left = fmt.Sprintf("%d sources  %d lines", a.active, len(a.lines))
		if !a.output.AtBottom() {
			left += "  [scrolled]"
		}
	}
	right := "tab:complete ↑↓:history pgup/pgdn:scroll ctrl+c:quit"

	left = runewidth.Truncate(left, max(a.width-runewidth.StringWidth(right)-1, 1), "…")
	gap := a.width - runewidth.StringWidth(left) - runewidth.StringWidth(right)
	if gap < 1 {
		return statusStyle.Width(a.width).Render(runewidth.Truncate(left, a.width, "…"))
	}
	return statusStyle.Width(a.width).Render(left + strings.Repeat(" ", gap) + right)
}
