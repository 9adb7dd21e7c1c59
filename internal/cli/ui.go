package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// =============================================================================
// Styles
// =============================================================================

var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorErr    = lipgloss.Color("167")
	colorLink   = lipgloss.Color("75")
	colorText   = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleLink    = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	StyleDim     = lipgloss.NewStyle().Foreground(colorFaint)
	StyleValue   = lipgloss.NewStyle().Foreground(colorText)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorOK)
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarn)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleKey         = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
	styleHeader      = lipgloss.NewStyle().Foreground(colorMuted).Bold(true).Padding(0, 1)
	styleCell        = lipgloss.NewStyle().Padding(0, 1)
)

// status line prefixes
var (
	markSuccess = StyleSuccess.Render("✓")
	markError   = lipgloss.NewStyle().Foreground(colorErr).Render("✗")
	markWarning = StyleWarning.Render("!")
	markInfo    = lipgloss.NewStyle().Foreground(colorMuted).Render("›")
)

// =============================================================================
// Output
// =============================================================================

func printLine(s string) {
	fmt.Fprintln(stdout, s)
}

func printMarked(mark, format string, args ...any) {
	printLine(mark + " " + fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { printMarked(markSuccess, format, args...) }
func printError(format string, args ...any)   { printMarked(markError, format, args...) }
func printInfo(format string, args ...any)    { printMarked(markInfo, format, args...) }

func printWarning(format string, args ...any) {
	printMarked(markWarning, "%s", StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	printLine("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	printLine("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	printLine(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printAdStats prints size, raster strategy and where the artifact came from.
func printAdStats(width, height int, strategy string, cached, degraded bool) {
	origin := StyleDim.Render("fresh")
	switch {
	case degraded:
		origin = StyleWarning.Render("placeholder")
	case cached:
		origin = StyleSuccess.Render("cached")
	}
	parts := []string{StyleDim.Render(fmt.Sprintf("%d×%d", width, height)), StyleDim.Render(strategy), origin}
	printLine("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return styleCell
		}).
		Render()
}
