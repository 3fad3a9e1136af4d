package notes

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0AF")).
			Background(lipgloss.Color("transparent")).
			Bold(true).
			Padding(0, 1)

	statusBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#0AF", Dark: "#0AF"})

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F55")).
				Bold(true)

	previewSummaryStyle = statusBannerStyle.Copy().
				Padding(0, 1)

	statusStyle = statusBannerStyle.Render

	focusedStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("#0AF")).
			Foreground(lipgloss.Color("#FFF"))

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0AF")).
				Background(lipgloss.Color("#224")).
				Padding(0, 0)

	listStyle = lipgloss.NewStyle().
			MarginRight(1).
			Border(lipgloss.NormalBorder(), false, false, false, false).
			BorderForeground(lipgloss.Color("#334455"))

	previewStyle = lipgloss.NewStyle().
			MarginLeft(1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#334455"))

	editorStyle = previewStyle.Copy()

	editorFocusedStyle = previewStyle.Copy().
				BorderForeground(lipgloss.Color("#0AF"))

	textPromptStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#334455")).
			Padding(0, 1)

	modeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000")).
			Background(lipgloss.Color("#cba6f7")).
			Padding(0, 1)

	cursorStyle    = focusedStyle.Copy()
	selectionStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#445")).
			Foreground(lipgloss.Color("#FFF"))
	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCC"))
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#cba6f7"))
)

// codeStyle colours text covered by a segment of a code with colour hex.
func codeStyle(hex string) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hex)).
		Foreground(lipgloss.Color("#111"))
}

func renderHelpWithinWidth(width int, content string) string {
	if width <= 0 {
		return helpStyle.Render(content)
	}

	return helpStyle.Copy().
		Width(width).
		MaxWidth(width).
		Render(content)
}
