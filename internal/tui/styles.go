package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/wandb/threadline/internal/timeline"
)

// Layout constants
const (
	HeaderHeight    = 1
	AxisHeight      = 2
	StatusBarHeight = 1
	MinPlotWidth    = 10
)

// Brand color
const accentColor = lipgloss.Color("#FCBC32")

const (
	blockRune    = '█'
	emptyRune    = ' '
	rulerRune    = '─'
	tickRune     = '┴'
	selectedRune = '▼'
	hoverRune    = '▽'
	brailleBlank = '⠀'
)

// stateColors maps timeline state codes to cell colors.
var stateColors = map[int64]lipgloss.Color{
	timeline.StateUnknown:  lipgloss.Color("238"),
	timeline.StateRunning:  lipgloss.Color("#3FB950"),
	timeline.StateSleeping: lipgloss.Color("#58A6FF"),
	timeline.StateWaiting:  lipgloss.Color("#D29922"),
	timeline.StateBlocked:  lipgloss.Color("#F85149"),
	timeline.StateIdle:     lipgloss.Color("245"),
	timeline.StateStopped:  lipgloss.Color("#BC8CFF"),
	timeline.StateZombie:   lipgloss.Color("#8B1A1A"),
}

// Cell styles, keyed by cellStyle.
var (
	blankStyle   = lipgloss.NewStyle()
	counterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E281FE"))
	axisStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(accentColor).
			Bold(true)

	highlightedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("252"))
)

// Row name column styles
var (
	nameStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	focusedNameStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	separatorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// Header and status bar styles
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Bold(true)

	headerFlagStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#2B3038"}).
			Background(lipgloss.AdaptiveColor{Light: "#4ECDC4", Dark: "#E1F7FA"})
)

// Help screen styles
var (
	helpKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Width(20) // helpKeyWidth

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor).
				MarginTop(1).
				MarginBottom(1)

	helpContentStyle = lipgloss.NewStyle().
				MarginLeft(2).
				MarginTop(1)
)

// stateStyle returns the cell style for a state code.
func stateStyle(code int64) lipgloss.Style {
	color, ok := stateColors[code]
	if !ok {
		color = stateColors[timeline.StateUnknown]
	}
	return lipgloss.NewStyle().Foreground(color)
}
