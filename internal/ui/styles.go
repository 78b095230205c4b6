package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// Color palette
var (
	Primary    = lipgloss.Color("#E2B04A") // Brass
	Secondary  = lipgloss.Color("#8B5CF6") // Violet
	Success    = lipgloss.Color("#22C55E") // Green
	Warning    = lipgloss.Color("#F59E0B") // Amber
	Error      = lipgloss.Color("#EF4444") // Red
	Muted      = lipgloss.Color("#6B7280") // Gray
	LightSide  = lipgloss.Color("#F5F0E6") // Ivory
	DarkSide   = lipgloss.Color("#1C1917") // Ebony
	BoardGreen = lipgloss.Color("#769656")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	WhiteBadge = lipgloss.NewStyle().
			Foreground(DarkSide).
			Background(LightSide).
			Padding(0, 1).
			Bold(true)

	BlackBadge = lipgloss.NewStyle().
			Foreground(LightSide).
			Background(DarkSide).
			Padding(0, 1).
			Bold(true)
)

// Move log styles
var (
	OwnMoveStyle = lipgloss.NewStyle().
			Foreground(Primary)

	OpponentMoveStyle = lipgloss.NewStyle().
				Foreground(Secondary)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Italic(true)
)

// Box styles
var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	BoardBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(BoardGreen).
			Padding(1, 2)
)

// Table styles
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Primary).
				Align(lipgloss.Center)

	tableCellStyle = lipgloss.NewStyle().Padding(0, 1)

	TableRowStyle = tableCellStyle.Foreground(lipgloss.Color("255"))

	TableRowAltStyle = tableCellStyle.Foreground(lipgloss.Color("245"))
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Background(lipgloss.Color("#292524")).
			Padding(0, 2)

	FooterStyle = lipgloss.NewStyle().
			Foreground(Muted).
			MarginTop(1)
)

var SpinnerStyle = lipgloss.NewStyle().Foreground(Primary)

// Icons
const (
	IconWhiteKing = "♔"
	IconBlackKing = "♚"
	IconBoard     = "♟"
	IconSuccess   = "✅"
	IconError     = "❌"
	IconWarning   = "⚠️"
	IconInfo      = "ℹ️"
	IconRoom      = "🚪"
	IconConnect   = "🔌"
	IconWaiting   = "⏳"
	IconLeft      = "👋"
	IconClosed    = "🔒"
	IconTime      = "⏱️"
)

// SideBadge renders a side in its own colors.
func SideBadge(s protocol.Side) string {
	switch s {
	case protocol.First:
		return WhiteBadge.Render(IconWhiteKing + " " + s.String())
	case protocol.Second:
		return BlackBadge.Render(IconBlackKing + " " + s.String())
	default:
		return MutedStyle.Render("?")
	}
}

func PrintError(msg string) {
	fmt.Printf("%s %s\n", ErrorStyle.Render(IconError), ErrorStyle.Render(msg))
}

func PrintWarning(msg string) {
	fmt.Printf("%s %s\n", WarningStyle.Render(IconWarning), WarningStyle.Render(msg))
}

func PrintSuccess(msg string) {
	fmt.Printf("%s %s\n", SuccessStyle.Render(IconSuccess), msg)
}

func PrintInfo(msg string) {
	fmt.Printf("%s %s\n", IconInfo, msg)
}

func PrintInfof(format string, args ...any) {
	PrintInfo(fmt.Sprintf(format, args...))
}
