package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// AssignmentView renders the room the server seated us in.
func AssignmentView(roomID string, side protocol.Side, codec string) string {
	content := fmt.Sprintf("%s Seated!\n\n%s Room:   %s\n%s Side:   %s\n%s Codec:  %s",
		IconBoard,
		IconRoom, BoldStyle.Foreground(Primary).Render(roomID),
		IconBoard, SideBadge(side),
		IconConnect, MutedStyle.Render(codec),
	)
	return BoardBoxStyle.Render(content)
}

// SessionSummary is printed when the game screen closes.
type SessionSummary struct {
	RoomID        string
	Side          protocol.Side
	MovesSent     int
	MovesReceived int
	Outcome       string
	Duration      time.Duration
}

func SessionSummaryView(s SessionSummary) string {
	rows := [][]string{
		{"Room", s.RoomID},
		{"Side", s.Side.String()},
		{"Moves sent", fmt.Sprintf("%d", s.MovesSent)},
		{"Moves received", fmt.Sprintf("%d", s.MovesReceived)},
		{"Outcome", s.Outcome},
		{"Duration", s.Duration.Round(time.Second).String()},
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Session", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}
