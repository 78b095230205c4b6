package ui

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/BioHazard786/chessrelay/internal/lobby"
	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// StatsView renders a server snapshot as a table.
func StatsView(s lobby.Stats) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Rooms")
	t.Style().Title.Align = text.AlignCenter
	t.Style().Color.Header = text.Colors{text.Bold, text.FgYellow}
	t.Style().Format.Footer = text.FormatDefault

	t.AppendHeader(table.Row{"Room", "White", "Black", "Cleanup"})
	for _, r := range s.RoomList {
		t.AppendRow(table.Row{
			r.ID,
			seatMark(r.Sides, protocol.First),
			seatMark(r.Sides, protocol.Second),
			cleanupMark(r.PendingCleanup),
		})
	}
	if len(s.RoomList) == 0 {
		t.AppendRow(table.Row{"-", "", "", ""})
	}

	t.AppendFooter(table.Row{"Total", fmt.Sprintf("%d rooms", s.Rooms), fmt.Sprintf("%d players", s.Participants), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignCenter, AlignFooter: text.AlignCenter},
		{Number: 3, Align: text.AlignCenter, AlignFooter: text.AlignCenter},
	})

	return t.Render()
}

func seatMark(sides []protocol.Side, want protocol.Side) string {
	for _, s := range sides {
		if s == want {
			return "●"
		}
	}
	return "○"
}

func cleanupMark(pending bool) string {
	if pending {
		return "pending"
	}
	return ""
}
