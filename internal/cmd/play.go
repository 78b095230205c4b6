package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/chessrelay/internal/gameclient"
	"github.com/BioHazard786/chessrelay/internal/ui"
)

const (
	seatTimeout  = 15 * time.Second
	flushTimeout = 2 * time.Second
)

var playCmd = &cobra.Command{
	Use:     "play",
	Aliases: []string{"p"},
	Short:   "Join the next free seat and play",
	Long: `Connect to the relay, get seated in a room and exchange moves with your opponent.

Moves are free text; the server relays them without checking legality.

Examples:
  chessrelay play
  chessrelay play --server wss://chess.example/ws --codec msgpack`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(cmd.Context())
	},
}

func play(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	spin := ui.NewConnectionSpinner("Connecting to " + cfg.ServerURL + "...")
	spin.Start()
	dialCtx, cancel := context.WithTimeout(ctx, seatTimeout)
	defer cancel()
	conn, err := NewConnectionContext(dialCtx, cfg)
	if err != nil {
		spin.Stop()
		return err
	}
	defer conn.Close()

	spin.SetMessage("Waiting for a seat...")
	assignment, err := conn.Handler.WaitAssigned(dialCtx)
	spin.Stop()
	if err != nil {
		return err
	}
	conn.Assignment = assignment

	fmt.Println(ui.AssignmentView(assignment.RoomID, assignment.Side, cfg.Codec))
	fmt.Println()

	summary, err := ui.RunGame(ui.GameOptions{
		RoomID: assignment.RoomID,
		Side:   assignment.Side,
		Events: forwardEvents(conn.Handler),
		Send: func(move string) error {
			sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return conn.Client.SendMove(sendCtx, assignment.RoomID, move)
		},
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ui.SessionSummaryView(summary))
	return nil
}

// forwardEvents turns the handler's typed channels into game screen events.
// The returned channel closes when the connection ends, after anything the
// handler still holds has been delivered.
func forwardEvents(h *gameclient.Handler) <-chan ui.GameEvent {
	out := make(chan ui.GameEvent, 8)

	go func() {
		defer close(out)

		for {
			select {
			case <-h.Disconnected:
				flushEvents(out, pendingEvents(h))
				return
			default:
			}

			var ev ui.GameEvent
			select {
			case move := <-h.Moves:
				ev = ui.GameEvent{Kind: ui.EventOpponentMove, Text: move}
			case <-h.OpponentLeft:
				ev = ui.GameEvent{Kind: ui.EventOpponentLeft}
			case roomID := <-h.RoomClosed:
				ev = ui.GameEvent{Kind: ui.EventRoomClosed, Text: roomID}
			case <-h.Disconnected:
				flushEvents(out, pendingEvents(h))
				return
			}

			select {
			case out <- ev:
			case <-h.Disconnected:
				flushEvents(out, append([]ui.GameEvent{ev}, pendingEvents(h)...))
				return
			}
		}
	}()

	return out
}

// pendingEvents drains the handler once it has stopped. room_closed is the
// last thing the server sends, so it goes last.
func pendingEvents(h *gameclient.Handler) []ui.GameEvent {
	var evs []ui.GameEvent
	for drained := false; !drained; {
		select {
		case move := <-h.Moves:
			evs = append(evs, ui.GameEvent{Kind: ui.EventOpponentMove, Text: move})
		default:
			drained = true
		}
	}

	select {
	case <-h.OpponentLeft:
		evs = append(evs, ui.GameEvent{Kind: ui.EventOpponentLeft})
	default:
	}

	select {
	case roomID := <-h.RoomClosed:
		evs = append(evs, ui.GameEvent{Kind: ui.EventRoomClosed, Text: roomID})
	default:
	}

	return evs
}

// flushEvents hands evs to the game screen, giving up once it stops reading.
func flushEvents(out chan<- ui.GameEvent, evs []ui.GameEvent) {
	timer := time.NewTimer(flushTimeout)
	defer timer.Stop()

	for _, ev := range evs {
		select {
		case out <- ev:
		case <-timer.C:
			return
		}
	}
}

func init() {
	rootCmd.AddCommand(playCmd)
}
