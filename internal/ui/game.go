package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// GameEventKind tells the game screen what happened on the connection.
type GameEventKind int

const (
	EventOpponentMove GameEventKind = iota
	EventOpponentLeft
	EventRoomClosed
	EventDisconnected
)

// GameEvent is fed to the game screen from the connection.
type GameEvent struct {
	Kind GameEventKind
	Text string
}

// GameOptions configures the game screen.
type GameOptions struct {
	RoomID string
	Side   protocol.Side

	// Events is closed when the connection ends.
	Events <-chan GameEvent

	// Send relays a move typed by the player.
	Send func(move string) error
}

type gameModel struct {
	opts         GameOptions
	input        textinput.Model
	log          viewport.Model
	lines        []string
	spinner      spinner.Model
	opponentGone bool
	summary      SessionSummary
	start        time.Time
	ended        bool
}

func newGameModel(opts GameOptions) *gameModel {
	in := textinput.New()
	in.Placeholder = "e2e4"
	in.Prompt = "move> "
	in.CharLimit = 64
	in.Width = 20
	in.Focus()

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = SpinnerStyle

	m := &gameModel{
		opts:    opts,
		input:   in,
		log:     viewport.New(60, 12),
		spinner: s,
		start:   time.Now(),
		summary: SessionSummary{RoomID: opts.RoomID, Side: opts.Side},
	}
	if opts.Side == protocol.First {
		m.appendLine(MutedStyle.Render("You play white and move first."))
	} else {
		m.appendLine(MutedStyle.Render("You play black. Waiting for white's move."))
	}
	return m
}

// RunGame shows the interactive game screen until the player quits or the
// room goes away, then reports what happened.
func RunGame(opts GameOptions) (SessionSummary, error) {
	m := newGameModel(opts)

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return SessionSummary{}, fmt.Errorf("game screen: %w", err)
	}

	gm := final.(*gameModel)
	gm.summary.Duration = time.Since(gm.start)
	return gm.summary, nil
}

func (m *gameModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.listen())
}

func (m *gameModel) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.opts.Events
		if !ok {
			return GameEvent{Kind: EventDisconnected}
		}
		return ev
	}
}

func (m *gameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.finish("you left")
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.log.Width = max(20, msg.Width-4)
		m.log.Height = max(5, msg.Height-8)
		m.log.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case GameEvent:
		return m, m.handleEvent(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *gameModel) submit() {
	move := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if move == "" || m.ended {
		return
	}

	if err := m.opts.Send(move); err != nil {
		m.appendLine(ErrorStyle.Render(IconError + " " + err.Error()))
		return
	}
	m.summary.MovesSent++
	m.appendLine(OwnMoveStyle.Render(fmt.Sprintf("%s you      %s", sideIcon(m.opts.Side), move)))
}

func (m *gameModel) handleEvent(ev GameEvent) tea.Cmd {
	switch ev.Kind {
	case EventOpponentMove:
		m.opponentGone = false
		m.summary.MovesReceived++
		m.appendLine(OpponentMoveStyle.Render(fmt.Sprintf("%s opponent %s", sideIcon(m.opts.Side.Opposite()), ev.Text)))

	case EventOpponentLeft:
		m.opponentGone = true
		m.appendLine(NoticeStyle.Render(IconLeft + " Your opponent left. Waiting for a replacement..."))

	case EventRoomClosed:
		m.appendLine(NoticeStyle.Render(IconClosed + " The room was closed by the server."))
		m.finish("room closed")
		return tea.Quit

	case EventDisconnected:
		m.finish("disconnected")
		return tea.Quit
	}

	return m.listen()
}

func (m *gameModel) finish(outcome string) {
	if m.ended {
		return
	}
	m.ended = true
	m.summary.Outcome = outcome
}

func (m *gameModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.log.SetContent(strings.Join(m.lines, "\n"))
	m.log.GotoBottom()
}

func (m *gameModel) View() string {
	var b strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		HeaderStyle.Render(IconBoard+" chessrelay "+m.opts.RoomID),
		" ",
		SideBadge(m.opts.Side),
	)
	b.WriteString(header + "\n\n")
	b.WriteString(m.log.View() + "\n\n")

	if m.opponentGone && !m.ended {
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), WarningStyle.Render("Opponent away")))
	}
	b.WriteString(m.input.View())
	b.WriteString(FooterStyle.Render("enter: send move • esc: leave"))

	return b.String()
}

func sideIcon(s protocol.Side) string {
	if s == protocol.Second {
		return IconBlackKing
	}
	return IconWhiteKing
}
