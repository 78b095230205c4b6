package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// LineSpinner animates a single status line while the CLI blocks on the
// network. It does not need a bubbletea program.
type LineSpinner struct {
	mu      sync.Mutex
	message string
	frames  spinner.Spinner
	done    chan struct{}
	once    sync.Once
}

// NewConnectionSpinner is shown while dialing the relay.
func NewConnectionSpinner(message string) *LineSpinner {
	return newLineSpinner(message, spinner.Globe)
}

// NewWaitingSpinner is shown while waiting for the server to seat us.
func NewWaitingSpinner(message string) *LineSpinner {
	return newLineSpinner(message, spinner.Points)
}

func newLineSpinner(message string, frames spinner.Spinner) *LineSpinner {
	return &LineSpinner{
		message: message,
		frames:  frames,
		done:    make(chan struct{}),
	}
}

func (s *LineSpinner) Start() {
	go func() {
		ticker := time.NewTicker(s.frames.FPS)
		defer ticker.Stop()

		for i := 0; ; i++ {
			s.mu.Lock()
			select {
			case <-s.done:
				s.mu.Unlock()
				return
			default:
			}
			frame := SpinnerStyle.Render(s.frames.Frames[i%len(s.frames.Frames)])
			fmt.Printf("\r\033[K%s %s", frame, s.message)
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop clears the line. Safe to call more than once.
func (s *LineSpinner) Stop() {
	s.once.Do(func() {
		s.mu.Lock()
		close(s.done)
		fmt.Print("\r\033[K")
		s.mu.Unlock()
	})
}

func (s *LineSpinner) Success(message string) {
	s.Stop()
	PrintSuccess(message)
}

func (s *LineSpinner) Error(message string) {
	s.Stop()
	PrintError(message)
}

func (s *LineSpinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}
