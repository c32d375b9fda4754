// Package status provides the status bar for the sync monitor.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/stockline/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/stockline/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/stockline/internal/core/domain"
)

// Bar displays the sync indicator, pending counts and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model
	state   domain.SyncState
	busy    bool
	message string
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(s.Warning))

	return &Bar{
		styles:  s,
		keymap:  km,
		spinner: sp,
		width:   80,
	}
}

// Init starts the spinner.
func (s *Bar) Init() tea.Cmd {
	return s.spinner.Tick
}

// Update advances the spinner.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	ind := s.state.Indicator()
	parts := []string{s.styles.Indicator(ind).Render(string(ind))}
	if s.busy || ind == domain.IndicatorSyncing {
		parts = append(parts, s.spinner.View())
	}
	if s.state.PendingTotal > 0 {
		parts = append(parts, s.styles.Normal.Render(fmt.Sprintf(
			"%d pending (%d local, %d server)",
			s.state.PendingTotal, s.state.ClientPending, s.state.ServerPending)))
	}
	if s.message != "" {
		parts = append(parts, s.styles.Error.Render(s.message))
	}
	return strings.Join(parts, " ")
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// HelpLine renders every binding on one line.
func (s *Bar) HelpLine(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s %s", h.Key, h.Desc))
	}
	return s.styles.Help.Render(strings.Join(hints, "  "))
}

// SetState sets the displayed sync summary.
func (s *Bar) SetState(state domain.SyncState) {
	s.state = state
}

// State returns the displayed sync summary.
func (s *Bar) State() domain.SyncState {
	return s.state
}

// SetBusy shows the spinner while a request is in flight.
func (s *Bar) SetBusy(busy bool) {
	s.busy = busy
}

// Busy reports whether a request is in flight.
func (s *Bar) Busy() bool {
	return s.busy
}

// SetMessage sets an error message; empty clears it.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}
