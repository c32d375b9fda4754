// Package keymap defines keybindings for the sync monitor.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings.
type KeyMap struct {
	// Quit exits the monitor.
	Quit key.Binding

	// Help toggles the full help line.
	Help key.Binding

	// Refresh fetches the server status.
	Refresh key.Binding

	// Flush sends writes queued while offline.
	Flush key.Binding

	// Ack dismisses every failed write.
	Ack key.Binding

	Up   key.Binding
	Down key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Flush: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "send queued"),
		),
		Ack: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "dismiss failed"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Flush, k.Help, k.Quit}
}

// FullHelp returns every binding.
func (k *KeyMap) FullHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Refresh, k.Flush, k.Ack, k.Help, k.Quit}
}
