package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/stockline/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/stockline/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/stockline/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/stockline/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/stockline/internal/core/domain"
)

// App is the sync monitor following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	bar    *status.Bar

	// records are the outstanding and failed writes.
	records []domain.MutationRecord
	cursor  int

	showHelp bool

	// updates buffers the latest summary pushed by the aggregator.
	updates     chan domain.SyncState
	unsubscribe func()
	closeOnce   sync.Once

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the monitor and subscribes to sync summaries.
// Call Close when the program exits.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		ports:   ports,
		ctx:     context.Background(),
		styles:  s,
		keymap:  km,
		bar:     status.NewBar(s, km),
		updates: make(chan domain.SyncState, 1),
		width:   80,
	}
	a.bar.SetState(ports.Sync.State())
	a.unsubscribe = ports.Sync.Subscribe(a.push)
	return a, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// push keeps only the newest summary so a slow UI never blocks the aggregator.
func (a *App) push(st domain.SyncState) {
	for {
		select {
		case a.updates <- st:
			return
		default:
		}
		select {
		case <-a.updates:
		default:
		}
	}
}

// Close stops the subscription.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
	})
}

// Init starts the spinner, the subscription listener and the first loads.
func (a *App) Init() tea.Cmd {
	a.bar.SetBusy(true)
	return tea.Batch(
		a.bar.Init(),
		a.waitForState(),
		a.refresh(),
		a.loadQueue(),
	)
}

// Update handles messages and returns the updated model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.bar, cmd = a.bar.Update(msg)
		return a, cmd

	case messages.StateChanged:
		a.bar.SetState(msg.State)
		return a, tea.Batch(a.waitForState(), a.loadQueue())

	case messages.RefreshCompleted:
		a.bar.SetBusy(false)
		a.bar.SetState(msg.State)
		a.setError(msg.Err)
		return a, nil

	case messages.QueueLoaded:
		a.records = msg.Records
		if a.cursor >= len(a.records) {
			a.cursor = max(len(a.records)-1, 0)
		}
		return a, nil

	case messages.FlushCompleted:
		a.bar.SetBusy(false)
		a.setError(msg.Err)
		return a, a.loadQueue()

	case messages.AckCompleted:
		return a, a.loadQueue()

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		a.Close()
		return a, tea.Quit
	case key.Matches(msg, a.keymap.Help):
		a.showHelp = !a.showHelp
	case key.Matches(msg, a.keymap.Refresh):
		a.bar.SetBusy(true)
		return a, a.refresh()
	case key.Matches(msg, a.keymap.Flush):
		a.bar.SetBusy(true)
		return a, a.flush()
	case key.Matches(msg, a.keymap.Ack):
		return a, a.ack()
	case key.Matches(msg, a.keymap.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keymap.Down):
		if a.cursor < len(a.records)-1 {
			a.cursor++
		}
	}
	return a, nil
}

func (a *App) setError(err error) {
	if err != nil {
		a.bar.SetMessage(err.Error())
		return
	}
	a.bar.SetMessage("")
}

func (a *App) waitForState() tea.Cmd {
	return func() tea.Msg {
		st, ok := <-a.updates
		if !ok {
			return nil
		}
		return messages.StateChanged{State: st}
	}
}

func (a *App) refresh() tea.Cmd {
	return func() tea.Msg {
		st, err := a.ports.Sync.Refresh(a.ctx)
		return messages.RefreshCompleted{State: st, Err: err}
	}
}

func (a *App) loadQueue() tea.Cmd {
	return func() tea.Msg {
		return messages.QueueLoaded{Records: a.ports.Queue.Records()}
	}
}

func (a *App) flush() tea.Cmd {
	return func() tea.Msg {
		return messages.FlushCompleted{Err: a.ports.Queue.Flush(a.ctx)}
	}
}

func (a *App) ack() tea.Cmd {
	return func() tea.Msg {
		return messages.AckCompleted{Dismissed: a.ports.Queue.AckAll()}
	}
}

// View renders the monitor.
func (a *App) View() string {
	var b strings.Builder
	st := a.bar.State()

	b.WriteString(a.styles.Title.Render("stockline sync"))
	b.WriteString("\n")
	b.WriteString(a.summaryLine("Network", onOff(st.IsOnline, "online", "offline")))
	b.WriteString(a.summaryLine("Server", onOff(st.ServerReady, "ready", "not ready")))
	b.WriteString(a.summaryLine("Local queue", fmt.Sprintf("%d", st.ClientPending)))
	b.WriteString(a.summaryLine("Server queue", fmt.Sprintf("%d", st.ServerPending)))
	b.WriteString("\n")

	if len(a.records) == 0 {
		b.WriteString(a.styles.Muted.Render("No queued writes"))
		b.WriteString("\n")
	}
	for i, r := range a.records {
		b.WriteString(a.recordLine(i, r))
		b.WriteString("\n")
	}

	if a.showHelp {
		b.WriteString("\n")
		b.WriteString(a.bar.HelpLine(a.keymap.FullHelp()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.bar.View())
	return b.String()
}

func (a *App) summaryLine(label, value string) string {
	return fmt.Sprintf("%s %s\n", a.styles.Muted.Render(fmt.Sprintf("%-13s", label+":")), a.styles.Normal.Render(value))
}

func (a *App) recordLine(i int, r domain.MutationRecord) string {
	prefix := "  "
	if i == a.cursor {
		prefix = "> "
	}
	line := fmt.Sprintf("%-8s %-26s %s", r.Status, r.Key, r.CreatedAt.Format("15:04:05"))
	if r.Subject != 0 {
		line += fmt.Sprintf("  #%d", r.Subject)
	}
	if r.Error != "" {
		line += "  " + r.Error
	}
	return prefix + a.styles.MutationStatus(r.Status).Render(line)
}

func onOff(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.bar.SetWidth(width)
}

// Records returns the writes currently displayed.
func (a *App) Records() []domain.MutationRecord {
	return a.records
}

// Cursor returns the selected record index.
func (a *App) Cursor() int {
	return a.cursor
}

// ShowingHelp reports whether the full help line is visible.
func (a *App) ShowingHelp() bool {
	return a.showHelp
}

// State returns the displayed sync summary.
func (a *App) State() domain.SyncState {
	return a.bar.State()
}
