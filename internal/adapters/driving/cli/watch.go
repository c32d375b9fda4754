package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/stockline/internal/adapters/driving/tui"
	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/logger"
)

var syncWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor sync status while the pollers run",
	Long: `Run the background pollers and show the sync status as it changes.

On a terminal this opens an interactive monitor:
  r      - Refresh server status
  f      - Send queued writes
  a      - Dismiss failed writes
  ↑/k ↓/j - Move through the queue
  ?      - Toggle help
  q      - Quit

Otherwise every change is printed as a line until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runSyncWatch,
}

func init() {
	syncCmd.AddCommand(syncWatchCmd)
}

func runSyncWatch(cmd *cobra.Command, _ []string) error {
	if syncStatus == nil || mutationQueue == nil {
		return errors.New("sync services not configured")
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	// Pollers, status fetches and probes only run while watching.
	if scheduler != nil {
		go func() {
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("scheduler stopped: %v", err)
			}
		}()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop error: %v", err)
			}
		}()
	}

	if isTerminal(os.Stdout) {
		return runMonitor(ctx)
	}
	return streamSyncState(ctx, cmd)
}

func runMonitor(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in sync monitor: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("sync monitor crashed: %v", r)
		}
	}()

	app, err := tui.NewApp(&tui.Ports{Sync: syncStatus, Queue: mutationQueue})
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	defer app.Close()
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("monitor error: %w", err)
	}
	return nil
}

// streamSyncState prints a line whenever the indicator or counts change.
func streamSyncState(ctx context.Context, cmd *cobra.Command) error {
	updates := make(chan domain.SyncState, 16)
	unsubscribe := syncStatus.Subscribe(func(st domain.SyncState) {
		select {
		case updates <- st:
		default:
		}
	})
	defer unsubscribe()

	last := syncStatus.State()
	printSyncLine(cmd, last)
	if st, err := syncStatus.Refresh(ctx); err == nil && st != last {
		last = st
		printSyncLine(cmd, st)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case st := <-updates:
			if st == last {
				continue
			}
			last = st
			printSyncLine(cmd, st)
		}
	}
}

func printSyncLine(cmd *cobra.Command, st domain.SyncState) {
	cmd.Printf("%s %-8s pending=%d local=%d server=%d\n",
		formatTime(timeNow()), st.Indicator(), st.PendingTotal, st.ClientPending, st.ServerPending)
}
