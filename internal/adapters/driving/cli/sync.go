package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Inspect and drive synchronisation with the server",
	Long: `Inspect the sync indicator, the writes queued while offline, and the
server's replication backlog.

Indicators, highest priority first:
  OFFLINE  the server cannot be reached
  ERROR    a write failed or the server reports batches in error
  SYNCING  writes are outstanding on either side
  SYNCED   nothing is pending`,
	Annotations: clientAnnotation,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync indicator",
	Args:  cobra.NoArgs,
	RunE:  runSyncStatus,
}

var syncQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List queued and failed writes",
	Args:  cobra.NoArgs,
	RunE:  runSyncQueue,
}

var syncFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Send writes queued while offline",
	Args:  cobra.NoArgs,
	RunE:  runSyncFlush,
}

var syncAckCmd = &cobra.Command{
	Use:   "ack [write-id]",
	Short: "Dismiss failed writes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSyncAck,
}

var (
	syncNoRefresh bool
	syncAckAll    bool
)

func init() {
	syncStatusCmd.Flags().BoolVar(&syncNoRefresh, "no-refresh", false, "Do not ask the server for its status")
	syncAckCmd.Flags().BoolVar(&syncAckAll, "all", false, "Dismiss every failed write")

	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncQueueCmd)
	syncCmd.AddCommand(syncFlushCmd)
	syncCmd.AddCommand(syncAckCmd)
	rootCmd.AddCommand(syncCmd)
}

func requireQueue() error {
	if mutationQueue == nil {
		return errors.New("mutation queue not configured")
	}
	return nil
}

func runSyncStatus(cmd *cobra.Command, _ []string) error {
	if syncStatus == nil {
		return errors.New("sync status service not configured")
	}
	st := syncStatus.State()
	if !syncNoRefresh {
		refreshed, err := syncStatus.Refresh(cmd.Context())
		if err != nil {
			cmd.PrintErrln(noticeStyle.Render(fmt.Sprintf("server status unavailable: %v", err)))
		}
		st = refreshed
	}
	if jsonOutput {
		return printJSON(cmd, struct {
			domain.SyncState
			Indicator domain.Indicator `json:"indicator"`
		}{st, st.Indicator()})
	}
	printSyncState(cmd, st)
	return nil
}

func printSyncState(cmd *cobra.Command, st domain.SyncState) {
	cmd.Printf("Status:        %s\n", st.Indicator())
	cmd.Printf("Online:        %t\n", st.IsOnline)
	cmd.Printf("Server ready:  %t\n", st.ServerReady)
	cmd.Printf("Local queue:   %d\n", st.ClientPending)
	cmd.Printf("Server queue:  %d\n", st.ServerPending)
	if st.HasError {
		cmd.Println("Errors:        yes (see 'stockline sync queue')")
	}
}

func runSyncQueue(cmd *cobra.Command, _ []string) error {
	if err := requireQueue(); err != nil {
		return err
	}
	records := mutationQueue.Records()
	if jsonOutput {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println("No queued writes.")
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		subject := ""
		if r.Subject != 0 {
			subject = formatID(r.Subject)
		}
		rows = append(rows, []string{r.ID, string(r.Key), string(r.Status), subject, formatTime(r.CreatedAt), r.Error})
	}
	printTable(cmd, []string{"ID", "WRITE", "STATUS", "SUBJECT", "CREATED", "ERROR"}, rows)
	return nil
}

func runSyncFlush(cmd *cobra.Command, _ []string) error {
	if err := requireQueue(); err != nil {
		return err
	}
	before := len(mutationQueue.Records())
	if err := mutationQueue.Flush(cmd.Context()); err != nil {
		if errors.Is(err, domain.ErrOffline) {
			return fmt.Errorf("cannot send queued writes: %w", err)
		}
		return fmt.Errorf("failed to send queued writes: %w", err)
	}
	after := mutationQueue.Records()
	failed := 0
	for _, r := range after {
		if r.Status == domain.MutationError {
			failed++
		}
	}
	cmd.Printf("Sent %d queued write(s), %d failed\n", max(before-len(after), 0), failed)
	return nil
}

func runSyncAck(cmd *cobra.Command, args []string) error {
	if err := requireQueue(); err != nil {
		return err
	}
	switch {
	case syncAckAll:
		cmd.Printf("Dismissed %d failed write(s)\n", mutationQueue.AckAll())
		return nil
	case len(args) == 1:
		if err := mutationQueue.Ack(args[0]); err != nil {
			return fmt.Errorf("failed to dismiss write: %w", err)
		}
		cmd.Printf("Dismissed write %s\n", args[0])
		return nil
	}
	return fmt.Errorf("%w: give a write id or --all", domain.ErrInvalidInput)
}
