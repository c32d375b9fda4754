package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
)

var timeNow = time.Now

// isTerminal reports whether f is attached to a terminal.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	cmd.Println(string(out))
	return nil
}

func printTable(cmd *cobra.Command, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	cmd.Println(t.String())
}

// printFreshness notes when cached data is shown in place of a fresh read.
func printFreshness[T any](cmd *cobra.Command, c domain.Cached[T]) {
	if c.Err != nil {
		cmd.PrintErrln(noticeStyle.Render(fmt.Sprintf("showing cached data from %s: %v", formatTime(c.UpdatedAt), c.Err)))
	}
}

// printQueued tells the user a write waits for the connection.
func printQueued[T any](cmd *cobra.Command, r domain.MutationResult[T]) {
	if r.Queued {
		cmd.Println(noticeStyle.Render(fmt.Sprintf("Offline: write %s queued, it will be sent when the connection returns", r.RecordID)))
	}
}

func formatID(id int64) string {
	s := strconv.FormatInt(id, 10)
	if domain.IsTempID(id) {
		return s + " (unsaved)"
	}
	return s
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidInput, s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
