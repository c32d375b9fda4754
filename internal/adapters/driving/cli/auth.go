package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the API access token",
	Long: `Store, inspect and remove the access token sent to the inventory server.

Tokens are issued by the server's login page. When a request is rejected as
unauthorised, log in again with a fresh token.

Examples:
  # Paste the token at the prompt
  stockline auth login

  # Pass it on the command line or through a pipe
  stockline auth login eyJhbGciOi...
  echo "$TOKEN" | stockline auth login`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [token]",
	Short: "Store an access token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored token",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func requireAuth() error {
	if authService == nil {
		return errors.New("auth service not configured")
	}
	return nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}
	var raw string
	if len(args) == 1 {
		raw = args[0]
	} else {
		cmd.Print("Access token: ")
		raw = readSecret(cmd.InOrStdin())
		cmd.Println()
	}

	token, err := authService.Login(cmd.Context(), raw)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	cmd.Println("Logged in.")
	printToken(cmd, token)
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	if err := requireAuth(); err != nil {
		return err
	}
	if err := authService.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	cmd.Println("Logged out.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if err := requireAuth(); err != nil {
		return err
	}
	token, err := authService.Status(cmd.Context())
	if errors.Is(err, domain.ErrAuthRequired) {
		cmd.Println("Not logged in. Run 'stockline auth login'.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	printToken(cmd, token)
	return nil
}

func printToken(cmd *cobra.Command, t *domain.AuthToken) {
	cmd.Printf("Token:   %s\n", maskToken(t.AccessToken))
	if t.Subject != "" {
		cmd.Printf("User:    %s\n", t.Subject)
	}
	switch {
	case t.Expiry.IsZero():
		cmd.Println("Expires: unknown")
	case t.IsExpired():
		cmd.Printf("Expires: %s (expired)\n", formatTime(t.Expiry.Local()))
	default:
		cmd.Printf("Expires: %s\n", formatTime(t.Expiry.Local()))
	}
}

// readSecret reads a line without echo on a terminal, or plainly from in.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:6] + "..." + token[len(token)-4:]
}
