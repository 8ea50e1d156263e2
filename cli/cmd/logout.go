// ABOUTME: Logout command for shopauth-cli
// ABOUTME: Ends the session upstream and deletes the local session file

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runLogout(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(ctx context.Context, w io.Writer) int {
	// Best effort upstream; the local session is removed regardless.
	if _, err := callProxy(ctx, http.MethodPost, "/api/auth/logout", nil); err != nil {
		fmt.Fprintf(w, "Warning: %v\n", err)
	}

	if err := clearSession(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	fmt.Fprintln(w, okStyle.Render("Signed out"))
	return 0
}
