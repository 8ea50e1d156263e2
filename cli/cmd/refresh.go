// ABOUTME: Refresh command for shopauth-cli
// ABOUTME: Forces a token rotation through the proxy

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

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rotate the session tokens",
	Long:  `Exchange the stored refresh token for a new token pair and update the local session file.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runRefresh(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(ctx context.Context, w io.Writer) int {
	envelope, err := callProxy(ctx, http.MethodPost, "/api/auth/refresh", nil)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	data := envelope.Body.Data
	if data == nil || !data.Succeeded {
		fmt.Fprintln(w, errStyle.Render("Refresh failed: ")+failureMessage(envelope))
		return 1
	}

	fmt.Fprintln(w, okStyle.Render("Tokens rotated")+fmt.Sprintf(", next expiry in %ds", data.Tokens.ExpiresIn))
	return 0
}
