// ABOUTME: Status command for shopauth-cli
// ABOUTME: Shows the current session user and token expiry

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/commercekit/shopauth/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long:  `Display the signed-in user and token expiry for the stored session.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runStatus(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(ctx context.Context, w io.Writer) int {
	envelope, err := callProxy(ctx, http.MethodGet, "/api/auth/user", nil)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	data := envelope.Body.Data
	if data == nil || !data.Succeeded || data.User == nil {
		if IsJSONOutput() {
			fmt.Fprintln(w, `{"authenticated": false}`)
		} else {
			fmt.Fprintln(w, mutedStyle.Render("Not signed in"))
		}
		return 1
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatStatusJSON(data))
	} else {
		fmt.Fprintln(w, formatStatusHuman(data))
	}
	return 0
}

func formatStatusHuman(data *models.AuthResponse) string {
	out := titleStyle.Render("Session") + "\n"
	out += fmt.Sprintf("User:         %s\n", data.User.Name)
	out += fmt.Sprintf("Customer:     %s (member %s)\n", data.User.CustomerType, data.User.MemberNumber)
	if data.Tokens != nil {
		out += fmt.Sprintf("Expires:      %s (in %ds)\n", data.Tokens.Expires.Format("15:04:05"), data.Tokens.ExpiresIn)
		if data.Tokens.ExpiresSoon {
			out += errStyle.Render("Token expires soon") + "\n"
		}
	}
	return out
}

func formatStatusJSON(data *models.AuthResponse) string {
	output := map[string]interface{}{
		"authenticated": true,
		"user":          data.User,
		"tokens":        data.Tokens,
	}
	b, _ := json.MarshalIndent(output, "", "  ")
	return string(b)
}
