// ABOUTME: Login command for shopauth-cli
// ABOUTME: Prompts for credentials and signs in through the proxy

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/commercekit/shopauth/models"
)

var (
	loginUsername string
	loginPassword string
	loginRemember bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session locally",
	Long:  `Sign in through the shopauth proxy. Credentials are prompted interactively unless passed as flags; the session cookies are stored in the local session file.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runLogin(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted if omitted)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted if omitted)")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "Request a long-lived session")
	rootCmd.AddCommand(loginCmd)
}

// promptCredentials fills in whatever the flags left blank.
func promptCredentials() error {
	var fields []huh.Field
	if loginUsername == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&loginUsername))
	}
	if loginPassword == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&loginPassword))
	}
	fields = append(fields, huh.NewConfirm().
		Title("Stay signed in?").
		Value(&loginRemember))

	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func runLogin(ctx context.Context, w io.Writer) int {
	if loginUsername == "" || loginPassword == "" {
		if err := promptCredentials(); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	creds := models.Credentials{
		Username:     loginUsername,
		Password:     loginPassword,
		RememberUser: loginRemember,
	}
	envelope, err := callProxy(ctx, http.MethodPost, "/api/auth/login", creds)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	data := envelope.Body.Data
	if data == nil || !data.Succeeded {
		fmt.Fprintln(w, errStyle.Render("Login failed: ")+failureMessage(envelope))
		return 1
	}

	fmt.Fprintln(w, okStyle.Render("Signed in")+" as "+data.User.Name)
	return 0
}

// failureMessage digs the most specific message out of a failed envelope.
func failureMessage(envelope *models.ProxyResponse) string {
	if envelope.Body.Data != nil && envelope.Body.Data.Error != nil {
		return envelope.Body.Data.Error.Message
	}
	if envelope.Body.Message != "" {
		return envelope.Body.Message
	}
	return fmt.Sprintf("status %d", envelope.Status)
}
