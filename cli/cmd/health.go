// ABOUTME: Health command for shopauth-cli
// ABOUTME: Checks proxy connectivity and upstream configuration

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
	"time"

	"github.com/spf13/cobra"
)

// healthResponse mirrors the proxy's /api/v1/health payload.
type healthResponse struct {
	Status       string `json:"status"`
	Mode         string `json:"mode"`
	AuthEndpoint bool   `json:"auth_endpoint"`
	SignEndpoint bool   `json:"sign_endpoint"`
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check proxy connectivity",
	Long:  `Check connectivity to the shopauth proxy and verify the upstream auth endpoints are configured.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runHealth(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(ctx context.Context, w io.Writer) int {
	url := GetAPIURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/api/v1/health", nil)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer resp.Body.Close()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		out := map[string]interface{}{
			"backend":       url,
			"status":        health.Status,
			"mode":          health.Mode,
			"auth_endpoint": health.AuthEndpoint,
			"sign_endpoint": health.SignEndpoint,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintf(w, "Backend:       %s\nStatus:        %s\nMode:          %s\nAuth Endpoint: %t\nSign Endpoint: %t\n",
			url, health.Status, health.Mode, health.AuthEndpoint, health.SignEndpoint)
	}

	if health.Status != "ok" {
		return 1
	}
	return 0
}
