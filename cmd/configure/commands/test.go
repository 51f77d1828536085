package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/felipeah-dev/echo-app/internal/config"
	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var (
		baseURL string
		userID  string
		amount  float64
		targets string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a sample sync to a running API",
		Long:  "Check /healthz and post a sample deal to /api/v1/sync, then print the decision log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				baseURL = cfg.BaseURL
			}
			baseURL = strings.TrimRight(baseURL, "/")
			out := cmd.OutOrStdout()
			client := &http.Client{Timeout: 10 * time.Second}

			fmt.Fprintf(out, "Testing API at: %s\n", baseURL)

			resp, err := client.Get(baseURL + "/healthz")
			if err != nil {
				return fmt.Errorf("failed to reach health endpoint: %w", err)
			}
			closeBody(resp)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
			}
			fmt.Fprintln(out, "✓ Health endpoint is accessible")

			body, err := json.Marshal(models.SyncRequest{
				Source: models.SourceManual,
				Data: models.Deal{
					DealID:   fmt.Sprintf("cli-test-%d", time.Now().Unix()),
					Customer: "Configure CLI",
					Amount:   amount,
					Status:   models.DealStatusOpen,
				},
				Targets: splitTargets(targets),
				UserID:  userID,
			})
			if err != nil {
				return fmt.Errorf("failed to encode sync request: %w", err)
			}

			resp, err = client.Post(baseURL+"/api/v1/sync", "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("failed to reach sync endpoint: %w", err)
			}
			defer closeBody(resp)

			var result models.SyncResponse
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return fmt.Errorf("failed to decode sync response (status %d): %w", resp.StatusCode, err)
			}

			fmt.Fprintf(out, "\nSync returned %d\n", resp.StatusCode)
			fmt.Fprintf(out, "Synced: %s\n", strings.Join(result.Synced, ", "))
			fmt.Fprintf(out, "Failed: %s\n", strings.Join(result.Failed, ", "))
			fmt.Fprintf(out, "Time saved: %ds\n", result.TimeSavedSec)
			fmt.Fprintln(out, "Decision log:")
			for _, line := range result.DecisionLog {
				fmt.Fprintf(out, "  %s\n", line)
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("sync did not fully succeed: status %d", resp.StatusCode)
			}
			fmt.Fprintln(out, "\n✓ Sync test passed")
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL (defaults to BASE_URL)")
	cmd.Flags().StringVar(&userID, "user", "", "User ID the sync is attributed to")
	cmd.Flags().Float64Var(&amount, "amount", 1000, "Deal amount")
	cmd.Flags().StringVar(&targets, "targets", "chat,email", "Comma-separated targets")

	return cmd
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", err)
	}
}
