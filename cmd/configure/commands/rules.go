package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/felipeah-dev/echo-app/internal/config"
	"github.com/felipeah-dev/echo-app/internal/database"
	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/felipeah-dev/echo-app/internal/services/automation"
	"github.com/spf13/cobra"
)

// NewRulesCmd creates the rules command
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage automation rules",
		Long:  "List and create automation rules stored in the Postgres rule store",
	}

	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesAddCmd())

	return cmd
}

func newRulesListCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List automation rules for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			return withRuleStore(func(store automation.RuleStore) error {
				rules, err := store.Rules(context.Background(), userID)
				if err != nil {
					return fmt.Errorf("failed to list rules: %w", err)
				}

				if len(rules) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No automation rules for user %s\n", userID)
					return nil
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Automation rules for user %s:\n", userID)
				for _, rule := range rules {
					printRule(cmd, rule)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")

	return cmd
}

func newRulesAddCmd() *cobra.Command {
	var (
		userID    string
		minAmount float64
		targets   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a high-value-deal rule",
		Long:  "Create a rule that adds targets to every sync whose amount is at least --min-amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := automation.NewRule{
				UserID:    userID,
				Type:      models.AutomationHighValueDeal,
				MinAmount: minAmount,
				Targets:   splitTargets(targets),
			}
			if err := in.Validate(); err != nil {
				return err
			}

			return withRuleStore(func(store automation.RuleStore) error {
				rule, err := store.AddRule(context.Background(), in)
				if err != nil {
					return fmt.Errorf("failed to create rule: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Created automation rule:")
				printRule(cmd, rule)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	cmd.Flags().Float64Var(&minAmount, "min-amount", 0, "Minimum deal amount that triggers the rule")
	cmd.Flags().StringVar(&targets, "targets", "", "Comma-separated targets to add, e.g. chat,email (required)")

	return cmd
}

func withRuleStore(fn func(automation.RuleStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set; rules live in process memory without it")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	if err := db.Migrate(context.Background()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return fn(database.NewRuleRepository(db))
}

func splitTargets(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printRule(cmd *cobra.Command, rule models.AutomationRule) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  - ID: %s\n", rule.ID)
	fmt.Fprintf(w, "    Type: %s\n", rule.Type)
	fmt.Fprintf(w, "    Min amount: %.2f\n", rule.MinAmount)
	fmt.Fprintf(w, "    Targets: %s\n", strings.Join(rule.Targets, ", "))
	fmt.Fprintf(w, "    Active: %t\n", rule.Active)
	fmt.Fprintf(w, "    Created: %s\n", rule.CreatedAt.Format("2006-01-02 15:04:05"))
}
