// Package cli implements messctl, the operator command line. It runs the
// same engine operations as the HTTP API, directly against the database.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/auth"
	"github.com/gdg-garage/mess-billing/internal/billing"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/config"
	"github.com/gdg-garage/mess-billing/internal/database"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/mess"
	"github.com/gdg-garage/mess-billing/internal/notifier"
	"github.com/gdg-garage/mess-billing/pkg/logging"
)

// env is what every command runs against. Tests fill it in directly.
type env struct {
	cfg      *config.Config
	db       *gorm.DB
	resolver *calendar.Resolver
	svc      *mess.Service
	out      io.Writer
}

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd(&env{out: os.Stdout})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(e *env) *cobra.Command {
	var (
		dbPath string
		output string
	)

	rootCmd := &cobra.Command{
		Use:           "messctl",
		Short:         "Mess attendance and billing operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			return e.init(dbPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: DATABASE_PATH)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(
		newAutoMarkCmd(e),
		newBillsCmd(e),
		newUsersCmd(e),
		newTokenCmd(e),
	)
	return rootCmd
}

// init loads config and opens the database unless a test already did.
func (e *env) init(dbPath string) error {
	if e.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		e.cfg = cfg
		logging.Setup(cfg.LogLevel)
	}
	if dbPath != "" {
		e.cfg.DatabasePath = dbPath
	}
	if e.db == nil {
		db, err := database.Open(e.cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		e.db = db
	}
	if e.resolver == nil {
		loc, err := e.cfg.Location()
		if err != nil {
			return err
		}
		e.resolver = calendar.NewResolver(loc)
	}
	if e.svc == nil {
		rule, err := billing.ParseDrinkRule(e.cfg.BillingDrinkRule)
		if err != nil {
			return err
		}
		opts := mess.Options{Resolver: e.resolver, DrinkRule: rule}
		if n, err := notifier.NewFromConfig(e.cfg); err == nil {
			opts.Notifier = n
		}
		e.svc = mess.New(e.db, opts)
	}
	return nil
}

func (e *env) authHandler() *auth.AuthHandler {
	return auth.NewAuthHandler(e.cfg, e.db)
}

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// result unwraps an engine result into a CLI error.
func result[T any](r failure.Result[T]) (T, error) {
	v, err := r.Unwrap()
	if err != nil {
		return v, fmt.Errorf("%s: %s", r.Failure().Kind, r.Failure().Message)
	}
	return v, nil
}
