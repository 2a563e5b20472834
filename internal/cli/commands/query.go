package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querypad/internal/cli/config"
	"github.com/leapstack-labs/querypad/internal/query"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format   string
	Input    string
	Host     string
	User     string
	Password string
	Database string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a SQL script from the terminal",
		Long: `Run a SQL script against a MySQL server without the web UI.

Statements are executed one by one on a single connection; a failure
aborts the rest of the script. The connection target comes from flags,
or from the target section of the config file.

When invoked without arguments on a terminal, enters interactive REPL
mode.`,
		Example: `  # Execute SQL directly
  querypad query "SELECT * FROM users LIMIT 10" --host localhost:3306 --user root

  # Read the script from a file
  querypad query --input migrate.sql

  # Pipe a script in
  echo "SELECT COUNT(*) FROM orders;" | querypad query

  # Output as JSON
  querypad query "SELECT id, name FROM users" --format json

  # Interactive mode
  querypad query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVar(&opts.Host, "host", "", "MySQL host:port")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "MySQL user")
	cmd.Flags().StringVar(&opts.Password, "password", "", "MySQL password")
	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "Database to select")

	return cmd
}

// resolveTarget builds connection parameters from flags, falling back to
// the config file's target for anything not given on the command line.
func resolveTarget(cfg *config.Config, opts *QueryOptions) (query.ConnectParams, error) {
	params := query.ConnectParams{
		Host:     opts.Host,
		User:     opts.User,
		Password: opts.Password,
		Database: opts.Database,
	}
	if t := cfg.Target; t != nil {
		if params.Host == "" {
			params.Host = t.Host
		}
		if params.User == "" {
			params.User = t.User
		}
		if params.Password == "" {
			params.Password = t.Password
		}
		if params.Database == "" {
			params.Database = t.Database
		}
	}
	if params.Host == "" || params.User == "" {
		return params, fmt.Errorf("no connection target: pass --host and --user, or add a target section to %s", "querypad.yaml")
	}
	return params, nil
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cfg := config.FromContext(cmd.Context())

	params, err := resolveTarget(cfg, opts)
	if err != nil {
		return err
	}

	var script string
	switch {
	case len(args) > 0:
		script = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		script = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		script = string(content)
	default:
		return runQueryREPL(cmd, params, opts)
	}

	return executeAndRender(cmd, params, script, opts.Format)
}

func executeAndRender(cmd *cobra.Command, params query.ConnectParams, script, format string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), config.QueryTimeout)
	defer cancel()

	outcomes, err := query.NewExecutor().Execute(ctx, params, script)
	if err != nil {
		return err
	}
	return renderOutcomes(cmd.OutOrStdout(), outcomes, format)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
