package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querypad/internal/query"
)

func runQueryREPL(cmd *cobra.Command, params query.ConnectParams, opts *QueryOptions) error {
	ctx := cmd.Context()

	executor := query.NewExecutor()
	lister := query.NewLister()

	completer := newTableCompleter(ctx, lister, params)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "querypad> ",
		HistoryFile:     ".querypad_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "querypad REPL (%s@%s)\n", params.User, params.Host)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("querypad> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") && multiLineBuffer.Len() == 0 {
			if handled := handleDotCommand(ctx, cmd, executor, lister, params, line, opts.Format); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("     ...> ")
			continue
		}
		rl.SetPrompt("querypad> ")

		script := multiLineBuffer.String()
		multiLineBuffer.Reset()

		outcomes, err := executor.Execute(ctx, params, script)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		if err := renderOutcomes(cmd.OutOrStdout(), outcomes, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

func handleDotCommand(
	ctx context.Context,
	cmd *cobra.Command,
	executor *query.Executor,
	lister *query.Lister,
	params query.ConnectParams,
	line, format string,
) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())
		return true

	case ".databases":
		names, err := lister.Databases(ctx, params)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		for _, name := range names {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return true

	case ".tables":
		names, err := lister.Tables(ctx, params)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		for _, name := range names {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return true

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <table>")
			return true
		}
		script := fmt.Sprintf("SHOW COLUMNS FROM %s", query.QuoteIdent(parts[1]))
		outcomes, err := executor.Execute(ctx, params, script)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		if err := renderOutcomes(cmd.OutOrStdout(), outcomes, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .databases      List databases on the server
  .tables         List tables in the selected database
  .schema <name>  Show columns of a table
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Scripts may contain several statements
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// newTableCompleter creates a readline completer for table names.
func newTableCompleter(ctx context.Context, lister *query.Lister, params query.ConnectParams) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	if params.Database != "" {
		if tables, err := lister.Tables(ctx, params); err == nil {
			for _, name := range tables {
				items = append(items, readline.PcItem(name))
			}
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".databases"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
