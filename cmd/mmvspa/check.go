package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tirix/metamath-vspa/internal/mmdb"
	"github.com/tirix/metamath-vspa/internal/proof"
)

var checkCmd = &cobra.Command{
	Use:   "check <worksheet.mmp>",
	Short: "Validate a proof worksheet against the configured database and print its diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabasePath == "" {
			return fmt.Errorf("mmvspa check: no database configured (set --db or database_path in the config file)")
		}

		f, err := os.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		db, err := mmdb.Load(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("load database: %w", err)
		}

		text, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read worksheet: %w", err)
		}

		w := proof.NewWorksheet(db, string(text))
		diags := w.Diagnostics()

		colorize := term.IsTerminal(int(os.Stdout.Fd()))
		for _, d := range diags {
			printDiagnostic(args[0], d, colorize)
		}

		if len(diags) > 0 {
			return fmt.Errorf("%d diagnostic(s) found", len(diags))
		}
		fmt.Printf("%s: ok\n", args[0])
		return nil
	},
}

func printDiagnostic(path string, d proof.Diagnostic, colorize bool) {
	severity := severityLabel(d.Kind.Severity())
	if colorize {
		severity = severityColor(d.Kind.Severity()) + severity + "\x1b[0m"
	}
	fmt.Printf("%s:%d:%d: %s: %s\n", path, d.Start.Line+1, d.Start.Character+1, severity, d.Message)
}

func severityLabel(s proof.Severity) string {
	switch s {
	case proof.SeverityError:
		return "error"
	case proof.SeverityWarning:
		return "warning"
	case proof.SeverityInformation:
		return "info"
	default:
		return "hint"
	}
}

func severityColor(s proof.Severity) string {
	switch s {
	case proof.SeverityError:
		return "\x1b[31m"
	case proof.SeverityWarning:
		return "\x1b[33m"
	default:
		return "\x1b[36m"
	}
}
