// Package main is the entry point for the rpncalc shell and server.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lemonberrylabs/rpncalc/pkg/calc"
	"github.com/lemonberrylabs/rpncalc/pkg/config"
	"github.com/lemonberrylabs/rpncalc/pkg/shell"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdin).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	root := &cobra.Command{
		Use:           "rpncalc",
		Short:         "Infix to Reverse Polish Notation calculator",
		Long:          "rpncalc reads infix expressions, prints their postfix form and evaluates them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			history, err := openHistory(cfg)
			if err != nil {
				return err
			}
			if history != nil {
				defer history.Close()
			}

			return shell.New(stdin, cmd.OutOrStdout(), history).Run()
		},
	}
	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("rpncalc version {{.Version}}\n")

	root.PersistentFlags().String("config", "", "YAML config file (env RPNCALC_CONFIG)")
	root.PersistentFlags().String("history-db", "", "SQLite file for evaluation history (env HISTORY_DB)")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output (env NO_COLOR)")

	root.AddCommand(newEvalCmd(), newServeCmd(), newHistoryCmd())
	return root
}

func newEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression>",
		Short: "Convert and evaluate a single infix expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			history, err := openHistory(cfg)
			if err != nil {
				return err
			}

			input := strings.Join(args, " ")
			out, runErr := calc.Run(input)
			if history != nil {
				defer history.Close()
				if _, err := history.Record(store.NewEvaluation(input, out, runErr, store.SourceShell)); err != nil {
					log.Printf("Warning: could not record evaluation: %v", err)
				}
			}
			if runErr != nil {
				return runErr
			}

			w := cmd.OutOrStdout()
			color.New(color.FgCyan).Fprintln(w, out.Postfix)
			fmt.Fprintln(w, out.Result)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded evaluations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.HistoryDB == "" {
				return fmt.Errorf("no history database configured (use --history-db or HISTORY_DB)")
			}
			history, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer history.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			evs, err := history.List(limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), evs)
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of evaluations to show (0 for all)")
	return cmd
}

func printHistory(w io.Writer, evs []*store.Evaluation) {
	ok := color.New(color.FgGreen)
	failed := color.New(color.FgRed)
	for _, ev := range evs {
		fmt.Fprintf(w, "%s  ", ev.CreateTime.Format(time.DateTime))
		if ev.State == store.EvaluationFailed {
			failed.Fprintf(w, "%-9s", ev.State)
			fmt.Fprintf(w, "  %s  %s\n", ev.Expression, ev.Error.Message)
			continue
		}
		ok.Fprintf(w, "%-9s", ev.State)
		fmt.Fprintf(w, "  %s  => %s  = %s\n", ev.Expression, ev.Postfix, ev.Result)
	}
}

// loadConfig resolves the config file and environment, then applies the
// persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("history-db"); v != "" {
		cfg.HistoryDB = v
	}
	if v, _ := cmd.Flags().GetBool("no-color"); v {
		cfg.NoColor = true
	}
	if cfg.NoColor {
		color.NoColor = true
	}
	return cfg, nil
}

// openHistory opens the configured history database. It returns a nil
// Backend when none is configured.
func openHistory(cfg config.Config) (store.Backend, error) {
	if cfg.HistoryDB == "" {
		return nil, nil
	}
	return store.OpenSQL(cfg.HistoryDB)
}
