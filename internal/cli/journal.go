package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/marcelocantos/ish/internal/journal"
)

func (a *app) journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the command journal.",
	}

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check the journal's hash chain.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := journal.Verify(a.fsys, cfg.Journal.Path); err != nil {
				a.code = 1
				fmt.Fprintf(cmd.OutOrStdout(), "journal verification FAILED: %v\n", err)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "journal integrity verified")
			return nil
		},
	}

	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent journal entries.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return printTail(cmd.OutOrStdout(), a.fsys, cfg.Journal.Path, n)
		},
	}
	tail.Flags().IntVarP(&n, "lines", "n", 20, "number of entries to show")

	cmd.AddCommand(verify, tail)
	return cmd
}

func printTail(w io.Writer, fsys afero.Fs, path string, n int) error {
	entries, err := journal.Tail(fsys, path, n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "no journal entries")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Seq", "Time", "Exit", "Duration", "Line"})
	for _, e := range entries {
		line := e.Line
		if e.Error != "" {
			line += "  (" + strings.TrimSpace(e.Error) + ")"
		}
		tw.AppendRow(table.Row{
			e.Seq,
			e.Time.Local().Format("2006-01-02 15:04:05"),
			e.ExitCode,
			fmt.Sprintf("%.1fms", e.Duration),
			line,
		})
	}
	tw.Render()
	return nil
}
