package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gkplab/audiotag/internal/subjects"
)

func createSubjectsCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "List discovered subjects and their pairing status",
		Long: `subjects scans the data directory and shows which subjects can be
rated, which output files already exist, and which subjects were skipped
because one side of the audio/pre-annotated pair is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubjects(cmd.OutOrStdout(), cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.DataDir, "data", "d", flags.DataDir, "Data directory containing audio/ and pre_annotated/")
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", "", "Output directory (default <data>/outputs)")

	return cmd
}

func runSubjects(w io.Writer, cmd *cobra.Command, flags *Flags) error {
	s := effectiveSettings(cmd, flags)

	lib, err := subjects.Resolve(s.DataDir, s.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve subjects in %s: %w", s.DataDir, err)
	}

	tw := table.NewWriter()
	if shouldStyle(w) {
		tw.SetStyle(table.StyleRounded)
	}
	tw.AppendHeader(table.Row{"Subject", "Audio", "Pre-annotated", "Output", "Status"})

	for _, sub := range lib.Subjects {
		status := "ready"
		if _, err := os.Stat(sub.OutputPath); err == nil {
			status = "in progress"
		}
		tw.AppendRow(table.Row{
			sub.Label,
			filepath.Base(sub.AudioPath),
			filepath.Base(sub.PrePath),
			filepath.Base(sub.OutputPath),
			status,
		})
	}
	for _, skip := range lib.Skipped {
		tw.AppendRow(table.Row{skip.Label, "", "", "", "skipped: no " + skip.Missing + " file"})
	}

	fmt.Fprintln(w, tw.Render())
	fmt.Fprintf(w, "%d loadable, %d skipped\n", len(lib.Subjects), len(lib.Skipped))
	return nil
}

// shouldStyle reports whether w is an interactive terminal worth
// decorating.
func shouldStyle(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
