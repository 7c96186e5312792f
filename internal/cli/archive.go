package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gkplab/audiotag/internal/archive"
	"github.com/gkplab/audiotag/internal/subjects"
)

func createArchiveCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Move the outputs directory into a timestamped archive",
		Long: `archive moves the current outputs directory (rated CSVs plus the edit
journal) under <data>/archive so the next rating pass starts clean.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := effectiveSettings(cmd, flags)
			outputDir := s.OutputDir
			if outputDir == "" {
				outputDir = filepath.Join(s.DataDir, subjects.DefaultOutputDirName)
			}

			archived, err := archive.ArchiveOutputs(outputDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Outputs archived to:", archived)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.DataDir, "data", "d", flags.DataDir, "Data directory containing audio/ and pre_annotated/")
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", "", "Output directory (default <data>/outputs)")

	return cmd
}
