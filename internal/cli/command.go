package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gkplab/audiotag/internal"
	"github.com/gkplab/audiotag/internal/settings"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "audiotag",
		Short: "Word-level audio annotation rating tool",
		Long: `audiotag opens a desktop window for correcting word-level timing
annotations and transcriptions over audio recordings.

A rater picks a subject, listens to each word segment, fixes the
transcription or the boundary times, and every navigation step writes
the corrected rows to the output CSV.

Examples:
  audiotag              # Launch the rating window
  audiotag subjects     # List discovered subjects and their pairing status
  audiotag archive      # Move the finished outputs directory aside`,
		Args:    cobra.NoArgs,
		Version: internal.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(flags)
		},
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(createSubjectsCommand(flags))
	rootCmd.AddCommand(createArchiveCommand(flags))

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags; the rating window itself takes none, everything else
	// comes from the settings file.
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.audiotag.yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-error output")
}

func setupLogging(flags *Flags) {
	level := slog.LevelInfo
	if flags.Verbose {
		level = slog.LevelDebug
	}
	if flags.Quiet {
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	settings.RegisterDefaults()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".audiotag" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".audiotag")
	}

	// Environment variables
	viper.SetEnvPrefix("AUDIOTAG")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// effectiveSettings merges the persisted settings with any data/output
// flag overrides given on the command line.
func effectiveSettings(cmd *cobra.Command, flags *Flags) settings.Settings {
	s := settings.FromViper()
	if cmd.Flags().Changed("data") {
		s.DataDir = flags.DataDir
	}
	if cmd.Flags().Changed("output") {
		s.OutputDir = flags.OutputDir
	}
	return s
}
