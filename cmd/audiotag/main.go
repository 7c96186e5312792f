package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gkplab/audiotag/internal/cli"
	"github.com/gkplab/audiotag/internal/gui"
	"github.com/gkplab/audiotag/internal/settings"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	// Settings come from the config file and environment; the window's
	// settings dialog writes its changes back to the same file.
	s := settings.FromViper()

	settingsPath, err := settings.PathInUse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: settings will not be persisted: %v\n", err)
		settingsPath = ""
	}

	app := gui.New(&gui.Config{
		Settings:     s,
		SettingsPath: settingsPath,
	})
	app.Run()
	return nil
}
