// Rangectl drives range controls (dimmers, thermostats, shutters) from the
// terminal.
//
// It opens an interactive dial for a named control, applies scripted
// adjustments, discovers backends on the local network and runs a simulated
// backend for testing.
//
// Usage:
//
//	rangectl [command] [flags]
//
// Running without arguments opens the dial for the default control.
// See 'rangectl --help' for available commands.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/muurk/rangectl/internal/config"
	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/version"
)

// annotationTerminal marks commands that take over the terminal, so their
// logs go to a file.
const annotationTerminal = "terminal"

// Global flags
var (
	configPath string
	logLevel   string
	logFile    string
)

// registry is loaded before any command runs.
var registry *config.Registry

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rangectl",
	Short: "Range control dial for home automation backends",
	Long: `A terminal dial for range controls such as dimmers, thermostats and shutters.

Controls are stored in the configuration file together with the backend their
values are committed to. A change is sent once the dial has been left idle,
or straight away when the dial is closed.

If no command is specified, the dial opens for the default control.`,
	Version:     version.Version,
	Annotations: map[string]string{annotationTerminal: "true"},
	Args:        cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: open the dial
		return runDial(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: $"+config.ConfigPathEnvVar+" or the platform config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stdout")

	rootCmd.PersistentPreRunE = setup

	rootCmd.AddCommand(versionCmd)
}

// setup loads the registry and initializes logging.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		registry, err = config.LoadRegistryFrom(configPath)
	} else {
		registry, err = config.LoadRegistry()
	}
	if err != nil {
		return err
	}

	level := logLevel
	if level == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
		level = registry.Preferences.LogLevel
	}

	out := logFile
	if out == "" && cmd.Annotations[annotationTerminal] == "true" {
		if level == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
			// Silent; nothing to redirect.
			return logging.Initialize("")
		}
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		out = filepath.Join(dir, "rangectl.log")
	}

	if err := logging.InitializeToFile(level, out); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// saveRegistry writes the registry back where it was loaded from.
func saveRegistry() error {
	if configPath != "" {
		return registry.SaveTo(configPath)
	}
	return registry.Save()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("rangectl " + version.Full())
	},
}
