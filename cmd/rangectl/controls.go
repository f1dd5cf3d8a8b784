package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/rangectl/internal/config"
	"github.com/muurk/rangectl/internal/ui"
)

// Controls command flags
var (
	addFlags       controlFlags
	addLabel       string
	addUsage       string
	addIdle        time.Duration
	addPercentMode string
	addDefault     bool

	removeYes bool
)

func init() {
	controlsCmd.AddCommand(controlsListCmd)
	controlsCmd.AddCommand(controlsAddCmd)
	controlsCmd.AddCommand(controlsRemoveCmd)
	rootCmd.AddCommand(controlsCmd)
}

var controlsCmd = &cobra.Command{
	Use:   "controls",
	Short: "Manage stored controls",
	Long: `List, add and remove the named controls kept in the configuration file.

Each control has a range, a step, a readout unit and the backend its values
are committed to.`,
}

var controlsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored controls",
	Args:  cobra.NoArgs,
	RunE:  runControlsList,
}

func runControlsList(cmd *cobra.Command, args []string) error {
	p := ui.NewPrinter(os.Stdout)
	names := registry.Names()
	if len(names) == 0 {
		p.PrintWarning("No controls configured",
			ui.Detail{Key: "Default", Value: "'" + defaultControlName + "' (0-100%, logs only)"},
		)
		p.PrintMuted("Add one with 'rangectl controls add <name> --min 0 --max 100 --step 5'")
		return nil
	}

	p.PrintTable([]string{"", "Name", "Label", "Range", "Step", "Backend"}, controlRows(registry))
	return nil
}

// controlRows renders one table row per control, marking the default.
func controlRows(reg *config.Registry) [][]string {
	names := reg.Names()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		def := reg.Controls[name]
		marker := ""
		if reg.Preferences != nil && reg.Preferences.DefaultControl == name {
			marker = "*"
		}
		opts, err := def.ToOptions(name)
		rangeText := "invalid"
		if err == nil {
			rangeText = opts.Format(opts.Min) + " to " + opts.Format(opts.Max)
		}
		rows = append(rows, []string{
			marker,
			name,
			def.Title(name),
			rangeText,
			strconv.FormatFloat(def.Step, 'f', -1, 64),
			describeBackend(def.Backend),
		})
	}
	return rows
}

var controlsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a control",
	Long: `Store a control in the configuration file. An existing control with the same
name is replaced.

Unset fields start from the built-in dimmer: 0 to 100% in steps of 5, logging
its commits.`,
	Example: `  # A thermostat on the simulated backend
  rangectl controls add thermostat --min 5 --max 30 --step 0.5 --unit °C \
    --usage heating --backend ws://localhost:8787/ws

  # A dimmer on a Domogik-style REST API, opened by a bare 'rangectl'
  rangectl controls add lounge --backend http://domogik.local:40405 \
    --technology plcbus --device A1 --command dim --default`,
	Args: cobra.ExactArgs(1),
	RunE: runControlsAdd,
}

func init() {
	bindControlFlags(controlsAddCmd, &addFlags)
	controlsAddCmd.Flags().StringVar(&addLabel, "label", "", "Title shown on the dial")
	controlsAddCmd.Flags().StringVar(&addUsage, "usage", "", "Icon family (e.g. light, heating)")
	controlsAddCmd.Flags().DurationVar(&addIdle, "idle", 0, "Idle delay before committing (default 3s)")
	controlsAddCmd.Flags().StringVar(&addPercentMode, "percent-mode", "", "How the arc fills: range (default) or span")
	controlsAddCmd.Flags().BoolVar(&addDefault, "default", false, "Make this the default control")
}

func runControlsAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	addFlags.markChanged(cmd)

	def := config.DefaultControlDef()
	def.Label = addLabel
	if cmd.Flags().Changed("usage") {
		def.Usage = addUsage
	}
	def.IdleClose = addIdle
	def.PercentMode = addPercentMode
	applyOverrides(def, addFlags)
	if addFlags.Backend != "" {
		b, err := backendFromURL(addFlags.Backend, name, addFlags)
		if err != nil {
			return err
		}
		def.Backend = b
	}

	if err := registry.SetControl(name, def); err != nil {
		return err
	}
	if addDefault {
		registry.Preferences.DefaultControl = name
	}
	if err := saveRegistry(); err != nil {
		return err
	}

	opts, _ := def.ToOptions(name)
	ui.NewPrinter(os.Stdout).PrintSuccess("Saved control "+name,
		ui.Detail{Key: "Range", Value: opts.Format(opts.Min) + " to " + opts.Format(opts.Max)},
		ui.Detail{Key: "Step", Value: strconv.FormatFloat(def.Step, 'f', -1, 64)},
		ui.Detail{Key: "Backend", Value: describeBackend(def.Backend)},
	)
	return nil
}

var controlsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a control",
	Args:  cobra.ExactArgs(1),
	RunE:  runControlsRemove,
}

func init() {
	controlsRemoveCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Do not ask for confirmation")
}

func runControlsRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	if registry.GetControl(name) == nil {
		return fmt.Errorf("no control named %q", name)
	}

	p := ui.NewPrinter(os.Stdout)
	if !removeYes {
		warnings := []string{"The control is deleted from the configuration file."}
		if registry.Preferences.DefaultControl == name {
			warnings = append(warnings, "It is the default control; a bare 'rangectl' will open '"+defaultControlName+"' instead.")
		}
		if !ui.Confirm(os.Stdin, os.Stdout, "Remove control "+name+"?", warnings, p.Width()) {
			return nil
		}
	}

	registry.RemoveControl(name)
	if err := saveRegistry(); err != nil {
		return err
	}
	p.PrintSuccess("Removed control " + name)
	return nil
}
