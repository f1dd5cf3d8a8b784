package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/rangectl/internal/action"
	"github.com/muurk/rangectl/internal/config"
	"github.com/muurk/rangectl/internal/discovery"
	"github.com/muurk/rangectl/internal/rangectl"
	"github.com/muurk/rangectl/internal/tui"
	"github.com/muurk/rangectl/internal/ui"
)

// stateWait bounds how long adjust waits for the backend's current value.
const stateWait = 2 * time.Second

// Command flags
var (
	dialFlags controlFlags
	discover  bool

	adjustFlags   controlFlags
	adjustBy      int
	adjustTo      float64
	adjustMax     bool
	adjustMin     bool
	adjustFrom    float64
	adjustNow     bool
	adjustTimeout time.Duration

	scanTimeout int
	scanJSON    bool
)

func init() {
	rootCmd.AddCommand(dialCmd)
	rootCmd.AddCommand(adjustCmd)
	rootCmd.AddCommand(scanCmd)
}

// dialCmd opens the interactive dial
var dialCmd = &cobra.Command{
	Use:   "dial [control]",
	Short: "Open the interactive dial for a control",
	Long: `Open a full-screen dial for a range control.

Enter or a mouse click opens the dial. The arrow keys step the value, Home and
End jump to the bounds and Esc cancels. The value is committed to the backend
when the dial is closed or after it has been left idle.

Controls come from the configuration file. The --min, --max, --step, --unit
and --backend flags override a stored control or describe a new one.`,
	Example: `  # Open the default control
  rangectl dial
  # Or simply:
  rangectl

  # Open a stored control
  rangectl dial thermostat

  # Try a control against a WebSocket backend without storing it
  rangectl dial lounge --min 0 --max 100 --step 5 --backend ws://hub.local:8787/ws

  # Pick the backend from the ones advertised on the network
  rangectl dial lounge --discover`,
	Annotations: map[string]string{annotationTerminal: "true"},
	Args:        cobra.MaximumNArgs(1),
	RunE:        runDial,
}

func init() {
	bindControlFlags(dialCmd, &dialFlags)
	dialCmd.Flags().BoolVar(&discover, "discover", false, "Choose a backend discovered over mDNS")
}

func runDial(cmd *cobra.Command, args []string) error {
	dialFlags.markChanged(cmd)
	name, def, err := resolveControl(registry, args, dialFlags)
	if err != nil {
		return err
	}

	if discover {
		backend, err := pickBackend()
		if err != nil {
			return err
		}
		if backend == nil {
			// Quit from the picker
			return nil
		}
		def.Backend = &config.BackendDef{
			Kind:   config.BackendWebSocket,
			URL:    backend.WebSocketURL(),
			Device: deviceName(name, def.Backend),
		}
	}

	opts, err := def.ToOptions(name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), action.DefaultTimeout)
	submitter, err := action.FromBackend(ctx, name, def.Backend)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to backend: %w", err)
	}

	cfg := tui.DialConfig{
		Title:     def.Title(name),
		Options:   opts,
		Submitter: submitter,
		Initial:   rangectl.Unknown,
	}
	if ws, ok := submitter.(*action.WebSocketSink); ok {
		defer ws.Close()
		states, err := ws.Subscribe()
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", ws.Device(), err)
		}
		cfg.States = states
	}

	model, err := tui.NewDialModel(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dial error: %w", err)
	}
	return nil
}

// pickBackend runs the discovery screen. A nil backend means the user quit.
func pickBackend() (*discovery.Backend, error) {
	scanner := discovery.NewScanner()
	if t := registry.Preferences.DiscoverTimeout; t > 0 {
		scanner.Timeout = time.Duration(t) * time.Second
	}

	picker := tui.NewPickerModel(scanner.ScanForBackendsWithContext, scanner.Timeout)
	final, err := tea.NewProgram(picker, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, fmt.Errorf("discovery error: %w", err)
	}
	return final.(tui.PickerModel).Selected, nil
}

// adjustCmd changes a control without the dial
var adjustCmd = &cobra.Command{
	Use:   "adjust [control]",
	Short: "Change a control's value from a script",
	Long: `Apply one adjustment to a control and commit it, without opening the dial.

The adjustment runs through the same control logic as the dial: values are
clamped to the range, steps land on the step grid and nothing is sent when
the value does not change. The commit happens after the idle delay, or
straight away with --now.

The starting value is read from WebSocket backends. Other backends start
from an unknown value unless --from is given.`,
	Example: `  # Two steps up
  rangectl adjust dimmer --by 2

  # Set the thermostat to 21.5 right away
  rangectl adjust thermostat --to 21.5 --now

  # Fully open, telling rangectl where the shutter is now
  rangectl adjust shutter --max --from 40`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdjust,
}

func init() {
	bindControlFlags(adjustCmd, &adjustFlags)
	adjustCmd.Flags().IntVar(&adjustBy, "by", 0, "Number of steps to move (negative moves down)")
	adjustCmd.Flags().Float64Var(&adjustTo, "to", 0, "Target value, reached in whole steps")
	adjustCmd.Flags().BoolVar(&adjustMax, "to-max", false, "Jump to the upper bound")
	adjustCmd.Flags().BoolVar(&adjustMin, "to-min", false, "Jump to the lower bound")
	adjustCmd.Flags().Float64Var(&adjustFrom, "from", 0, "Current value, when the backend cannot report it")
	adjustCmd.Flags().BoolVar(&adjustNow, "now", false, "Commit immediately instead of after the idle delay")
	adjustCmd.Flags().DurationVar(&adjustTimeout, "timeout", action.DefaultTimeout, "Backend connect and reply timeout")
	adjustCmd.MarkFlagsMutuallyExclusive("by", "to", "to-max", "to-min")
}

func runAdjust(cmd *cobra.Command, args []string) error {
	adjustFlags.markChanged(cmd)
	name, def, err := resolveControl(registry, args, adjustFlags)
	if err != nil {
		return err
	}
	opts, err := def.ToOptions(name)
	if err != nil {
		return err
	}

	adj := action.Adjustment{By: adjustBy, ToMax: adjustMax, ToMin: adjustMin}
	if cmd.Flags().Changed("to") {
		to := adjustTo
		adj.To = &to
	}
	if _, err := adj.Gestures(opts); err != nil {
		return err
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Adjust Control", "rangectl adjust "+name,
		ui.Detail{Key: "Control", Value: def.Title(name)},
		ui.Detail{Key: "Range", Value: opts.Format(opts.Min) + " to " + opts.Format(opts.Max)},
		ui.Detail{Key: "Backend", Value: describeBackend(def.Backend)},
	)

	ctx := cmd.Context()
	dialCtx, cancel := context.WithTimeout(ctx, adjustTimeout)
	submitter, err := action.FromBackend(dialCtx, name, def.Backend)
	cancel()
	if err != nil {
		p.PrintError("Backend unreachable", err,
			"Check that the backend is running ('rangectl serve' starts a simulator)",
			"Use 'rangectl scan' to list advertised backends",
			"Use --backend log to try the control without a backend",
		)
		return err
	}
	if c, ok := submitter.(io.Closer); ok {
		defer c.Close()
	}

	initial := rangectl.Unknown
	if cmd.Flags().Changed("from") {
		initial = rangectl.Known(adjustFrom)
	} else {
		stateCtx, cancel := context.WithTimeout(ctx, stateWait)
		initial = action.InitialValue(stateCtx, submitter)
		cancel()
	}

	res, err := action.Adjust(ctx, opts, initial, adj, submitter, adjustTimeout, adjustNow)
	if err != nil {
		return err
	}

	details := []ui.Detail{
		{Key: "From", Value: opts.FormatValue(res.From)},
		{Key: "To", Value: res.Readout},
	}
	switch {
	case res.Err != nil:
		p.PrintError("Backend refused the change", res.Err,
			"The dial shows the new value; the device may not have moved",
			"Run with --log-level debug to see the exchange with the backend",
		)
		p.PrintGauge(def.Title(name), res.Readout, int(math.Round(res.Percent)))
		return fmt.Errorf("commit failed: %s", action.ShortMessage(res.Err))
	case !res.Submitted:
		p.PrintWarning("Already at "+res.Readout, details...)
	default:
		p.PrintSuccess("Value committed", details...)
	}
	p.PrintGauge(def.Title(name), res.Readout, int(math.Round(res.Percent)))
	return nil
}

func describeBackend(b *config.BackendDef) string {
	if b == nil {
		return config.BackendLog
	}
	switch b.Kind {
	case config.BackendWebSocket:
		return b.URL + " (" + b.Device + ")"
	case config.BackendREST:
		return strings.TrimSuffix(b.URL, "/") + "/command/" + b.Technology + "/" + b.Address + "/" + b.Command
	default:
		return b.Kind
	}
}

// scanCmd lists backends advertised over mDNS
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for rangectl backends on the network",
	Long: `Scan for backends using mDNS/DNS-SD discovery.

This command listens for _rangectl._tcp advertisements and lists every
backend found with its address, WebSocket endpoint and devices.`,
	Example: `  # Scan using the configured timeout
  rangectl scan

  # Quick 2-second scan
  rangectl scan --timeout 2

  # JSON output for scripting
  rangectl scan --json`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default: discover_timeout preference)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the result as JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	timeout := scanTimeout
	if timeout <= 0 {
		timeout = registry.Preferences.DiscoverTimeout
	}
	if timeout > 0 {
		scanner.Timeout = time.Duration(timeout) * time.Second
	}

	p := ui.NewPrinter(os.Stdout)
	if !scanJSON {
		p.PrintHeader("Backend Discovery", "rangectl scan",
			ui.Detail{Key: "Service", Value: discovery.ServiceType},
			ui.Detail{Key: "Timeout", Value: scanner.Timeout.String()},
		)
	}

	backends, err := scanner.ScanForBackendsWithContext(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scanRows(backends))
	}

	if len(backends) == 0 {
		p.PrintWarning("No backends found")
		p.Println("Troubleshooting:")
		for _, tip := range []string{
			"Start a simulator with 'rangectl serve --advertise'",
			"Check that multicast traffic is allowed on this network",
			"Try increasing --timeout for slower networks",
			"Use --backend on 'rangectl dial' to give an address directly",
		} {
			p.PrintMuted("  - " + tip)
		}
		return nil
	}

	rows := make([][]string, len(backends))
	for i, b := range backends {
		rows[i] = []string{
			b.Name,
			b.RESTURL(),
			b.WebSocketURL(),
			strings.Join(b.Devices(), ", "),
			b.GetMetadata(discovery.TXTVersion),
		}
	}
	p.PrintSuccess(fmt.Sprintf("Found %d backend(s)", len(backends)))
	p.PrintTable([]string{"Name", "Address", "WebSocket", "Devices", "Protocol"}, rows)
	p.PrintMuted("Use 'rangectl dial <control> --discover' to connect a control to one of them")
	return nil
}

type scanRow struct {
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	REST      string    `json:"rest"`
	WebSocket string    `json:"websocket"`
	Devices   []string  `json:"devices,omitempty"`
	Version   string    `json:"version,omitempty"`
	Seen      time.Time `json:"seen"`
}

func scanRows(backends []*discovery.Backend) []scanRow {
	rows := make([]scanRow, 0, len(backends))
	for _, b := range backends {
		rows = append(rows, scanRow{
			Name:      b.Name,
			Host:      b.Host,
			REST:      b.RESTURL(),
			WebSocket: b.WebSocketURL(),
			Devices:   b.Devices(),
			Version:   b.GetMetadata(discovery.TXTVersion),
			Seen:      b.DiscoveredAt,
		})
	}
	return rows
}
