package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/muurk/rangectl/internal/config"
)

// defaultControlName is opened when neither an argument nor the
// default_control preference names a control.
const defaultControlName = "dimmer"

// controlFlags override parts of a stored control from the command line.
type controlFlags struct {
	Min, Max, Step float64

	// Set when given explicitly; zero is a legitimate bound.
	MinSet, MaxSet, StepSet bool

	Unit       string
	Backend    string // URL, or "log"
	Device     string
	Technology string
	Command    string
}

func (f controlFlags) empty() bool {
	return !f.MinSet && !f.MaxSet && !f.StepSet && f.Unit == "" && f.Backend == ""
}

// bindControlFlags registers the override flags on cmd.
func bindControlFlags(cmd *cobra.Command, f *controlFlags) {
	cmd.Flags().Float64Var(&f.Min, "min", 0, "Override the lower bound")
	cmd.Flags().Float64Var(&f.Max, "max", 0, "Override the upper bound")
	cmd.Flags().Float64Var(&f.Step, "step", 0, "Override the step size")
	cmd.Flags().StringVar(&f.Unit, "unit", "", "Override the readout unit")
	cmd.Flags().StringVar(&f.Backend, "backend", "", "Backend URL (ws://, http://) or \"log\"")
	cmd.Flags().StringVar(&f.Device, "device", "", "Device name on the backend (default: the control name)")
	cmd.Flags().StringVar(&f.Technology, "technology", "rangectl", "REST technology path segment")
	cmd.Flags().StringVar(&f.Command, "command", "set", "REST command path segment")
}

// markChanged records which numeric flags were given explicitly.
func (f *controlFlags) markChanged(cmd *cobra.Command) {
	f.MinSet = cmd.Flags().Changed("min")
	f.MaxSet = cmd.Flags().Changed("max")
	f.StepSet = cmd.Flags().Changed("step")
}

// resolveControl picks the control to operate on and applies overrides. The
// stored definition is never modified.
func resolveControl(reg *config.Registry, args []string, f controlFlags) (string, *config.ControlDef, error) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	} else if reg.Preferences != nil {
		name = reg.Preferences.DefaultControl
	}
	if name == "" {
		name = defaultControlName
	}

	var def config.ControlDef
	if stored := reg.GetControl(name); stored != nil {
		def = *stored
		if stored.Backend != nil {
			b := *stored.Backend
			def.Backend = &b
		}
	} else if len(args) > 0 && f.empty() {
		return "", nil, fmt.Errorf("no control named %q (see 'rangectl controls list')", name)
	} else {
		def = *config.DefaultControlDef()
	}

	applyOverrides(&def, f)
	if f.Backend != "" {
		b, err := backendFromURL(f.Backend, name, f)
		if err != nil {
			return "", nil, err
		}
		def.Backend = b
	}

	if err := def.Validate(); err != nil {
		return "", nil, fmt.Errorf("control %q: %w", name, err)
	}
	return name, &def, nil
}

// applyOverrides copies the explicitly given range flags onto def.
func applyOverrides(def *config.ControlDef, f controlFlags) {
	if f.MinSet {
		def.Min = f.Min
	}
	if f.MaxSet {
		def.Max = f.Max
	}
	if f.StepSet {
		def.Step = f.Step
	}
	if f.Unit != "" {
		def.Unit = f.Unit
	}
}

// backendFromURL infers the backend kind from the URL scheme.
func backendFromURL(raw, name string, f controlFlags) (*config.BackendDef, error) {
	if raw == config.BackendLog {
		return &config.BackendDef{Kind: config.BackendLog}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", raw, err)
	}

	device := f.Device
	if device == "" {
		device = name
	}

	switch u.Scheme {
	case "ws", "wss":
		return &config.BackendDef{Kind: config.BackendWebSocket, URL: raw, Device: device}, nil
	case "http", "https":
		technology := f.Technology
		if technology == "" {
			technology = "rangectl"
		}
		command := f.Command
		if command == "" {
			command = "set"
		}
		return &config.BackendDef{
			Kind:       config.BackendREST,
			URL:        raw,
			Technology: technology,
			Address:    device,
			Command:    command,
		}, nil
	default:
		return nil, fmt.Errorf("backend URL %q: scheme must be ws, wss, http or https", raw)
	}
}

// deviceName is the name a backend knows the control by.
func deviceName(name string, b *config.BackendDef) string {
	if b == nil {
		return name
	}
	if b.Device != "" {
		return b.Device
	}
	if b.Address != "" {
		return b.Address
	}
	return name
}
