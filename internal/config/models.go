package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/muurk/rangectl/internal/rangectl"
)

// Backend kinds understood by the action package.
const (
	BackendREST      = "rest"
	BackendWebSocket = "websocket"
	BackendLog       = "log"
)

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                    `yaml:"version"`
	Controls    map[string]*ControlDef `yaml:"controls,omitempty"` // Keyed by control name
	Preferences *Preferences           `yaml:"preferences,omitempty"`
}

// ControlDef is the stored definition of one range control.
type ControlDef struct {
	Label       string        `yaml:"label,omitempty"`        // Shown in the dial title
	Min         float64       `yaml:"min"`                    // Lower bound
	Max         float64       `yaml:"max"`                    // Upper bound
	Step        float64       `yaml:"step"`                   // Increment size
	Unit        string        `yaml:"unit,omitempty"`         // Readout suffix (e.g. "%", "°C")
	Usage       string        `yaml:"usage,omitempty"`        // Icon family (e.g. "light")
	IdleClose   time.Duration `yaml:"idle_close,omitempty"`   // e.g. "3s"; zero means the default
	PercentMode string        `yaml:"percent_mode,omitempty"` // "range" (default) or "span"
	Backend     *BackendDef   `yaml:"backend,omitempty"`      // Where commits go; nil logs only
}

// BackendDef describes the transport a control commits through.
type BackendDef struct {
	Kind string `yaml:"kind"`          // rest, websocket or log
	URL  string `yaml:"url,omitempty"` // Base URL (http://... or ws://...)

	// WebSocket backends address the control by device name.
	Device string `yaml:"device,omitempty"`

	// REST backends use the Domogik command path
	// /command/{technology}/{address}/{command}/{value}.
	Technology string `yaml:"technology,omitempty"`
	Address    string `yaml:"address,omitempty"`
	Command    string `yaml:"command,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DiscoverTimeout int    `yaml:"discover_timeout"`          // mDNS discovery timeout in seconds
	DefaultControl  string `yaml:"default_control,omitempty"` // Opened by a bare `rangectl`
	LogLevel        string `yaml:"log_level,omitempty"`       // Used when no flag or env var is set
}

func defaultPreferences() *Preferences {
	return &Preferences{
		DiscoverTimeout: 5,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Controls:    make(map[string]*ControlDef),
		Preferences: defaultPreferences(),
	}
}

// DefaultControlDef is the control used when nothing is configured: a
// 0-100% dimmer that logs its commits.
func DefaultControlDef() *ControlDef {
	return &ControlDef{
		Label:   "Dimmer",
		Min:     0,
		Max:     100,
		Step:    5,
		Unit:    "%",
		Usage:   "light",
		Backend: &BackendDef{Kind: BackendLog},
	}
}

// GetControl returns the named control definition, or nil.
func (r *Registry) GetControl(name string) *ControlDef {
	return r.Controls[name]
}

// EnsureControl ensures a control entry exists in the registry.
// A missing entry is created from DefaultControlDef.
func (r *Registry) EnsureControl(name string) *ControlDef {
	if r.Controls == nil {
		r.Controls = make(map[string]*ControlDef)
	}

	if def, exists := r.Controls[name]; exists {
		return def
	}

	def := DefaultControlDef()
	r.Controls[name] = def
	return def
}

// SetControl adds or replaces a control definition after validating it.
func (r *Registry) SetControl(name string, def *ControlDef) error {
	if name == "" {
		return fmt.Errorf("control name must not be empty")
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("control %q: %w", name, err)
	}
	if r.Controls == nil {
		r.Controls = make(map[string]*ControlDef)
	}
	r.Controls[name] = def
	return nil
}

// RemoveControl deletes a control. It reports whether it existed.
func (r *Registry) RemoveControl(name string) bool {
	if _, exists := r.Controls[name]; !exists {
		return false
	}
	delete(r.Controls, name)
	if r.Preferences != nil && r.Preferences.DefaultControl == name {
		r.Preferences.DefaultControl = ""
	}
	return true
}

// Names returns the control names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Controls))
	for name := range r.Controls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every control definition.
func (r *Registry) Validate() error {
	for _, name := range r.Names() {
		if err := r.Controls[name].Validate(); err != nil {
			return fmt.Errorf("control %q: %w", name, err)
		}
	}
	return nil
}

// Validate checks that the definition can build a control and that its
// backend is complete.
func (d *ControlDef) Validate() error {
	if d == nil {
		return fmt.Errorf("definition is empty")
	}
	if _, err := d.ToOptions(""); err != nil {
		return err
	}
	return d.Backend.validate()
}

func (b *BackendDef) validate() error {
	if b == nil {
		return nil
	}
	switch b.Kind {
	case BackendLog:
		return nil
	case BackendREST:
		if b.URL == "" || b.Technology == "" || b.Address == "" || b.Command == "" {
			return fmt.Errorf("rest backend needs url, technology, address and command")
		}
	case BackendWebSocket:
		if b.URL == "" || b.Device == "" {
			return fmt.Errorf("websocket backend needs url and device")
		}
	default:
		return fmt.Errorf("unknown backend kind %q (want %s, %s or %s)", b.Kind, BackendREST, BackendWebSocket, BackendLog)
	}
	return nil
}

// ToOptions converts the definition into validated control options.
func (d *ControlDef) ToOptions(name string) (rangectl.Options, error) {
	mode, err := rangectl.ParsePercentMode(d.PercentMode)
	if err != nil {
		return rangectl.Options{}, err
	}

	opts := rangectl.Options{
		Name:        name,
		Min:         d.Min,
		Max:         d.Max,
		Step:        d.Step,
		Unit:        d.Unit,
		Usage:       d.Usage,
		IdleClose:   d.IdleClose,
		PercentMode: mode,
	}
	if err := opts.Validate(); err != nil {
		return rangectl.Options{}, err
	}
	return opts, nil
}

// Title is the label, falling back to the given name.
func (d *ControlDef) Title(name string) string {
	if d.Label != "" {
		return d.Label
	}
	return name
}
