// Package config provides user configuration management for rangectl.
//
// This package manages a YAML-based configuration file that stores named
// range control definitions (bounds, step, unit, icon family) together with
// the backend each control submits to, plus application preferences. The
// configuration follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/rangectl/config.yaml or $HOME/.config/rangectl/config.yaml
//   - macOS: $HOME/.config/rangectl/config.yaml
//   - Windows: %LOCALAPPDATA%\rangectl\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SetControl("lounge", &config.ControlDef{
//	    Label: "Lounge dimmer",
//	    Min:   0, Max: 100, Step: 5,
//	    Unit:  "%", Usage: "light",
//	    Backend: &config.BackendDef{Kind: config.BackendWebSocket, URL: "ws://hub.local:8787/ws", Device: "lounge"},
//	})
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
