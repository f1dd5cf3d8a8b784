package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/rangectl/internal/config"
	"github.com/muurk/rangectl/internal/server"
	"github.com/muurk/rangectl/internal/ui"
	"github.com/muurk/rangectl/internal/version"
)

// Serve command flags
var (
	serveHost      string
	servePort      int
	serveCert      string
	serveKey       string
	serveAdvertise bool
	serveName      string
	serveStrict    bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a simulated backend",
	Long: `Run a backend that accepts commits from rangectl and keeps device state
in memory.

The backend speaks the WebSocket protocol on /ws and the REST command path
/command/{technology}/{address}/{command}/{value}. Every control in the
configuration file with a backend becomes a device bounded by the control's
range. Other device names are created on first use unless --strict is set.

With --advertise the backend announces itself over mDNS so that
'rangectl scan' and 'rangectl dial --discover' can find it.`,
	Example: `  # Start on the default port
  rangectl serve

  # Advertise on the network under a friendly name
  rangectl serve --advertise --name living-room

  # Serve TLS (wss:// and https://)
  rangectl serve --cert fullchain.pem --key privkey.pem --port 8443

  # Only accept devices from the configuration file
  rangectl serve --strict --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&servePort, "port", server.DefaultPort, "Listen port")
	serveCmd.Flags().StringVar(&serveCert, "cert", "", "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&serveKey, "key", "", "Path to TLS private key file")
	serveCmd.Flags().BoolVar(&serveAdvertise, "advertise", false, "Announce the backend over mDNS")
	serveCmd.Flags().StringVar(&serveName, "name", "", "mDNS instance name (default: hostname)")
	serveCmd.Flags().BoolVar(&serveStrict, "strict", false, "Reject devices not defined in the configuration")
	serveCmd.MarkFlagsRequiredTogether("cert", "key")
}

func runServe(cmd *cobra.Command, args []string) error {
	// If files are provided, validate they exist
	for _, path := range []string{serveCert, serveKey} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}

	devices := devicesFromRegistry(registry)
	if serveStrict && len(devices) == 0 {
		return fmt.Errorf("--strict needs at least one control with a backend in the configuration")
	}

	cfg := &server.Config{
		Host:      serveHost,
		Port:      servePort,
		CertPath:  serveCert,
		KeyPath:   serveKey,
		Advertise: serveAdvertise,
		Name:      serveName,
		Version:   version.ProtocolVersion,
		Devices:   devices,
		Strict:    serveStrict,
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	scheme := "http"
	if serveCert != "" {
		scheme = "https"
	}
	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Simulated Backend", "rangectl serve",
		ui.Detail{Key: "Address", Value: scheme + "://" + srv.Addr().String()},
		ui.Detail{Key: "Devices", Value: strconv.Itoa(len(devices)) + " configured"},
		ui.Detail{Key: "Strict", Value: strconv.FormatBool(serveStrict)},
		ui.Detail{Key: "mDNS", Value: strconv.FormatBool(serveAdvertise)},
	)
	p.PrintMuted("Press Ctrl+C to stop")

	return srv.Start()
}

// devicesFromRegistry turns every control with a backend into a device. A
// control without a backend only logs, so no server will ever see it.
func devicesFromRegistry(reg *config.Registry) map[string]server.DeviceSpec {
	devices := make(map[string]server.DeviceSpec)
	for _, name := range reg.Names() {
		def := reg.Controls[name]
		if def.Backend == nil || def.Backend.Kind == config.BackendLog {
			continue
		}
		devices[deviceName(name, def.Backend)] = server.DeviceSpec{Min: def.Min, Max: def.Max}
	}
	return devices
}
