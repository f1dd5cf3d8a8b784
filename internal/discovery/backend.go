package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Backend represents a discovered rangectl backend on the network
type Backend struct {
	// Name is the mDNS instance name (e.g., "living-room-hub")
	Name string

	// Host is the mDNS hostname (e.g., "hub.local.")
	Host string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the HTTP/WebSocket port
	Port int

	// Metadata contains the TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the backend was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the backend
func (b *Backend) String() string {
	return fmt.Sprintf("rangectl backend %s (%s) at %s", b.Name, b.Host, b.hostPort())
}

func (b *Backend) hostPort() string {
	return net.JoinHostPort(b.IP, strconv.Itoa(b.Port))
}

// Secure reports whether the backend serves TLS
func (b *Backend) Secure() bool {
	return b.GetMetadata(TXTTLS) == "1"
}

// RESTURL returns the HTTP base URL for REST commands
func (b *Backend) RESTURL() string {
	if b.Secure() {
		return "https://" + b.hostPort()
	}
	return "http://" + b.hostPort()
}

// WebSocketURL returns the WebSocket endpoint URL
func (b *Backend) WebSocketURL() string {
	path := b.GetMetadata(TXTWebSocketPath)
	if path == "" {
		path = DefaultWebSocketPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	scheme := "ws://"
	if b.Secure() {
		scheme = "wss://"
	}
	return scheme + b.hostPort() + path
}

// Devices returns the device names the backend advertised, if any
func (b *Backend) Devices() []string {
	raw := b.GetMetadata(TXTDevices)
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Backend) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
