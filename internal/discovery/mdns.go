package discovery

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
)

const (
	// ServiceType is the mDNS service type rangectl backends advertise
	ServiceType = "_rangectl._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for backend discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultWebSocketPath is assumed when a backend omits the ws TXT key
	DefaultWebSocketPath = "/ws"
)

// TXT record keys
const (
	TXTWebSocketPath = "ws"
	TXTRESTPrefix    = "rest"
	TXTVersion       = "version"
	TXTDevices       = "devices"
	TXTTLS           = "tls"
)

// Scanner handles mDNS backend discovery
type Scanner struct {
	// Timeout is the maximum time to wait for backend discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForBackends discovers all rangectl backends on the local network
func (s *Scanner) ScanForBackends() ([]*Backend, error) {
	return s.ScanForBackendsWithContext(context.Background())
}

// ScanForBackendsWithContext discovers backends with a custom context. The
// result is sorted by name.
func (s *Scanner) ScanForBackendsWithContext(ctx context.Context) ([]*Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu       sync.Mutex
		backends []*Backend
	)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		seen := make(map[string]bool)
		for entry := range entries {
			backend := parseServiceEntry(entry)
			if backend == nil || seen[backend.Name] {
				continue
			}
			seen[backend.Name] = true
			logging.Debug("Backend discovered", zap.String("backend", backend.String()))
			mu.Lock()
			backends = append(backends, backend)
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	found := append([]*Backend(nil), backends...)
	mu.Unlock()

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

// WaitForBackend waits for a specific backend by instance name
func (s *Scanner) WaitForBackend(ctx context.Context, name string) (*Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Backend, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			backend := parseServiceEntry(entry)
			if backend != nil && backend.Name == name {
				select {
				case found <- backend:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case backend := <-found:
		return backend, nil
	case <-ctx.Done():
		select {
		case backend := <-found:
			return backend, nil
		default:
		}
		return nil, fmt.Errorf("backend %q not found within %s", name, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Backend.
// Returns nil when the entry has no instance name or address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Backend {
	if entry.Instance == "" {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" || entry.Port == 0 {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Backend{
		Name:         entry.Instance,
		Host:         entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// TXTRecords builds the TXT records a backend advertises.
func TXTRecords(version string, devices []string) []string {
	txt := []string{
		TXTWebSocketPath + "=" + DefaultWebSocketPath,
		TXTRESTPrefix + "=/command",
		TXTVersion + "=" + version,
	}
	if len(devices) > 0 {
		txt = append(txt, TXTDevices+"="+strings.Join(devices, ","))
	}
	return txt
}

// Advertisement is a running mDNS registration.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise registers a backend instance on all interfaces until Shutdown.
func Advertise(name string, port int, txt []string) (*Advertisement, error) {
	server, err := zeroconf.Register(name, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising backend over mDNS",
		zap.String("name", name),
		zap.String("service", ServiceType),
		zap.String("port", strconv.Itoa(port)),
	)
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the registration.
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

// ScanForBackends is a convenience function to scan with a custom timeout
func ScanForBackends(timeout time.Duration) ([]*Backend, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForBackends()
}

// FindBackend searches for a backend by instance name with the default timeout
func FindBackend(name string) (*Backend, error) {
	return NewScanner().WaitForBackend(context.Background(), name)
}
