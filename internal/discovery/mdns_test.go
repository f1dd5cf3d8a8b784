package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "IPv4 backend",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "lounge-hub"},
				HostName:      "hub.local.",
				Port:          8787,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
				Text:          []string{"ws=/ws", "version=1.0.0"},
			},
			wantName: "lounge-hub",
			wantIP:   "192.168.1.20",
			wantPort: 8787,
		},
		{
			name: "IPv6 only backend",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "v6"},
				HostName:      "v6.local.",
				Port:          8787,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantName: "v6",
			wantIP:   "fe80::1",
			wantPort: 8787,
		},
		{
			name: "prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "dual"},
				Port:          9000,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.7")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantName: "dual",
			wantIP:   "10.0.0.7",
			wantPort: 9000,
		},
		{
			name: "no instance name",
			entry: &zeroconf.ServiceEntry{
				Port:     8787,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				Port:          8787,
			},
			wantNil: true,
		},
		{
			name: "no port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "portless"},
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if backend != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", backend)
				}
				return
			}
			if backend == nil {
				t.Fatal("parseServiceEntry() = nil, want backend")
			}
			if backend.Name != tt.wantName {
				t.Errorf("Name = %v, want %v", backend.Name, tt.wantName)
			}
			if backend.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", backend.IP, tt.wantIP)
			}
			if backend.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", backend.Port, tt.wantPort)
			}
			if time.Since(backend.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", backend.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "hub"},
		Port:          8787,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
		Text:          TXTRecords("1.2.3", []string{"lounge", "porch"}),
	}
	entry.Text = append(entry.Text, "flag")

	backend := parseServiceEntry(entry)
	if backend == nil {
		t.Fatal("parseServiceEntry() = nil")
	}

	want := map[string]string{
		"ws":      "/ws",
		"rest":    "/command",
		"version": "1.2.3",
		"devices": "lounge,porch",
		"flag":    "",
	}
	if diff := cmp.Diff(want, backend.Metadata); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"lounge", "porch"}, backend.Devices()); diff != "" {
		t.Errorf("Devices() mismatch (-want +got):\n%s", diff)
	}
}

func TestBackendURLs(t *testing.T) {
	tests := []struct {
		name    string
		backend *Backend
		wantWS  string
		wantRES string
	}{
		{
			name:    "defaults",
			backend: &Backend{IP: "192.168.1.20", Port: 8787},
			wantWS:  "ws://192.168.1.20:8787/ws",
			wantRES: "http://192.168.1.20:8787",
		},
		{
			name:    "custom path without slash",
			backend: &Backend{IP: "10.0.0.1", Port: 80, Metadata: map[string]string{"ws": "socket"}},
			wantWS:  "ws://10.0.0.1:80/socket",
			wantRES: "http://10.0.0.1:80",
		},
		{
			name:    "TLS",
			backend: &Backend{IP: "10.0.0.1", Port: 8443, Metadata: map[string]string{"tls": "1"}},
			wantWS:  "wss://10.0.0.1:8443/ws",
			wantRES: "https://10.0.0.1:8443",
		},
		{
			name:    "IPv6",
			backend: &Backend{IP: "fe80::1", Port: 8787},
			wantWS:  "ws://[fe80::1]:8787/ws",
			wantRES: "http://[fe80::1]:8787",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.backend.WebSocketURL(); got != tt.wantWS {
				t.Errorf("WebSocketURL() = %v, want %v", got, tt.wantWS)
			}
			if got := tt.backend.RESTURL(); got != tt.wantRES {
				t.Errorf("RESTURL() = %v, want %v", got, tt.wantRES)
			}
		})
	}
}

func TestBackendString(t *testing.T) {
	b := &Backend{Name: "hub", Host: "hub.local.", IP: "192.168.1.20", Port: 8787}
	if got, want := b.String(), "rangectl backend hub (hub.local.) at 192.168.1.20:8787"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGetMetadata_NilMap(t *testing.T) {
	b := &Backend{}
	if b.GetMetadata("ws") != "" {
		t.Error("GetMetadata() on nil map should return empty string")
	}
	if b.Devices() != nil {
		t.Error("Devices() without TXT should be nil")
	}
}

func TestNewScanner(t *testing.T) {
	if s := NewScanner(); s.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", s.Timeout, DefaultScanTimeout)
	}
}
