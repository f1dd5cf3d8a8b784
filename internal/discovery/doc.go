// Package discovery finds and advertises rangectl backends over mDNS.
//
// Backends (the `rangectl serve` simulator, or any gateway that speaks the
// rangectl WebSocket protocol) advertise the "_rangectl._tcp" service type.
// TXT records describe the endpoints:
//
//	ws=/ws           WebSocket path
//	rest=/command    REST command prefix
//	version=1.4.0    software version
//	devices=a,b      comma-separated device names (optional)
//	tls=1            endpoints use https and wss (optional)
//
// # Usage Example
//
//	backends, err := discovery.ScanForBackends(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, b := range backends {
//	    fmt.Printf("%s -> %s\n", b.Name, b.WebSocketURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Backends must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
