// Package server implements the rangectl backend simulator.
//
// The simulator stands in for the home-automation box a range control talks
// to. It keeps one numeric value per device in a Hub and exposes it two ways:
//
//   - WebSocket at /ws, speaking the JSON messages of package protocol.
//     Clients subscribe to devices and receive a state message on every
//     change, whichever transport caused it.
//   - REST at /command/{technology}/{address}/{command}/{value}, replying
//     with a protocol.RESTReply. The address segment names the device.
//
// /state/{device} and /devices are read-only helpers for scripts.
//
// # Devices
//
// Devices come from the control registry: each control with a backend gets a
// DeviceSpec with its range. In strict mode only those devices exist and
// anything else is rejected; otherwise unknown names are created on first
// use with no range check.
//
// # Discovery
//
// With Advertise set the server registers itself over mDNS (see package
// discovery) so `rangectl scan` and `rangectl dial --discover` can find it.
//
// # Shutdown
//
// Start blocks until SIGINT or SIGTERM. Shutdown stops accepting
// connections, closes every WebSocket client with a normal closure frame and
// withdraws the mDNS advertisement.
package server
