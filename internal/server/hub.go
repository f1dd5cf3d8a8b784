package server

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/protocol"
)

// DeviceSpec bounds the values a simulated device accepts.
type DeviceSpec struct {
	Min     float64
	Max     float64
	Initial *float64 // nil starts the device as unknown
}

// RejectError is a command the hub refused. Its text goes back to the
// client verbatim.
type RejectError struct {
	Code   int
	Reason string
}

func (e *RejectError) Error() string {
	return e.Reason
}

// Reject codes reported in REST replies.
const (
	RejectUnknownDevice = 1
	RejectOutOfRange    = 2
	RejectBadValue      = 3
)

// Hub holds simulated device values and fans state changes out to
// WebSocket subscribers.
type Hub struct {
	mu     sync.Mutex
	specs  map[string]DeviceSpec
	values map[string]*float64
	subs   map[string]map[*client]struct{}

	// strict rejects devices that were not declared up front
	strict bool
}

// NewHub creates a hub. With strict set only devices in specs exist;
// otherwise any device name is accepted and starts unknown.
func NewHub(specs map[string]DeviceSpec, strict bool) *Hub {
	h := &Hub{
		specs:  make(map[string]DeviceSpec, len(specs)),
		values: make(map[string]*float64, len(specs)),
		subs:   make(map[string]map[*client]struct{}),
		strict: strict,
	}
	for name, spec := range specs {
		h.specs[name] = spec
		if spec.Initial != nil {
			v := *spec.Initial
			h.values[name] = &v
		}
	}
	return h
}

// Devices returns the declared and seen device names in sorted order.
func (h *Hub) Devices() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[string]bool)
	for name := range h.specs {
		seen[name] = true
	}
	for name := range h.values {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the device value (nil when unknown).
func (h *Hub) Get(device string) (*float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.checkDevice(device); err != nil {
		return nil, err
	}
	return copyValue(h.values[device]), nil
}

// Set stores a value and broadcasts the new state.
func (h *Hub) Set(device string, value float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.checkDevice(device); err != nil {
		return err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &RejectError{Code: RejectBadValue, Reason: "value must be a finite number"}
	}
	if spec, ok := h.specs[device]; ok && (value < spec.Min || value > spec.Max) {
		return &RejectError{
			Code:   RejectOutOfRange,
			Reason: fmt.Sprintf("value %s outside [%s, %s]", protocol.FormatValue(value), protocol.FormatValue(spec.Min), protocol.FormatValue(spec.Max)),
		}
	}

	v := value
	h.values[device] = &v
	logging.Info("Device value set",
		zap.String("device", device),
		zap.Float64("value", value),
	)
	h.broadcastLocked(device)
	return nil
}

// Subscribe registers c for state updates of device.
func (h *Hub) Subscribe(device string, c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.checkDevice(device); err != nil {
		return err
	}
	set, ok := h.subs[device]
	if !ok {
		set = make(map[*client]struct{})
		h.subs[device] = set
	}
	set[c] = struct{}{}
	return nil
}

// Unsubscribe removes c from every device.
func (h *Hub) Unsubscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for device, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, device)
		}
	}
}

// Subscribers returns the number of clients watching device.
func (h *Hub) Subscribers(device string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[device])
}

func (h *Hub) checkDevice(device string) error {
	if device == "" {
		return &RejectError{Code: RejectUnknownDevice, Reason: "missing device"}
	}
	if !h.strict {
		return nil
	}
	if _, ok := h.specs[device]; !ok {
		return &RejectError{Code: RejectUnknownDevice, Reason: fmt.Sprintf("unknown device %q", device)}
	}
	return nil
}

func (h *Hub) broadcastLocked(device string) {
	set := h.subs[device]
	if len(set) == 0 {
		return
	}
	data, err := protocol.Encode(protocol.NewState(device, h.values[device]))
	if err != nil {
		logging.Error("Failed to encode state", zap.String("device", device), zap.Error(err))
		return
	}
	for c := range set {
		c.enqueue(data)
	}
}

func copyValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
