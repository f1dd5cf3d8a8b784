package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// MessageType is the "type" field of a message.
type MessageType string

const (
	TypeSubscribe MessageType = "subscribe"
	TypeCommand   MessageType = "command"
	TypeState     MessageType = "state"
	TypeAck       MessageType = "ack"
	TypeError     MessageType = "error"
)

// MaxMessageSize bounds a single encoded message. Readers pass it to
// websocket.Conn.SetReadLimit.
const MaxMessageSize = 4096

// Message is the envelope for every message type.
type Message struct {
	Type   MessageType `json:"type"`
	ID     string      `json:"id"`
	Device string      `json:"device"`
	Value  *float64    `json:"value,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSubscribe asks for state updates of device.
func NewSubscribe(device string) *Message {
	return &Message{Type: TypeSubscribe, ID: uuid.NewString(), Device: device}
}

// NewCommand sets device to value.
func NewCommand(device string, value float64) *Message {
	return &Message{Type: TypeCommand, ID: uuid.NewString(), Device: device, Value: &value}
}

// NewState reports the value of device. A nil value means unknown.
func NewState(device string, value *float64) *Message {
	m := &Message{Type: TypeState, ID: uuid.NewString(), Device: device}
	if value != nil {
		v := *value
		m.Value = &v
	}
	return m
}

// NewAck acknowledges req.
func NewAck(req *Message) *Message {
	return &Message{Type: TypeAck, ID: req.ID, Device: req.Device}
}

// NewError rejects the request with the given id.
func NewError(id, device, reason string) *Message {
	return &Message{Type: TypeError, ID: id, Device: device, Error: reason}
}

// Encode validates msg and marshals it.
func Encode(msg *Message) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, &ProtocolError{Message: "failed to marshal message", Err: err}
	}
	return data, nil
}

// Decode unmarshals and validates one message.
func Decode(data []byte) (*Message, error) {
	if len(data) > MaxMessageSize {
		return nil, &ProtocolError{Message: fmt.Sprintf("message too large (%d bytes, max %d)", len(data), MaxMessageSize)}
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &ProtocolError{Message: "malformed JSON", Err: err}
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks the fields each message type requires.
func (m *Message) Validate() error {
	switch m.Type {
	case TypeSubscribe, TypeCommand, TypeState, TypeAck, TypeError:
	case "":
		return &ProtocolError{Field: "type", Message: "missing"}
	default:
		return &ProtocolError{Field: "type", Message: fmt.Sprintf("unknown type %q", m.Type)}
	}

	if m.ID == "" {
		return &ProtocolError{Field: "id", Message: "missing"}
	}
	if m.Device == "" && m.Type != TypeError {
		return &ProtocolError{Field: "device", Message: "missing"}
	}

	if m.Type == TypeCommand && m.Value == nil {
		return &ProtocolError{Field: "value", Message: "command without value"}
	}
	if m.Value != nil && (math.IsNaN(*m.Value) || math.IsInf(*m.Value, 0)) {
		return &ProtocolError{Field: "value", Message: "must be a finite number"}
	}
	if m.Type == TypeError && m.Error == "" {
		return &ProtocolError{Field: "error", Message: "error without reason"}
	}
	return nil
}

func (m *Message) String() string {
	s := fmt.Sprintf("%s[%s] device=%s", m.Type, shortID(m.ID), m.Device)
	if m.Value != nil {
		s += fmt.Sprintf(" value=%g", *m.Value)
	}
	if m.Error != "" {
		s += " error=" + m.Error
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ProtocolError reports a message that could not be encoded or decoded.
type ProtocolError struct {
	Field   string // Offending field, empty for whole-message errors
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	prefix := "protocol error"
	if e.Field != "" {
		prefix += " in " + e.Field
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError checks if an error is, or wraps, a *ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
