package protocol

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func ptr(v float64) *float64 { return &v }

func TestConstructors(t *testing.T) {
	cmd := NewCommand("lounge", 60)
	if cmd.Type != TypeCommand || cmd.Device != "lounge" || cmd.Value == nil || *cmd.Value != 60 {
		t.Errorf("NewCommand() = %v", cmd)
	}
	if _, err := uuid.Parse(cmd.ID); err != nil {
		t.Errorf("NewCommand() ID %q is not a UUID: %v", cmd.ID, err)
	}

	if a, b := NewSubscribe("x"), NewSubscribe("x"); a.ID == b.ID {
		t.Error("IDs should be unique")
	}

	ack := NewAck(cmd)
	if ack.Type != TypeAck || ack.ID != cmd.ID || ack.Device != "lounge" {
		t.Errorf("NewAck() = %v, should echo the command id", ack)
	}

	v := 3.5
	state := NewState("heater", &v)
	v = 9
	if *state.Value != 3.5 {
		t.Error("NewState() should copy the value")
	}
	if unknown := NewState("heater", nil); unknown.Value != nil {
		t.Error("NewState(nil) should carry no value")
	}
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want string
	}{
		{
			name: "command",
			msg:  &Message{Type: TypeCommand, ID: "1", Device: "lounge", Value: ptr(60)},
			want: `{"type":"command","id":"1","device":"lounge","value":60}`,
		},
		{
			name: "zero value is kept",
			msg:  &Message{Type: TypeState, ID: "2", Device: "lounge", Value: ptr(0)},
			want: `{"type":"state","id":"2","device":"lounge","value":0}`,
		},
		{
			name: "unknown state",
			msg:  &Message{Type: TypeState, ID: "3", Device: "lounge"},
			want: `{"type":"state","id":"3","device":"lounge"}`,
		},
		{
			name: "error",
			msg:  NewError("4", "", "unknown device"),
			want: `{"type":"error","id":"4","device":"","error":"unknown device"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Encode() = %s, want %s", data, tt.want)
			}

			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(tt.msg, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantField string
	}{
		{"not json", `{"type":`, ""},
		{"missing type", `{"id":"1","device":"d"}`, "type"},
		{"unknown type", `{"type":"poke","id":"1","device":"d"}`, "type"},
		{"missing id", `{"type":"subscribe","device":"d"}`, "id"},
		{"missing device", `{"type":"subscribe","id":"1"}`, "device"},
		{"command without value", `{"type":"command","id":"1","device":"d"}`, "value"},
		{"error without reason", `{"type":"error","id":"1","device":"d"}`, "error"},
		{"too large", `{"type":"state","id":"` + strings.Repeat("x", MaxMessageSize) + `","device":"d"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if !IsProtocolError(err) {
				t.Fatalf("Decode() error = %v, want ProtocolError", err)
			}
			pe := err.(*ProtocolError)
			if pe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", pe.Field, tt.wantField)
			}
		})
	}
}

func TestEncode_RejectsNonFinite(t *testing.T) {
	_, err := Encode(&Message{Type: TypeCommand, ID: "1", Device: "d", Value: ptr(math.Inf(1))})
	if !IsProtocolError(err) {
		t.Errorf("Encode() error = %v, want ProtocolError", err)
	}
}

func TestMessageString(t *testing.T) {
	msg := &Message{Type: TypeCommand, ID: "0123456789abcdef", Device: "lounge", Value: ptr(42.5)}
	if got, want := msg.String(), "command[01234567] device=lounge value=42.5"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func BenchmarkDecode(b *testing.B) {
	data := []byte(`{"type":"command","id":"6f1c2a44-7b0e-4a55-9d1e-0d2b7e3f9c11","device":"lounge","value":60}`)
	for i := 0; i < b.N; i++ {
		_, _ = Decode(data)
	}
}
