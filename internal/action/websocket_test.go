package action

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/rangectl/internal/protocol"
	"github.com/muurk/rangectl/internal/rangectl"
)

// fakeBackend answers subscribe with a state, acks commands below 100 and
// rejects the rest.
func fakeBackend(t *testing.T, initial *float64) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade() error = %v", err)
			return
		}
		defer conn.Close()

		write := func(m *protocol.Message) {
			data, err := protocol.Encode(m)
			if err != nil {
				t.Errorf("Encode() error = %v", err)
				return
			}
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.Decode(data)
			if err != nil {
				write(protocol.NewError("?", "", err.Error()))
				continue
			}
			switch msg.Type {
			case protocol.TypeSubscribe:
				write(protocol.NewState(msg.Device, initial))
			case protocol.TypeCommand:
				if *msg.Value >= 100 {
					write(protocol.NewError(msg.ID, msg.Device, "out of range"))
					continue
				}
				write(protocol.NewAck(msg))
				write(protocol.NewState(msg.Device, msg.Value))
				write(protocol.NewState("other-device", msg.Value))
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func nextState(t *testing.T, ch <-chan rangectl.Value) rangectl.Value {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("state channel closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state")
	}
	return rangectl.Unknown
}

func TestWebSocketSink_SubscribeAndSubmit(t *testing.T) {
	initial := 25.0
	server := fakeBackend(t, &initial)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink, err := DialWebSocket(ctx, wsURL(server), "lounge")
	if err != nil {
		t.Fatalf("DialWebSocket() error = %v", err)
	}
	defer sink.Close()

	states, err := sink.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if v := nextState(t, states); !v.Equal(25) {
		t.Errorf("initial state = %v, want 25", v)
	}

	if err := sink.Submit(ctx, rangectl.Action{Value: 60}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if v := nextState(t, states); !v.Equal(60) {
		t.Errorf("state after command = %v, want 60", v)
	}

	err = sink.Submit(ctx, rangectl.Action{Value: 150})
	if !IsRejectedError(err) {
		t.Errorf("Submit(150) error = %v, want rejection", err)
	}
}

func TestWebSocketSink_UnknownInitialState(t *testing.T) {
	server := fakeBackend(t, nil)
	defer server.Close()

	sink, err := DialWebSocket(context.Background(), wsURL(server), "lounge")
	if err != nil {
		t.Fatalf("DialWebSocket() error = %v", err)
	}
	defer sink.Close()

	states, err := sink.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if v := nextState(t, states); v.IsKnown() {
		t.Errorf("initial state = %v, want unknown", v)
	}
}

func TestWebSocketSink_ServerGoesAway(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Read the command, then hang up without answering.
		_, _, _ = conn.ReadMessage()
		conn.Close()
	}))
	defer server.Close()

	sink, err := DialWebSocket(context.Background(), wsURL(server), "lounge")
	if err != nil {
		t.Fatalf("DialWebSocket() error = %v", err)
	}
	defer sink.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = sink.Submit(ctx, rangectl.Action{Value: 1})
	if !IsRetryable(err) {
		t.Errorf("Submit() error = %v, want a retryable closed error", err)
	}

	select {
	case <-sink.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed after the server hung up")
	}
}

func TestDialWebSocket_Errors(t *testing.T) {
	if _, err := DialWebSocket(context.Background(), "ws://127.0.0.1:1/ws", ""); err == nil {
		t.Error("DialWebSocket() without device should fail")
	}

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := DialWebSocket(context.Background(), wsURL(server), "lounge")
	if !IsHTTPError(err) {
		t.Errorf("DialWebSocket() to a plain HTTP server error = %v, want HTTP error", err)
	}
}
