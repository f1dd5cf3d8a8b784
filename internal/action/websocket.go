package action

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/protocol"
	"github.com/muurk/rangectl/internal/rangectl"
	"github.com/muurk/rangectl/internal/version"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Buffered state updates per sink; older updates are dropped first
	stateBuffer = 16
)

// WebSocketSink submits actions as protocol command messages over one
// persistent connection and streams state updates for its device.
type WebSocketSink struct {
	url    string
	device string
	conn   *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *protocol.Message

	states    chan rangectl.Value
	done      chan struct{}
	closeOnce sync.Once
	readErr   error
}

// DialWebSocket connects to a backend and starts reading.
func DialWebSocket(ctx context.Context, url, device string) (*WebSocketSink, error) {
	if device == "" {
		return nil, NewConfigError("websocket backend needs a device name")
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{"User-Agent": {version.UserAgent()}})
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, NewHTTPError(resp.StatusCode, "websocket upgrade refused")
		}
		return nil, NewNetworkError("websocket dial failed", err)
	}
	conn.SetReadLimit(protocol.MaxMessageSize)
	logging.LogConnection(url, "websocket_connected")

	s := &WebSocketSink{
		url:     url,
		device:  device,
		conn:    conn,
		pending: make(map[string]chan *protocol.Message),
		states:  make(chan rangectl.Value, stateBuffer),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Device returns the device name this sink commands.
func (s *WebSocketSink) Device() string { return s.device }

// Submit sends a command and waits for the matching ack or error.
func (s *WebSocketSink) Submit(ctx context.Context, a rangectl.Action) error {
	msg := protocol.NewCommand(s.device, a.Value)
	reply := make(chan *protocol.Message, 1)

	s.mu.Lock()
	s.pending[msg.ID] = reply
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, msg.ID)
		s.mu.Unlock()
	}()

	if err := s.send(msg); err != nil {
		return err
	}

	select {
	case r := <-reply:
		if r.Type == protocol.TypeError {
			return NewRejectedError(0, r.Error)
		}
		return nil
	case <-s.done:
		return NewClosedError(s.readErr)
	case <-ctx.Done():
		return NewNetworkError("no ack from backend", ctx.Err())
	}
}

// Subscribe asks the backend for state updates and returns the channel they
// arrive on. The channel is closed when the connection ends.
func (s *WebSocketSink) Subscribe() (<-chan rangectl.Value, error) {
	if err := s.send(protocol.NewSubscribe(s.device)); err != nil {
		return nil, err
	}
	return s.states, nil
}

// Done is closed when the connection has ended.
func (s *WebSocketSink) Done() <-chan struct{} {
	return s.done
}

// Close sends a close frame and tears down the connection.
func (s *WebSocketSink) Close() error {
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()

	err := s.conn.Close()
	<-s.done
	return err
}

func (s *WebSocketSink) send(msg *protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return NewParseError("failed to encode message", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.done:
		return NewClosedError(s.readErr)
	default:
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return NewNetworkError("websocket write failed", err)
	}
	logging.LogWebSocketMessage(s.url, "sent", websocket.TextMessage, data)
	return nil
}

func (s *WebSocketSink) readLoop() {
	defer s.finish()

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr = err
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, websocket.ErrCloseSent) {
				logging.Debug("WebSocket read ended",
					zap.String("url", s.url),
					zap.Error(err),
				)
			}
			return
		}
		logging.LogWebSocketMessage(s.url, "received", msgType, data)

		msg, err := protocol.Decode(data)
		if err != nil {
			logging.Warn("Ignoring malformed message",
				zap.String("url", s.url),
				zap.Error(err),
			)
			continue
		}
		s.dispatch(msg)
	}
}

func (s *WebSocketSink) dispatch(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeAck, protocol.TypeError:
		s.mu.Lock()
		reply, ok := s.pending[msg.ID]
		s.mu.Unlock()
		if !ok {
			logging.Debug("Reply for unknown request", zap.String("message", msg.String()))
			return
		}
		reply <- msg

	case protocol.TypeState:
		if msg.Device != s.device {
			return
		}
		s.pushState(rangectl.ValueOf(msg.Value))

	default:
		logging.Debug("Unexpected message from backend", zap.String("message", msg.String()))
	}
}

// pushState never blocks the read loop: when the consumer lags the oldest
// update is dropped, since only the latest state matters.
func (s *WebSocketSink) pushState(v rangectl.Value) {
	for {
		select {
		case s.states <- v:
			return
		default:
		}
		select {
		case <-s.states:
		default:
		}
	}
}

func (s *WebSocketSink) finish() {
	s.closeOnce.Do(func() {
		close(s.done)
		close(s.states)
		logging.LogConnection(s.url, "websocket_closed")
	})
}
