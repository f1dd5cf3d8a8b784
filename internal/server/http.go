package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/protocol"
)

// routes builds the HTTP handler:
//
//	GET /ws                                              WebSocket endpoint
//	GET /command/{technology}/{address}/{command}/{value} REST command
//	GET /state/{device}                                  current value
//	GET /devices                                         device names
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /command/{technology}/{address}/{command}/{value}", s.handleCommand)
	mux.HandleFunc("GET /state/{device}", s.handleState)
	mux.HandleFunc("GET /devices", s.handleDevices)
	return logRequests(mux)
}

// handleCommand applies a REST command. The address names the device; the
// technology and command segments are accepted as-is, as the simulator has
// a single "set value" command.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	device := r.PathValue("address")
	raw := r.PathValue("value")

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.RESTReply{
			Status:      protocol.ReplyError,
			Code:        RejectBadValue,
			Description: "value is not a number: " + raw,
		})
		return
	}

	if err := s.hub.Set(device, value); err != nil {
		code := RejectBadValue
		if re, ok := err.(*RejectError); ok {
			code = re.Code
		}
		writeJSON(w, http.StatusOK, protocol.RESTReply{Status: protocol.ReplyError, Code: code, Description: err.Error()})
		return
	}

	logging.Debug("REST command applied",
		zap.String("technology", r.PathValue("technology")),
		zap.String("device", device),
		zap.String("command", r.PathValue("command")),
		zap.Float64("value", value),
	)
	writeJSON(w, http.StatusOK, protocol.RESTReply{Status: protocol.ReplyOK, Code: 0})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	device := r.PathValue("device")
	value, err := s.hub.Get(device)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, protocol.StateReply{Device: device, Value: value})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Devices())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := newClient(s.hub, conn, r.RemoteAddr)
	if !s.track(c) {
		_ = conn.Close()
		return
	}
	logging.LogConnection(c.addr, "websocket_upgraded")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.readPump()
		s.hub.Unsubscribe(c)
		s.untrack(c)
		_ = conn.Close()
		logging.LogConnection(c.addr, "websocket_closed")
	}()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack passes the WebSocket upgrade through to the underlying writer.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}
