package protocol

import (
	"fmt"
	"net/url"
	"strconv"
)

// REST gateway reply statuses.
const (
	ReplyOK    = "OK"
	ReplyError = "ERROR"
)

// RESTReply is the JSON body a REST gateway returns for a command.
type RESTReply struct {
	Status      string `json:"status"`
	Code        int    `json:"code"`
	Description string `json:"description,omitempty"`
}

// StateReply is the JSON body of a state query. Value is omitted when
// unknown.
type StateReply struct {
	Device string   `json:"device"`
	Value  *float64 `json:"value,omitempty"`
}

// CommandPath builds the Domogik-style command path
// /command/{technology}/{address}/{command}/{value}.
func CommandPath(technology, address, command string, value float64) string {
	return fmt.Sprintf("/command/%s/%s/%s/%s",
		url.PathEscape(technology),
		url.PathEscape(address),
		url.PathEscape(command),
		FormatValue(value),
	)
}

// FormatValue renders a value the way it travels in paths: shortest
// representation, no exponent.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
