package server

import "encoding/json"

// Frame types sent by the browser.
const (
	FrameLocation = "location"
	FrameSet      = "set"
	FrameClear    = "clear"
)

// Frame types sent by the server. Navigation frames ("push", "replace")
// are written by history.Navigator.
const (
	FrameState = "state"
	FrameError = "error"
)

// ClientFrame is a message from the browser.
type ClientFrame struct {
	Type   string          `json:"type"`
	Search string          `json:"search,omitempty"`
	Key    string          `json:"key,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
}

// StateFrame reports every bound value after a client frame is handled.
type StateFrame struct {
	Type   string         `json:"type"`
	Values map[string]any `json:"values"`
}

// ErrorFrame reports a client frame that could not be handled. The session
// stays open.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
