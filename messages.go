package server

import (
	"lantern/server/internal/reload"
)

const protocolVersion = 1

// helloMessage is the first frame sent to a freshly attached editor.
type helloMessage struct {
	Ver          int            `json:"ver"`
	Type         string         `json:"type"`
	ClientID     string         `json:"id"`
	ProjectName  string         `json:"project"`
	Scenes       []sceneSummary `json:"scenes"`
	Frame        uint64         `json:"frame"`
	TickRate     int            `json:"tickRate"`
	ReloadState  string         `json:"reloadState"`
	ServerTimeMS int64          `json:"serverTime"`
}

// stateMessage is the per-tick broadcast: enough for the editor to show what
// the preview is doing, not a full world snapshot.
type stateMessage struct {
	Ver          int            `json:"ver"`
	Type         string         `json:"type"`
	Frame        uint64         `json:"t"`
	Paused       bool           `json:"paused,omitempty"`
	Scenes       []sceneSummary `json:"scenes"`
	ServerTimeMS int64          `json:"serverTime"`
}

// sceneSummary is one live scene as reported to editors.
type sceneSummary struct {
	Name      string `json:"name"`
	Instances int    `json:"instances"`
	Layers    int    `json:"layers"`
	Mutations uint64 `json:"mutations"`
}

// reloadLogMessage carries the ordered outcome of one reload to every
// attached editor.
type reloadLogMessage struct {
	Ver        int            `json:"ver"`
	Type       string         `json:"type"`
	Entries    []reload.Entry `json:"entries"`
	Fatals     int            `json:"fatals"`
	Errors     int            `json:"errors"`
	Warnings   int            `json:"warnings"`
	DurationMS int64          `json:"durationMs"`
}

// errorMessage reports a rejected command back to the sender only.
type errorMessage struct {
	Ver     int    `json:"ver"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// heartbeatMessage acknowledges a client heartbeat with timing data.
type heartbeatMessage struct {
	Ver          int    `json:"ver"`
	Type         string `json:"type"`
	ServerTimeMS int64  `json:"serverTime"`
	ClientTimeMS int64  `json:"clientTime"`
	RTTMillis    int64  `json:"rtt"`
}

// clientMessage is the envelope for everything an editor sends.
type clientMessage struct {
	Type   string `json:"type"`
	SentAt int64  `json:"sentAt,omitempty"`
}
