package preview

import (
	"context"

	"lantern/server/logging"
)

const (
	// EventClientConnected is emitted when an editor attaches to the preview.
	EventClientConnected logging.EventType = "preview.client_connected"
	// EventClientDisconnected is emitted when an editor detaches.
	EventClientDisconnected logging.EventType = "preview.client_disconnected"
	// EventWatchTriggered is emitted when the filesystem watcher requests a reload.
	EventWatchTriggered logging.EventType = "preview.watch_triggered"
)

// ClientPayload identifies an attached editor connection.
type ClientPayload struct {
	RemoteAddr string `json:"remoteAddr"`
}

// WatchPayload names the paths that changed on disk.
type WatchPayload struct {
	Paths []string `json:"paths"`
}

// ClientConnected publishes an editor attach event.
func ClientConnected(ctx context.Context, pub logging.Publisher, clientID string, payload ClientPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventClientConnected,
		Entity:   logging.EntityRef{ID: clientID, Kind: logging.EntityKindRuntime},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPreview,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// ClientDisconnected publishes an editor detach event.
func ClientDisconnected(ctx context.Context, pub logging.Publisher, clientID string, payload ClientPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventClientDisconnected,
		Entity:   logging.EntityRef{ID: clientID, Kind: logging.EntityKindRuntime},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPreview,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// WatchTriggered publishes a watcher-initiated reload request.
func WatchTriggered(ctx context.Context, pub logging.Publisher, payload WatchPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventWatchTriggered,
		Entity:   logging.EntityRef{Kind: logging.EntityKindRuntime},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPreview,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}
