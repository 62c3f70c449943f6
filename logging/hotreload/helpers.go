package hotreload

import (
	"context"

	"lantern/server/logging"
)

const (
	// EventReloadStarted is emitted when a hot reload begins and the simulation pauses.
	EventReloadStarted logging.EventType = "hotreload.started"
	// EventReloadFinished is emitted when a hot reload completes and the simulation resumes.
	EventReloadFinished logging.EventType = "hotreload.finished"
	// EventEntry is emitted once per reconciliation log entry.
	EventEntry logging.EventType = "hotreload.entry"
)

// StartedPayload captures the scope of a reload about to run.
type StartedPayload struct {
	Scenes  int `json:"scenes"`
	Modules int `json:"modules"`
}

// FinishedPayload captures the outcome counters of a completed reload.
type FinishedPayload struct {
	Fatals     int   `json:"fatals"`
	Errors     int   `json:"errors"`
	Warnings   int   `json:"warnings"`
	DurationMS int64 `json:"durationMs"`
}

// EntryPayload carries one reconciliation log entry.
type EntryPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// Started publishes a reload start event.
func Started(ctx context.Context, pub logging.Publisher, frame uint64, payload StartedPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventReloadStarted,
		Frame:    frame,
		Entity:   logging.EntityRef{Kind: logging.EntityKindRuntime},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryReload,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// Finished publishes a reload completion event.
func Finished(ctx context.Context, pub logging.Publisher, frame uint64, payload FinishedPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventReloadFinished,
		Frame:    frame,
		Entity:   logging.EntityRef{Kind: logging.EntityKindRuntime},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryReload,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// Entry publishes a single reconciliation log entry.
func Entry(ctx context.Context, pub logging.Publisher, frame uint64, severity logging.Severity, payload EntryPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventEntry,
		Frame:    frame,
		Entity:   logging.EntityRef{Kind: logging.EntityKindRuntime},
		Severity: severity,
		Category: logging.CategoryReload,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}
