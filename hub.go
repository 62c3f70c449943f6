// Package server is the preview hub: it runs the game runtime on a fixed
// tick, accepts editor connections over websockets, and turns editor reload
// commands (or filesystem changes) into hot reloads whose outcome streams
// back to every attached editor.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"lantern/server/internal/reload"
	"lantern/server/internal/runtime"
	"lantern/server/logging"
	"lantern/server/logging/preview"
)

const writeWait = 10 * time.Second

// Hub owns the editor subscribers and drives the runtime step loop.
type Hub struct {
	mu            sync.Mutex
	subscribers   map[string]*subscriber
	lastSummaries []sceneSummary
	nextID        atomic.Uint64

	runtime   *runtime.Runtime
	reloader  *reload.HotReloader
	publisher logging.Publisher
	cfg       Config
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewHub builds a hub over a booted runtime and its reloader.
func NewHub(rt *runtime.Runtime, reloader *reload.HotReloader, publisher logging.Publisher, cfg Config) *Hub {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Hub{
		subscribers: make(map[string]*subscriber),
		runtime:     rt,
		reloader:    reloader,
		publisher:   publisher,
		cfg:         cfg,
	}
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *subscriber) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(data)
}

// Subscribe registers an editor connection and sends it the hello frame.
func (h *Hub) Subscribe(conn *websocket.Conn) (*subscriber, error) {
	id := fmt.Sprintf("editor-%d", h.nextID.Add(1))
	sub := &subscriber{id: id, conn: conn}

	h.mu.Lock()
	h.subscribers[id] = sub
	h.mu.Unlock()

	preview.ClientConnected(context.Background(), h.publisher, id, preview.ClientPayload{
		RemoteAddr: conn.RemoteAddr().String(),
	})

	hello := helloMessage{
		Ver:          protocolVersion,
		Type:         "hello",
		ClientID:     id,
		ProjectName:  h.reloader.Project().Name,
		Scenes:       h.sceneSummaries(),
		Frame:        h.runtime.Frame(),
		TickRate:     h.cfg.TickRate,
		ReloadState:  string(h.reloader.State()),
		ServerTimeMS: time.Now().UnixMilli(),
	}
	if err := sub.writeJSON(hello); err != nil {
		h.disconnect(sub)
		return nil, err
	}
	return sub, nil
}

func (h *Hub) disconnect(sub *subscriber) {
	h.mu.Lock()
	_, known := h.subscribers[sub.id]
	delete(h.subscribers, sub.id)
	h.mu.Unlock()
	sub.conn.Close()
	if known {
		preview.ClientDisconnected(context.Background(), h.publisher, sub.id, preview.ClientPayload{
			RemoteAddr: sub.conn.RemoteAddr().String(),
		})
	}
}

// ServeClient reads one editor connection until it closes. It is the
// websocket handler's goroutine body.
func (h *Hub) ServeClient(ctx context.Context, conn *websocket.Conn) {
	sub, err := h.Subscribe(conn)
	if err != nil {
		return
	}
	defer h.disconnect(sub)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			sub.writeJSON(errorMessage{Ver: protocolVersion, Type: "error", Message: "malformed message"})
			continue
		}
		switch msg.Type {
		case "reload":
			h.handleReload(ctx, sub)
		case "heartbeat":
			now := time.Now()
			var rtt int64
			if msg.SentAt > 0 {
				if d := now.UnixMilli() - msg.SentAt; d > 0 {
					rtt = d
				}
			}
			sub.writeJSON(heartbeatMessage{
				Ver:          protocolVersion,
				Type:         "heartbeat",
				ServerTimeMS: now.UnixMilli(),
				ClientTimeMS: msg.SentAt,
				RTTMillis:    rtt,
			})
		default:
			sub.writeJSON(errorMessage{Ver: protocolVersion, Type: "error", Message: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

func (h *Hub) handleReload(ctx context.Context, sub *subscriber) {
	if err := h.TriggerReload(ctx); err != nil {
		sub.writeJSON(errorMessage{Ver: protocolVersion, Type: "error", Message: err.Error()})
	}
}

// TriggerReload runs one reload cycle and broadcasts its log. The filesystem
// watcher and editor commands share this path, so concurrent triggers
// collapse into ErrReloadInProgress for all but the first.
func (h *Hub) TriggerReload(ctx context.Context) error {
	started := time.Now()
	entries, err := h.reloader.Reload(ctx)
	if err != nil {
		// Typically ErrReloadInProgress; only the caller that lost the race
		// hears about it.
		return err
	}
	fatals, errCount, warnings := countEntries(entries)
	h.broadcast(reloadLogMessage{
		Ver:        protocolVersion,
		Type:       "reloadLog",
		Entries:    entries,
		Fatals:     fatals,
		Errors:     errCount,
		Warnings:   warnings,
		DurationMS: time.Since(started).Milliseconds(),
	})
	return nil
}

func countEntries(entries []reload.Entry) (fatals, errs, warnings int) {
	for _, entry := range entries {
		switch entry.Kind {
		case reload.KindFatal:
			fatals++
		case reload.KindError:
			errs++
		case reload.KindWarning:
			warnings++
		}
	}
	return fatals, errs, warnings
}

func (h *Hub) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.write(data); err != nil {
			h.disconnect(sub)
		}
	}
}

// sceneSummaries returns the freshest scene view available. While a reload
// holds the runtime paused the live containers are off limits, so editors
// see the last summary taken before the pause.
func (h *Hub) sceneSummaries() []sceneSummary {
	fresh, ok := h.runtime.SceneSummaries()
	if !ok {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.lastSummaries
	}
	summaries := make([]sceneSummary, 0, len(fresh))
	for _, s := range fresh {
		summaries = append(summaries, sceneSummary{
			Name:      s.Name,
			Instances: s.Instances,
			Layers:    s.Layers,
			Mutations: s.Mutations,
		})
	}
	h.mu.Lock()
	h.lastSummaries = summaries
	h.mu.Unlock()
	return summaries
}

// Diagnostics is the operational snapshot served over HTTP.
type Diagnostics struct {
	Frame       uint64         `json:"frame"`
	Paused      bool           `json:"paused"`
	ReloadState string         `json:"reloadState"`
	Clients     int            `json:"clients"`
	Scenes      []sceneSummary `json:"scenes"`
}

// Diagnostics reports the hub's current operational state.
func (h *Hub) Diagnostics() Diagnostics {
	h.mu.Lock()
	clients := len(h.subscribers)
	h.mu.Unlock()
	return Diagnostics{
		Frame:       h.runtime.Frame(),
		Paused:      h.runtime.Paused(),
		ReloadState: string(h.reloader.State()),
		Clients:     clients,
		Scenes:      h.sceneSummaries(),
	}
}

// RunSimulation steps the runtime on the configured tick until stop closes.
// Steps skipped while the reloader holds the runtime paused are simply
// dropped; the simulation continues from the post-reload state.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stepped := h.runtime.Step()
			h.broadcast(stateMessage{
				Ver:          protocolVersion,
				Type:         "state",
				Frame:        h.runtime.Frame(),
				Paused:       !stepped,
				Scenes:       h.sceneSummaries(),
				ServerTimeMS: time.Now().UnixMilli(),
			})
		}
	}
}
