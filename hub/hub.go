// Package hub fans portfolio snapshots and tape prints out to live viewers.
//
// Each viewer gets a buffered event channel and a private goroutine that
// delivers a full snapshot every second. Tape prints and post-fill snapshots
// are broadcast to everyone immediately. Publishing never blocks: a viewer
// that stops draining loses events, not the publisher.
package hub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/papertrade/sim"
)

// SnapshotInterval is the cadence of per-viewer snapshot pushes.
const SnapshotInterval = time.Second

// subscription channel depth. Large enough to ride out a slow flush without
// dropping, small enough that an abandoned viewer costs little.
const subBuffer = 64

type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventTrade    EventType = "trade"
)

// Event is the wire unit viewers receive, for both SSE and websocket.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// SnapshotSource produces a fresh snapshot for the periodic push.
type SnapshotSource func() sim.Snapshot

// Subscription is one live viewer. Read events from C; the channel is never
// closed, stop reading once Unsubscribe has been called.
type Subscription struct {
	C <-chan Event

	ch     chan Event
	cancel context.CancelFunc
}

type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}

	snapshot SnapshotSource
	logger   *zap.Logger
}

func New(snapshot SnapshotSource, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:     make(map[*Subscription]struct{}),
		snapshot: snapshot,
		logger:   logger,
	}
}

// Subscribe registers a new viewer. The viewer receives one snapshot
// immediately, then one per SnapshotInterval, plus every broadcast event in
// between. Pair with Unsubscribe on disconnect, or the ticker leaks.
func (h *Hub) Subscribe() *Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &Subscription{
		ch:     make(chan Event, subBuffer),
		cancel: cancel,
	}
	sub.C = sub.ch

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	viewers := len(h.subs)
	h.mu.Unlock()

	go h.pump(ctx, sub)

	h.logger.Debug("viewer subscribed", zap.Int("viewers", viewers))
	return sub
}

// Unsubscribe removes a viewer and stops its snapshot ticker. Safe to call
// more than once and safe to call while a broadcast is in flight.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	_, live := h.subs[sub]
	delete(h.subs, sub)
	viewers := len(h.subs)
	h.mu.Unlock()

	if !live {
		return
	}
	sub.cancel()
	h.logger.Debug("viewer unsubscribed", zap.Int("viewers", viewers))
}

// Viewers returns the number of live subscriptions.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// BroadcastTrade pushes a tape print to every viewer. Wired to the tape's
// insert callback, so real fills and ambient prints both arrive here.
func (h *Hub) BroadcastTrade(t sim.Trade) {
	h.broadcast(Event{Type: EventTrade, Data: t})
}

// OnSnapshot pushes a post-fill snapshot to every viewer, out of band with
// the periodic tick. Satisfies the engine's snapshot listener.
func (h *Hub) OnSnapshot(s sim.Snapshot) {
	h.broadcast(Event{Type: EventSnapshot, Data: s})
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		push(s, ev)
	}
}

// pump drives one viewer's periodic snapshots. It calls the snapshot source
// without holding the registry lock, so slow snapshots never stall
// connect/disconnect handling.
func (h *Hub) pump(ctx context.Context, sub *Subscription) {
	push(sub, Event{Type: EventSnapshot, Data: h.snapshot()})

	ticker := time.NewTicker(SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			push(sub, Event{Type: EventSnapshot, Data: h.snapshot()})
		}
	}
}

// push delivers without blocking; a full buffer drops the event.
func push(sub *Subscription, ev Event) {
	select {
	case sub.ch <- ev:
	default:
	}
}
