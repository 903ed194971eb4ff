package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/agentlab/internal/ports"
)

const defaultBuffer = 16

// Filter narrows a subscription to events whose record has Column == Value.
// The zero Filter matches every event on the table.
type Filter struct {
	Column string
	Value  string
}

func (f Filter) matches(e ports.ChangeEvent) bool {
	if f.Column == "" {
		return true
	}
	return e.Record[f.Column] == f.Value
}

// ParseFilter reads the "column=eq.value" form used by change feed clients.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Filter{}, nil
	}
	column, rest, ok := strings.Cut(s, "=")
	if !ok || column == "" {
		return Filter{}, fmt.Errorf("invalid filter %q", s)
	}
	value, ok := strings.CutPrefix(rest, "eq.")
	if !ok {
		return Filter{}, fmt.Errorf("unsupported filter operator in %q", s)
	}
	return Filter{Column: column, Value: value}, nil
}

type Subscription struct {
	ID     uuid.UUID
	Table  string
	Filter Filter

	events chan ports.ChangeEvent
	hub    *Hub
	once   sync.Once
}

// Events delivers matching change events until the subscription is closed.
func (s *Subscription) Events() <-chan ports.ChangeEvent {
	return s.events
}

// Close unsubscribes and closes the events channel. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub fans change events out to table subscriptions.
type Hub struct {
	mu            sync.RWMutex
	logger        ports.Logger
	buffer        int
	subscriptions map[string]map[*Subscription]struct{}
}

func NewHub(logger ports.Logger) *Hub {
	return &Hub{
		logger:        logger,
		buffer:        defaultBuffer,
		subscriptions: make(map[string]map[*Subscription]struct{}),
	}
}

func (h *Hub) Subscribe(table string, filter Filter) *Subscription {
	sub := &Subscription{
		ID:     uuid.New(),
		Table:  table,
		Filter: filter,
		events: make(chan ports.ChangeEvent, h.buffer),
		hub:    h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subscriptions[table]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.subscriptions[table] = subs
	}
	subs[sub] = struct{}{}

	h.logger.Debug("change feed subscribed", "subscription", sub.ID, "table", table, "filter", filter.Column)
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscriptions[sub.Table]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscriptions, sub.Table)
		}
	}
	close(sub.events)
	h.logger.Debug("change feed unsubscribed", "subscription", sub.ID, "table", sub.Table)
}

// Publish delivers e to every matching subscriber without blocking.
// Subscribers whose buffer is full miss the event.
func (h *Hub) Publish(e ports.ChangeEvent) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscriptions[e.Table] {
		if !sub.Filter.matches(e) {
			continue
		}
		select {
		case sub.events <- e:
		default:
			h.logger.Warn("dropping change event; subscriber buffer full", "subscription", sub.ID, "table", e.Table)
		}
	}
}

// SubscriberCount reports how many subscriptions exist for table.
func (h *Hub) SubscriberCount(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[table])
}

// Stream writes sub's events to w as server-sent events until the request
// ends or the subscription closes.
func (h *Hub) Stream(w http.ResponseWriter, r *http.Request, sub *Subscription, heartbeat time.Duration) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Warn("failed to marshal change event", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", strings.ToLower(string(e.Type)), data)
			flusher.Flush()
		}
	}
}
