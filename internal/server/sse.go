package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// sseRingBufferSize is the number of recent gate events kept for
	// Last-Event-ID replay.
	sseRingBufferSize = 256

	// sseKeepaliveInterval is how often keepalive comments are sent.
	sseKeepaliveInterval = 15 * time.Second

	sseClientBuffer = 64
)

type sseEvent struct {
	ID     uint64 // monotonically increasing sequence number
	Topic  string
	Sender string // sender the event concerns, for ?sender= filtering
	Data   []byte // JSON-encoded payload
}

// sseHub fans gate and session events out to connected SSE clients.
type sseHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
	nextID  atomic.Uint64

	ringMu  sync.RWMutex
	ring    [sseRingBufferSize]sseEvent
	ringPos int // next write position
	ringLen int // valid entries, up to sseRingBufferSize
}

type sseClient struct {
	topics []string // topic patterns, empty matches all
	sender string   // empty matches all senders
	ch     chan *sseEvent
}

func newSSEHub() *sseHub {
	return &sseHub{
		clients: make(map[*sseClient]struct{}),
	}
}

func (h *sseHub) broadcast(topic, sender string, payload []byte) {
	evt := &sseEvent{
		ID:     h.nextID.Add(1),
		Topic:  topic,
		Sender: sender,
		Data:   payload,
	}

	h.ringMu.Lock()
	h.ring[h.ringPos] = *evt
	h.ringPos = (h.ringPos + 1) % sseRingBufferSize
	if h.ringLen < sseRingBufferSize {
		h.ringLen++
	}
	h.ringMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.matches(evt) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
			// Slow client, drop.
		}
	}
}

func (h *sseHub) subscribe(topics []string, sender string) *sseClient {
	c := &sseClient{
		topics: topics,
		sender: sender,
		ch:     make(chan *sseEvent, sseClientBuffer),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *sseHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// eventsSince returns buffered events with ID > lastID, oldest first.
func (h *sseHub) eventsSince(lastID uint64) []*sseEvent {
	h.ringMu.RLock()
	defer h.ringMu.RUnlock()

	var result []*sseEvent
	start := h.ringPos - h.ringLen
	if start < 0 {
		start += sseRingBufferSize
	}
	for i := range h.ringLen {
		evt := h.ring[(start+i)%sseRingBufferSize]
		if evt.ID > lastID {
			result = append(result, &evt)
		}
	}
	return result
}

func (c *sseClient) matches(evt *sseEvent) bool {
	if c.sender != "" && evt.Sender != c.sender {
		return false
	}
	return c.matchesTopic(evt.Topic)
}

func (c *sseClient) matchesTopic(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, pattern := range c.topics {
		if matchTopicPattern(pattern, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic NATS-style: "*" matches a
// single segment and a trailing ">" matches one or more segments.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}

	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")

	for i, pp := range patParts {
		if pp == ">" {
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}
	return len(patParts) == len(topParts)
}

// handleEventStream handles GET /v1/events/stream.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream disabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var topics []string
	if q := r.URL.Query().Get("topics"); q != "" {
		for _, t := range strings.Split(q, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
	}

	sender := strings.TrimSpace(r.URL.Query().Get("sender"))

	hub := s.events.hub
	client := hub.subscribe(topics, sender)
	defer hub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// A fresh client starts from the open requests; a reconnecting one
	// replays what it missed instead.
	lastIDStr := r.Header.Get("Last-Event-ID")
	if lastIDStr == "" {
		s.writeSnapshot(w, sender)
	}
	flusher.Flush()

	if lastIDStr != "" {
		if lastID, err := strconv.ParseUint(lastIDStr, 10, 64); err == nil {
			for _, evt := range hub.eventsSince(lastID) {
				if client.matches(evt) {
					writeSSEEvent(w, evt)
				}
			}
			flusher.Flush()
		}
	}

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-client.ch:
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

// snapshotTopic names the unnumbered first event of a fresh stream.
const snapshotTopic = "snapshot"

func (s *Server) writeSnapshot(w http.ResponseWriter, sender string) {
	pending := s.gate.Pending()
	if sender != "" {
		kept := pending[:0]
		for _, p := range pending {
			if p.SenderID == sender {
				kept = append(kept, p)
			}
		}
		pending = kept
	}
	data, err := json.Marshal(map[string]any{"pending": pending})
	if err != nil {
		s.logger.Warn("encoding stream snapshot failed", "err", err)
		return
	}
	fmt.Fprintf(w, "event:%s\ndata:%s\n\n", snapshotTopic, data)
}

func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\n", evt.ID)
	fmt.Fprintf(w, "event:%s\n", evt.Topic)
	fmt.Fprintf(w, "data:%s\n\n", evt.Data)
}
