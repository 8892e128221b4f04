package api

import (
	"sync"

	"github.com/talgya/surf-world/internal/engine"
	"github.com/talgya/surf-world/internal/env"
)

// subscriberBuffer is how many snapshots a slow stream client may lag
// before frames are dropped for it.
const subscriberBuffer = 16

// Hub holds the latest published snapshot and fans it out to stream
// subscribers. The runner publishes; HTTP goroutines only read.
type Hub struct {
	mu       sync.RWMutex
	latest   *env.Snapshot
	last     *env.Summary
	episodes uint64
	steps    uint64
	dropped  uint64

	subs   map[uint64]chan env.Snapshot
	nextID uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan env.Snapshot)}
}

// Publish stores snap as the latest state and offers it to every subscriber.
// Subscribers that are full miss the frame rather than stall the runner.
func (h *Hub) Publish(snap env.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = &snap
	h.steps++
	for _, ch := range h.subs {
		select {
		case ch <- snap:
		default:
			h.dropped++
		}
	}
}

// EpisodeDone records a finished episode.
func (h *Hub) EpisodeDone(sum env.Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &sum
	h.episodes++
}

// Attach publishes every step and finished episode of eng into the hub,
// keeping any callbacks already set. Call before eng.Run.
func (h *Hub) Attach(eng *engine.Engine) {
	onStep, onEpisode := eng.OnStep, eng.OnEpisode
	eng.OnStep = func(res env.StepResult) {
		h.Publish(eng.Env.Snapshot(res.Reward))
		if onStep != nil {
			onStep(res)
		}
	}
	eng.OnEpisode = func(sum env.Summary, events []env.Event) {
		h.EpisodeDone(sum)
		if onEpisode != nil {
			onEpisode(sum, events)
		}
	}
}

// Latest returns the most recent snapshot, if any has been published.
func (h *Hub) Latest() (env.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return env.Snapshot{}, false
	}
	return *h.latest, true
}

// Subscribe registers a stream listener.
func (h *Hub) Subscribe() (uint64, <-chan env.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan env.Snapshot, subscriberBuffer)
	h.subs[h.nextID] = ch
	return h.nextID, ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// HubStats is a point-in-time view of hub counters.
type HubStats struct {
	Episodes    uint64       `json:"episodes"`
	Steps       uint64       `json:"steps"`
	Subscribers int          `json:"subscribers"`
	Dropped     uint64       `json:"dropped_frames"`
	LastEpisode *env.Summary `json:"last_episode,omitempty"`
}

// Stats returns the hub counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st := HubStats{
		Episodes:    h.episodes,
		Steps:       h.steps,
		Subscribers: len(h.subs),
		Dropped:     h.dropped,
	}
	if h.last != nil {
		sum := *h.last
		st.LastEpisode = &sum
	}
	return st
}
