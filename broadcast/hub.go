package broadcast

import (
	"context"
	"sync"

	"github.com/apex/log"
)

// sendBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind is treated as disconnected and evicted.
const sendBuffer = 16

// SnapshotSource produces one marshaled leaderboard snapshot
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]byte, error)
}

type subscriber struct {
	id   uint64
	send chan []byte
}

// Hub owns the set of live-update subscribers and fans fresh snapshots
// out to them. The subscriber map is only ever touched through
// Subscribe, Unsubscribe and Broadcast, all guarded by one mutex.
type Hub struct {
	source SnapshotSource

	mutex        sync.Mutex
	subscribers  map[uint64]*subscriber
	nextID       uint64
	broadcastSeq int
}

func NewHub(source SnapshotSource) *Hub {
	return &Hub{
		source:      source,
		subscribers: make(map[uint64]*subscriber),
	}
}

// Subscribe registers a new live channel. The current snapshot is
// delivered as the channel's first message, before any broadcast frame.
// If the initial snapshot cannot be computed no channel is opened.
// The snapshot is computed and the subscriber registered under the same
// lock so no broadcast can land between the two and go missing.
func (h *Hub) Subscribe(ctx context.Context) (uint64, <-chan []byte, error) {
	h.mutex.Lock()
	snapshot, err := h.source.Snapshot(ctx)
	if err != nil {
		h.mutex.Unlock()
		log.Errorf("Failed to compute initial snapshot: %v", err)
		return 0, nil, err
	}

	sub := &subscriber{send: make(chan []byte, sendBuffer)}
	sub.send <- snapshot

	h.nextID++
	sub.id = h.nextID
	h.subscribers[sub.id] = sub
	count := len(h.subscribers)
	h.mutex.Unlock()

	log.Infof("Subscriber %d connected. Total subscribers: %d", sub.id, count)
	return sub.id, sub.send, nil
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call
// multiple times or with an unknown id.
func (h *Hub) Unsubscribe(id uint64) {
	h.mutex.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
		close(sub.send)
	}
	count := len(h.subscribers)
	h.mutex.Unlock()

	if ok {
		log.Infof("Subscriber %d disconnected. Total subscribers: %d", id, count)
	}
}

// Broadcast recomputes one snapshot and pushes the identical payload to
// every subscriber. A subscriber whose channel is full gets evicted;
// that never blocks delivery to the others.
func (h *Hub) Broadcast(ctx context.Context) error {
	snapshot, err := h.source.Snapshot(ctx)
	if err != nil {
		log.Errorf("Broadcast skipped, snapshot failed: %v", err)
		return err
	}

	h.mutex.Lock()
	for id, sub := range h.subscribers {
		select {
		case sub.send <- snapshot:
		default:
			delete(h.subscribers, id)
			close(sub.send)
			log.Warnf("Subscriber %d not keeping up, dropped", id)
		}
	}
	h.broadcastSeq++
	count := len(h.subscribers)
	seq := h.broadcastSeq
	h.mutex.Unlock()

	log.Infof("Broadcast %d delivered to %d subscribers", seq, count)
	return nil
}

// Stats returns the subscriber count and the last broadcast sequence
func (h *Hub) Stats() (int, int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.subscribers), h.broadcastSeq
}
