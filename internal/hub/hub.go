package hub

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/towerscan/internal/model"
)

const subscriberBuffer = 16

// Hub receives finished reports and broadcasts them to all subscribers.
type Hub struct {
	input       <-chan model.Report
	log         logrus.FieldLogger
	mu          sync.RWMutex
	subscribers []chan model.Report
	dropped     int64
}

// New creates a Hub that reads reports from the input channel.
func New(input <-chan model.Report, log logrus.FieldLogger) *Hub {
	return &Hub{
		input: input,
		log:   log.WithField("component", "hub"),
	}
}

// Subscribe returns a buffered channel that will receive every report.
func (h *Hub) Subscribe() <-chan model.Report {
	ch := make(chan model.Report, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (h *Hub) Unsubscribe(sub <-chan model.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, ch := range h.subscribers {
		if ch == sub {
			close(ch)
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Dropped returns the total number of reports dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Start begins reading from the input channel and broadcasting.
// Blocks until the context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-h.input:
			if !ok {
				return
			}
			h.broadcast(r)
		}
	}
}

// broadcast sends a report to all subscribers.
// If a subscriber's channel is full, the report is dropped for that subscriber.
func (h *Hub) broadcast(r model.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- r:
		default:
			h.dropped++
			h.log.WithFields(logrus.Fields{
				"run_id":        r.RunID,
				"total_dropped": h.dropped,
			}).Warn("dropped report for slow consumer")
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
