package dispatch

import (
	"container/heap"
	"sync"

	"github.com/emberops/firefleet/pkg/models"
)

// EventQueue is a thread-safe priority queue of fire events. Higher severity
// weight dequeues first; ties break by ascending time string, then by a
// monotonically increasing sequence number so equal events cannot starve
// each other.
type EventQueue struct {
	mu   sync.Mutex
	heap eventHeap
	seq  uint64
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Push enqueues an event.
func (q *EventQueue) Push(ev *models.FireEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	heap.Push(&q.heap, &queuedEvent{event: ev, seq: q.seq})
}

// Poll dequeues the highest-priority event, or nil when the queue is empty.
func (q *EventQueue) Poll() *models.FireEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.heap.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.heap).(*queuedEvent).event
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// PurgeZone removes every queued event for the given zone and returns how
// many were removed.
func (q *EventQueue) PurgeZone(zoneID int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.heap[:0]
	removed := 0
	for _, item := range q.heap {
		if item.event.ZoneID == zoneID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	q.heap = kept
	heap.Init(&q.heap)
	return removed
}

type queuedEvent struct {
	event *models.FireEvent
	seq   uint64
}

type eventHeap []*queuedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	wi, wj := h[i].event.Severity.Weight(), h[j].event.Severity.Weight()
	if wi != wj {
		return wi > wj
	}
	if h[i].event.Time != h[j].event.Time {
		return h[i].event.Time < h[j].event.Time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*queuedEvent))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
