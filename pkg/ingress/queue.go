// Package ingress implements the bounded, multi-producer/single-consumer
// FIFO queue the repeater's attached transports feed packets into. Every
// enqueue deep-copies the packet so the producer's own copy is never
// shared with the dispatch goroutine, per spec.md §4.2. Unlike the source
// this is ported from — which left the queue's lock commented out — every
// operation here is guarded by a mutex, closing the unsynchronized-enqueue
// bug spec.md §9 directs implementers to fix.
package ingress

import (
	"errors"
	"sync"

	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
)

// Capacity is the fixed queue size, matching the reference implementation's
// DMR_REPEATER_QUEUE_SIZE constant.
const Capacity = 32

// ErrQueueFull is returned by Enqueue when the queue is already at
// Capacity.
var ErrQueueFull = errors.New("ingress: queue full")

// Source identifies the transport handle a queued item arrived from, so
// the dispatch loop can exclude it from fan-out.
type Source interface{}

// Item is one FIFO entry: the source transport handle and an owned packet
// copy.
type Item struct {
	Source Source
	Packet *dmrpacket.Packet
}

// Queue is a bounded FIFO safe for concurrent Enqueue calls from multiple
// producer goroutines and a single consumer calling Shift.
type Queue struct {
	mu    sync.Mutex
	items []Item
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{items: make([]Item, 0, Capacity)}
}

// Enqueue deep-copies packet and appends (source, copy) to the tail of the
// queue. It returns ErrQueueFull without mutating the queue if it is
// already at Capacity; the caller's packet is never touched.
func (q *Queue) Enqueue(source Source, packet *dmrpacket.Packet) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= Capacity {
		return ErrQueueFull
	}
	q.items = append(q.items, Item{Source: source, Packet: packet.Clone()})
	return nil
}

// Shift removes and returns the head item. ok is false if the queue is
// empty.
func (q *Queue) Shift() (item Item, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Item{}, false
	}
	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of items currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
