package policy

import (
	"sync"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/repeater"
)

// streamInfo tracks which sinks have already received a given stream.
type streamInfo struct {
	sinks     map[string]bool
	startTime time.Time
}

// StreamDeduplicator is a Policy that forwards each (stream ID, sink) pair
// at most once, so a fan-out loop that bounces a stream back through a
// second source does not double-forward it. A TERMINATOR_WITH_LC clears
// the stream's tracking entry after the decision is made, so a later
// stream reusing the same ID starts fresh.
type StreamDeduplicator struct {
	mu      sync.Mutex
	streams map[uint32]*streamInfo
}

// NewStreamDeduplicator creates an empty deduplicator.
func NewStreamDeduplicator() *StreamDeduplicator {
	return &StreamDeduplicator{streams: make(map[uint32]*streamInfo)}
}

// Permit implements Policy: it records sink against packet's stream ID and
// returns false if sink has already seen this stream.
func (d *StreamDeduplicator) Permit(_ *repeater.Repeater, _, sink repeater.Transport, packet *dmrpacket.Packet) bool {
	streamID := packet.StreamID

	d.mu.Lock()
	defer d.mu.Unlock()

	if packet.DataType == dmrpacket.TerminatorWithLC {
		defer delete(d.streams, streamID)
	}

	info, exists := d.streams[streamID]
	if !exists {
		info = &streamInfo{sinks: make(map[string]bool), startTime: time.Now()}
		d.streams[streamID] = info
	}

	name := sink.Name()
	if info.sinks[name] {
		return false
	}
	info.sinks[name] = true
	return true
}

// IsActive reports whether streamID currently has a tracking entry.
func (d *StreamDeduplicator) IsActive(streamID uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.streams[streamID]
	return ok
}

// CleanupOldStreams removes tracking entries older than maxAge.
func (d *StreamDeduplicator) CleanupOldStreams(maxAge time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	for id, info := range d.streams {
		if now.Sub(info.startTime) > maxAge {
			delete(d.streams, id)
		}
	}
}
