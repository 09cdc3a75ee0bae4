// Package testhelpers provides in-memory test doubles and integration
// scaffolding for exercising pkg/repeater without any real network or
// radio hardware attached.
package testhelpers

import (
	"sync"

	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/repeater"
)

// LoopbackTransport is an in-memory repeater.Transport double. Inject
// simulates a packet arriving on this transport's "wire"; Transmit (called
// by the repeater's dispatch loop) records the packet instead of sending it
// anywhere, so a test can assert on what a given sink received.
type LoopbackTransport struct {
	name string

	mu   sync.Mutex
	cb   repeater.RxCallback
	sent []*dmrpacket.Packet
}

// NewLoopbackTransport returns a named LoopbackTransport.
func NewLoopbackTransport(name string) *LoopbackTransport {
	return &LoopbackTransport{name: name}
}

// Name implements repeater.Transport.
func (l *LoopbackTransport) Name() string { return l.name }

// Type implements repeater.Transport.
func (l *LoopbackTransport) Type() string { return "loopback" }

// RegisterRxCallback implements repeater.Transport.
func (l *LoopbackTransport) RegisterRxCallback(cb repeater.RxCallback) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cb != nil {
		return false
	}
	l.cb = cb
	return true
}

// Transmit implements repeater.Transport, recording packet for later
// inspection via Sent/SentCount instead of emitting it anywhere.
func (l *LoopbackTransport) Transmit(packet *dmrpacket.Packet) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, packet.Clone())
	return nil
}

// Inject simulates packet arriving on this transport's wire, delivering it
// to the repeater's registered callback as though from a real peer.
func (l *LoopbackTransport) Inject(packet *dmrpacket.Packet) {
	l.mu.Lock()
	cb := l.cb
	l.mu.Unlock()
	if cb != nil {
		cb(l, packet)
	}
}

// Sent returns a snapshot of every packet this transport has transmitted,
// in order.
func (l *LoopbackTransport) Sent() []*dmrpacket.Packet {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*dmrpacket.Packet, len(l.sent))
	copy(out, l.sent)
	return out
}

// SentCount returns the number of packets transmitted so far.
func (l *LoopbackTransport) SentCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}
