// Package udptransport is a concrete repeater.Transport that relays
// dmrpacket.Packet values between two repeater instances over UDP. It is
// the repository's example "external collaborator" transport — spec.md
// §6 treats the wire protocol as out of scope, so this package picks the
// simplest framing that lets two processes on a network exercise the
// repeater core end-to-end: one gob-encoded packet per UDP datagram. A
// real deployment bridging an actual RF modem or DMR-over-IP peer would
// implement repeater.Transport against that protocol's own framing
// instead.
package udptransport

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"net"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/logger"
	"github.com/dbehnke/dmr-repeater/pkg/repeater"
)

// readDeadline bounds each blocking read so the receive loop can notice
// context cancellation without an explicit wakeup channel.
const readDeadline = 100 * time.Millisecond

// Transport implements repeater.Transport over a UDP socket. One Transport
// value relays to a single fixed peer address; bridging more than two
// endpoints means attaching one Transport per remote peer to the same
// Repeater.
type Transport struct {
	name string
	conn *net.UDPConn
	peer *net.UDPAddr
	log  *logger.Logger

	cb repeater.RxCallback
}

// New binds localAddr and targets peerAddr. name is the transport's
// identity for logging and policy decisions.
func New(name, localAddr, peerAddr string, log *logger.Logger) (*Transport, error) {
	local, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve local addr: %w", err)
	}
	peer, err := net.ResolveUDPAddr("udp", peerAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve peer addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}
	if log != nil {
		log = log.WithComponent("udptransport." + name)
	}
	return &Transport{name: name, conn: conn, peer: peer, log: log}, nil
}

// Name implements repeater.Transport.
func (t *Transport) Name() string { return t.name }

// Type implements repeater.Transport.
func (t *Transport) Type() string { return "udp" }

// RegisterRxCallback implements repeater.Transport.
func (t *Transport) RegisterRxCallback(cb repeater.RxCallback) bool {
	if t.cb != nil {
		return false
	}
	t.cb = cb
	return true
}

// Transmit implements repeater.Transport, sending packet to the configured
// peer address.
func (t *Transport) Transmit(packet *dmrpacket.Packet) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(packet); err != nil {
		return fmt.Errorf("encode packet: %w", err)
	}
	if _, err := t.conn.WriteToUDP(buf.Bytes(), t.peer); err != nil {
		return fmt.Errorf("write udp: %w", err)
	}
	return nil
}

// Run drives the receive loop until ctx is cancelled. It must be started
// for this Transport to deliver anything to the repeater's registered
// callback. UDP preserves datagram boundaries, so each successful read is
// exactly one gob-encoded packet — no reassembly needed.
func (t *Transport) Run(ctx context.Context) error {
	buf := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_ = t.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if t.log != nil {
				t.log.Error("udp read failed", logger.Error(err))
			}
			continue
		}

		var packet dmrpacket.Packet
		if err := gob.NewDecoder(bytes.NewReader(buf[:n])).Decode(&packet); err != nil {
			if t.log != nil {
				t.log.Error("decode packet failed", logger.Error(err))
			}
			continue
		}
		if t.cb != nil {
			t.cb(t, &packet)
		}
	}
}

// Close releases the underlying socket.
func (t *Transport) Close() error {
	return t.conn.Close()
}
