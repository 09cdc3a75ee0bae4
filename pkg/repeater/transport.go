package repeater

import "github.com/dbehnke/dmr-repeater/pkg/dmrpacket"

// RxCallback is the function a transport invokes for every packet it
// receives, supplied by the repeater when it registers itself via
// Transport.RegisterRxCallback.
type RxCallback func(source Transport, packet *dmrpacket.Packet)

// Transport is the capability set spec.md §6 requires of every attached
// protocol: a stable identity, the ability to accept exactly one repeater
// ingress callback, and an outbound transmit entry. Concrete transports
// (a local modem driver, a remote tunneling peer) are out of scope for this
// module and are supplied by the caller; internal/testhelpers provides a
// loopback implementation for tests.
type Transport interface {
	// Name returns a stable identity string for logging and routing.
	Name() string
	// Type returns a short tag identifying the transport's kind.
	Type() string
	// RegisterRxCallback installs cb as the transport's single repeater
	// ingress callback. It returns false if a callback is already
	// registered.
	RegisterRxCallback(cb RxCallback) bool
	// Transmit emits packet on the wire. It must not mutate the caller's
	// packet.
	Transmit(packet *dmrpacket.Packet) error
}

// slot is the repeater's record of one attached transport: the transport
// itself plus opaque caller-supplied userdata, per spec.md §9's "slot table
// of (name + sink callback + opaque userdata)" model.
type slot struct {
	transport Transport
	userdata  interface{}
}
