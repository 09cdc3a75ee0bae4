package policy

import (
	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/repeater"
)

// Policy decides whether one candidate sink may receive packet, forwarded
// from source. Implementations must not retain packet beyond the call.
type Policy interface {
	Permit(r *repeater.Repeater, source, sink repeater.Transport, packet *dmrpacket.Packet) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(r *repeater.Repeater, source, sink repeater.Transport, packet *dmrpacket.Packet) bool

func (f PolicyFunc) Permit(r *repeater.Repeater, source, sink repeater.Transport, packet *dmrpacket.Packet) bool {
	return f(r, source, sink, packet)
}

// Chain combines policies into a repeater.Router: PERMIT only if every
// policy permits, evaluated in order, short-circuiting on the first
// rejection. An empty chain always permits.
func Chain(policies ...Policy) repeater.Router {
	return repeater.RouterFunc(func(r *repeater.Repeater, source, sink repeater.Transport, packet *dmrpacket.Packet) repeater.Verdict {
		for _, p := range policies {
			if !p.Permit(r, source, sink, packet) {
				return repeater.Reject
			}
		}
		return repeater.Permit
	})
}
