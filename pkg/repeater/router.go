package repeater

import "github.com/dbehnke/dmr-repeater/pkg/dmrpacket"

// Verdict is the router's decision for one (source, sink, packet) triple.
type Verdict int

const (
	Permit Verdict = iota
	Reject
)

// Router is the policy hook spec.md §6 describes: called once per (packet,
// candidate sink) pair during fan-out. Implementations may mutate packet
// (e.g. to rewrite addressing) since each sink receives an independently
// owned clone. A nil Router is treated as always-PERMIT.
type Router interface {
	Route(r *Repeater, source, sink Transport, packet *dmrpacket.Packet) Verdict
}

// RouterFunc adapts a plain function to the Router interface.
type RouterFunc func(r *Repeater, source, sink Transport, packet *dmrpacket.Packet) Verdict

func (f RouterFunc) Route(r *Repeater, source, sink Transport, packet *dmrpacket.Packet) Verdict {
	return f(r, source, sink, packet)
}

// route consults router, treating a nil Router as always-PERMIT.
func route(router Router, r *Repeater, source, sink Transport, packet *dmrpacket.Packet) Verdict {
	if router == nil {
		return Permit
	}
	return router.Route(r, source, sink, packet)
}
