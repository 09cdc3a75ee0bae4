package repeater

import (
	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/logger"
)

// onReceive is installed as every attached transport's rx callback. It
// always enqueues, regardless of whether the dispatch goroutine is
// currently running: before Start, items simply accumulate (up to
// ingress.Capacity) until Start is called, which doubles as the "pause the
// dispatch thread" test hook spec.md §8 scenario 6 describes; after Stop,
// items accumulate harmlessly and are discarded when the repeater is
// garbage collected, satisfying spec.md §9's requirement that ingress
// remain safe to invoke across the shutdown boundary without adding a
// second gate alongside the bounded queue's own overflow policy.
func (r *Repeater) onReceive(source Transport, packet *dmrpacket.Packet) {
	if err := r.queue.Enqueue(source, packet); err != nil {
		if r.log != nil {
			r.log.Warn("ingress queue full, dropping packet",
				logger.String("source", source.Name()),
				logger.Timeslot(packet.Timeslot),
				logger.DataType(packet.DataType))
		}
	}
}
