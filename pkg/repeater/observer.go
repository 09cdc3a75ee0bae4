package repeater

import "github.com/dbehnke/dmr-repeater/pkg/dmrpacket"

// Observer is a passive event hook the dispatch loop notifies synchronously,
// from the dispatch goroutine only, immediately after a voice call starts
// or ends on a timeslot. pkg/callhistory and pkg/monitor implement this
// interface without the repeater package importing either of them back —
// accept-an-interface, not a concrete dependency. A slow Observer directly
// slows dispatch since there is no buffering between the call-state
// transition and the notification; see SPEC_FULL.md §5.
type Observer interface {
	VoiceCallStarted(ts dmrpacket.Timeslot, streamID uint32, srcID, dstID uint32)
	VoiceCallEnded(ts dmrpacket.Timeslot, streamID uint32)
}

func (r *Repeater) notifyCallStarted(ts dmrpacket.Timeslot, streamID, srcID, dstID uint32) {
	r.obsMu.Lock()
	observers := r.observers
	r.obsMu.Unlock()
	for _, o := range observers {
		o.VoiceCallStarted(ts, streamID, srcID, dstID)
	}
}

func (r *Repeater) notifyCallEnded(ts dmrpacket.Timeslot, streamID uint32) {
	r.obsMu.Lock()
	observers := r.observers
	r.obsMu.Unlock()
	for _, o := range observers {
		o.VoiceCallEnded(ts, streamID)
	}
}

// AddObserver registers o to receive call-lifecycle notifications. It may
// be called at any time, including while the repeater is running.
func (r *Repeater) AddObserver(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}
