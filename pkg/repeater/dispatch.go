package repeater

import (
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/fec"
	"github.com/dbehnke/dmr-repeater/pkg/framing"
	"github.com/dbehnke/dmr-repeater/pkg/ingress"
	"github.com/dbehnke/dmr-repeater/pkg/logger"
	"github.com/dbehnke/dmr-repeater/pkg/timeslot"
)

// dispatchLoop is the relay goroutine: per iteration it sweeps for
// expired voice calls, drains one ingress item, and fans it out to every
// attached transport other than its source, per spec.md §4.5. It runs
// while Active() is true; stopping does not drain the remaining queue,
// matching spec.md §4.5's "loop termination" note.
func (r *Repeater) dispatchLoop(stopCh chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	for r.Active() {
		r.expirySweep()

		item, ok := r.queue.Shift()
		if !ok {
			time.Sleep(r.idleSleep())
			continue
		}
		r.fanOut(item)
	}
}

// expirySweep checks both timeslots for a voice call whose last frame is
// older than the expiry threshold and, if so, synthesizes a
// TERMINATOR_WITH_LC for every attached transport. The synthetic
// terminator carries the timeslot's last-known source/destination ids
// rather than zeros — a documented deviation from the reference
// implementation, see DESIGN.md.
func (r *Repeater) expirySweep() {
	for _, ts := range [2]dmrpacket.Timeslot{dmrpacket.TS1, dmrpacket.TS2} {
		state := r.table.Get(ts)
		if !state.ExpiredSince(r.expiryThreshold()) {
			continue
		}

		synthetic := &dmrpacket.Packet{
			Timeslot:  ts,
			DataType:  dmrpacket.TerminatorWithLC,
			ColorCode: r.colorCode,
			FLCO:      dmrpacket.FLCOGroup,
			SrcID:     state.LastSrcID,
			DstID:     state.LastDstID,
		}

		for _, s := range r.snapshotSlots() {
			r.dispatchToSink(s.transport, synthetic.Clone())
		}
	}
}

// fanOut delivers one drained ingress item to every attached transport
// other than its source, subject to the router's verdict per candidate
// sink.
func (r *Repeater) fanOut(item ingress.Item) {
	source, _ := item.Source.(Transport)

	for _, s := range r.snapshotSlots() {
		if s.transport == source {
			continue
		}

		clone := item.Packet.Clone()
		if route(r.router, r, source, s.transport, clone) == Reject {
			continue
		}
		r.dispatchToSink(s.transport, clone)
	}
}

// dispatchToSink applies the per-data-type timeslot bookkeeping from
// spec.md §4.5 step 3, then fixHeaders, then transmits to sink.
func (r *Repeater) dispatchToSink(sink Transport, packet *dmrpacket.Packet) {
	state := r.table.Get(packet.Timeslot)
	now := r.clock.Now()

	switch packet.DataType {
	case dmrpacket.Voice, dmrpacket.VoiceSync:
		state.LastVoiceFrameReceived = now
		if !state.VoiceCallActive() {
			state.VoiceCallStart(packet, nil)
			r.notifyCallStarted(packet.Timeslot, state.StreamID, packet.SrcID, packet.DstID)
			r.synthesizeLateEntryHeaders(sink, packet, state)
		}
		packet.StreamID = state.StreamID
		packet.Meta.VoiceFrame = state.VoiceFrame
		state.VoiceFrame = (state.VoiceFrame + 1) % dmrpacket.VoiceFrameCount

	case dmrpacket.VoiceLC:
		state.LastVoiceFrameReceived = now
		wasActive := state.VoiceCallActive()
		lc := &framing.FullLC{FLCO: packet.FLCO, SrcID: packet.SrcID, DstID: packet.DstID}
		state.VoiceCallStart(packet, lc)
		if !wasActive {
			r.notifyCallStarted(packet.Timeslot, state.StreamID, packet.SrcID, packet.DstID)
		}
		packet.StreamID = state.StreamID

	case dmrpacket.TerminatorWithLC:
		state.LastVoiceFrameReceived = now
		streamID := state.StreamID
		wasActive := state.VoiceCallActive()
		state.VoiceCallEnd(packet)
		if wasActive {
			r.notifyCallEnded(packet.Timeslot, streamID)
		}
		packet.StreamID = streamID
	}

	if err := r.fixHeaders(packet); err != nil {
		if r.log != nil {
			r.log.Warn("framing codec rejected packet, dropping for this sink",
				logger.String("sink", sink.Name()),
				logger.Timeslot(packet.Timeslot),
				logger.DataType(packet.DataType),
				logger.StreamID(packet.StreamID),
				logger.Error(err))
		}
		return
	}

	if err := sink.Transmit(packet); err != nil && r.log != nil {
		r.log.Warn("transmit failed",
			logger.String("sink", sink.Name()),
			logger.StreamID(packet.StreamID),
			logger.Error(err))
	}
}

// synthesizeLateEntryHeaders fabricates four consecutive VOICE_LC headers
// from packet's current addressing fields when voice payload arrives
// without a preceding header, per spec.md §4.5's late-entry rationale.
func (r *Repeater) synthesizeLateEntryHeaders(sink Transport, packet *dmrpacket.Packet, state *timeslot.State) {
	for i := 0; i < 4; i++ {
		header := packet.Clone()
		header.DataType = dmrpacket.VoiceLC

		if err := r.fixHeaders(header); err != nil {
			if r.log != nil {
				r.log.Warn("late-entry header encode failed",
					logger.String("sink", sink.Name()), logger.Error(err))
			}
			continue
		}
		if err := sink.Transmit(header); err != nil && r.log != nil {
			r.log.Warn("late-entry header transmit failed",
				logger.String("sink", sink.Name()), logger.Error(err))
		}
	}
}

// fixHeaders is the outbound rewrite spec.md §4.6 describes: it always
// stamps the repeater's color code, then regenerates framing specific to
// the packet's data type.
func (r *Repeater) fixHeaders(packet *dmrpacket.Packet) error {
	packet.ColorCode = r.colorCode
	state := r.table.Get(packet.Timeslot)

	switch packet.DataType {
	case dmrpacket.VoiceLC:
		lc := framing.FullLC{FLCO: packet.FLCO, SrcID: packet.SrcID, DstID: packet.DstID}
		if err := framing.EncodeFullLC(packet, lc); err != nil {
			return wrapError(ErrCodec, "full lc encode", err)
		}
		if err := framing.EncodeSyncPattern(packet, framing.MSSourcedData); err != nil {
			return wrapError(ErrCodec, "sync pattern encode", err)
		}
		if err := framing.EncodeSlotType(packet); err != nil {
			return wrapError(ErrCodec, "slot type encode", err)
		}
		return nil

	case dmrpacket.TerminatorWithLC:
		if err := framing.EncodeSyncPattern(packet, framing.MSSourcedData); err != nil {
			return wrapError(ErrCodec, "sync pattern encode", err)
		}
		// Ends the sink-side call as a terminal side effect of
		// forwarding the terminator. Since timeslot state is per-
		// timeslot rather than per-sink, this affects every sink's
		// view of the call, not just the one being forwarded to here
		// — preserved verbatim per spec.md §9 note 3.
		state.VoiceCallEnd(packet)
		return nil

	case dmrpacket.Voice, dmrpacket.VoiceSync:
		return r.fixVoiceHeaders(packet, state)

	default:
		return nil
	}
}

func (r *Repeater) fixVoiceHeaders(packet *dmrpacket.Packet, state *timeslot.State) error {
	letter := packet.SuperframeLetter()

	if letter == 'A' {
		if err := framing.EncodeSyncPattern(packet, framing.MSSourcedVoice); err != nil {
			return wrapError(ErrCodec, "sync pattern encode", err)
		}
		return nil
	}

	hasLC := state.VBPTCEmbLC != nil
	var rec fec.BPTCRecord
	if hasLC {
		rec = *state.VBPTCEmbLC
	}

	var lcss framing.LCSS
	var fragment int
	switch letter {
	case 'B':
		lcss, fragment = framing.LCSSFirstFragment, 0
	case 'C':
		lcss, fragment = framing.LCSSContinuation, 1
	case 'D':
		lcss, fragment = framing.LCSSContinuation, 2
	case 'E':
		lcss, fragment = framing.LCSSLastFragment, 3
	default: // 'F': spec.md §4.6 leaves LCSS unspecified in frame F; a
		// null EMB header with no fragment is written.
		hasLC = false
		lcss, fragment = framing.LCSSContinuation, 0
	}

	header := framing.EMBHeader{ColorCode: r.colorCode, LCSS: lcss}
	if err := framing.EncodeEmbeddedLCFragment(packet, rec, hasLC, fragment, header); err != nil {
		return wrapError(ErrCodec, "embedded lc fragment encode", err)
	}
	return nil
}
