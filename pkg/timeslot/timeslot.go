// Package timeslot tracks per-timeslot voice-call state: the active flag,
// the voice-frame superframe counter, last-frame timestamps, and the
// encoded embedded-LC record for the call in progress. Exactly one
// dispatch goroutine mutates a State's non-flag fields; the active flag
// alone is guarded by a mutex so concurrent readers (e.g. a monitor
// querying repeater status) never race the dispatch goroutine, per
// spec.md §5's "short, uncontended, never nested" lock discipline.
package timeslot

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/clock"
	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/fec"
	"github.com/dbehnke/dmr-repeater/pkg/framing"
)

// State holds the call-tracking record for one of TS1 or TS2, per spec.md
// §3's Timeslot record.
type State struct {
	mu              sync.Mutex
	voiceCallActive bool

	dataCallActive bool

	StreamID uint32
	Sequence uint32

	// VoiceFrame is the current position, 0..5, in the superframe cycle.
	VoiceFrame int

	LastVoiceFrameReceived time.Time
	LastDataFrameReceived  time.Time

	// LastSrcID/LastDstID remember the most recent call's addressing so
	// an expiry-synthesized terminator (see pkg/repeater) can carry
	// forward real IDs instead of zeros — see DESIGN.md's Open Question
	// on the expiry synthesizer.
	LastSrcID uint32
	LastDstID uint32

	// VBPTCEmbLC is the encoded embedded-LC record for the call in
	// progress. Per invariant 1 in spec.md §3, it is non-nil only while
	// voiceCallActive is true.
	VBPTCEmbLC *fec.BPTCRecord

	clock clock.Source

	// streamSeq is the monotonic counter VoiceCallStart draws StreamID
	// from. A State constructed standalone via New owns a private counter;
	// States sharing a Table share one so TS1 and TS2 calls never draw the
	// same StreamID, which pkg/policy's StreamDeduplicator and
	// pkg/callhistory's Recorder both key on across timeslots.
	streamSeq *uint32
}

// New returns a State using src as its time source, with its own private
// stream id counter.
func New(src clock.Source) *State {
	return newState(src, new(uint32))
}

func newState(src clock.Source, streamSeq *uint32) *State {
	return &State{clock: src, streamSeq: streamSeq}
}

// VoiceCallActive reports whether a voice call is currently active,
// acquiring the slot's lock per spec.md §4.3.
func (s *State) VoiceCallActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceCallActive
}

// SetVoiceCallActive sets the active flag directly, for tests and for
// voice_call_start/voice_call_end below.
func (s *State) SetVoiceCallActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceCallActive = active
}

// DataCallActive reports whether a data call is in progress on this
// timeslot.
func (s *State) DataCallActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataCallActive
}

// SetDataCallActive sets the data-call flag.
func (s *State) SetDataCallActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataCallActive = active
}

// VoiceCallStart begins a new voice call on this timeslot, per spec.md
// §4.3. If a call is already active it is ended first (idempotent-by-
// restart). If lc is non-nil, the embedded-LC record is encoded and stored;
// otherwise VBPTCEmbLC is left nil (late entry with no header available
// yet). voice_frame resets to 0.
func (s *State) VoiceCallStart(p *dmrpacket.Packet, lc *framing.FullLC) {
	if s.VoiceCallActive() {
		s.VoiceCallEnd(p)
	}

	s.VoiceFrame = 0
	s.Sequence++
	s.StreamID = atomic.AddUint32(s.streamSeq, 1)
	s.LastSrcID = p.SrcID
	s.LastDstID = p.DstID

	if lc != nil {
		rec := framing.EncodeEmbeddedLC(*lc)
		s.VBPTCEmbLC = &rec
	} else {
		s.VBPTCEmbLC = nil
	}

	s.SetVoiceCallActive(true)
}

// VoiceCallEnd ends the voice call in progress, releasing the embedded-LC
// record. If no call is active, it is a no-op, per spec.md §4.3.
func (s *State) VoiceCallEnd(p *dmrpacket.Packet) {
	if !s.VoiceCallActive() {
		return
	}
	if p != nil {
		s.LastSrcID = p.SrcID
		s.LastDstID = p.DstID
	}
	s.VBPTCEmbLC = nil
	s.SetVoiceCallActive(false)
}

// ExpiredSince reports whether more than threshold has elapsed since the
// last voice frame was received, using > (not >=) per spec.md §8's boundary
// test: exactly threshold does not fire.
func (s *State) ExpiredSince(threshold time.Duration) bool {
	if !s.VoiceCallActive() {
		return false
	}
	elapsed := s.clock.Now().Sub(s.LastVoiceFrameReceived)
	return elapsed > threshold
}

// Table holds the two timeslot states the repeater tracks.
type Table struct {
	TS1 *State
	TS2 *State
}

// NewTable constructs a Table with both timeslots backed by src, sharing a
// single stream id counter so TS1 and TS2 calls draw disjoint StreamIDs.
func NewTable(src clock.Source) *Table {
	streamSeq := new(uint32)
	return &Table{TS1: newState(src, streamSeq), TS2: newState(src, streamSeq)}
}

// Get returns the State for ts.
func (t *Table) Get(ts dmrpacket.Timeslot) *State {
	if ts == dmrpacket.TS1 {
		return t.TS1
	}
	return t.TS2
}
