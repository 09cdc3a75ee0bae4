//go:build integration
// +build integration

// Package integration exercises pkg/repeater end to end over
// internal/testhelpers.LoopbackTransport, with no real network or radio
// hardware involved.
package integration

import (
	"testing"
	"time"

	"github.com/dbehnke/dmr-repeater/internal/testhelpers"
	"github.com/dbehnke/dmr-repeater/pkg/clock"
	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/repeater"
)

func deadlineWait(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 500; i++ {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newBridge(t *testing.T, router repeater.Router, colorCode int, names ...string) (*repeater.Repeater, []*testhelpers.LoopbackTransport) {
	t.Helper()
	r, err := repeater.New(router, colorCode)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	transports := make([]*testhelpers.LoopbackTransport, len(names))
	for i, name := range names {
		tr := testhelpers.NewLoopbackTransport(name)
		transports[i] = tr
		if err := r.Add(tr, nil); err != nil {
			t.Fatalf("Add(%s) error = %v", name, err)
		}
	}
	return r, transports
}

// Scenario 1: bridging two transports relays a full voice call carrying
// explicit VOICE_LC/VOICE/VOICE_SYNC/TERMINATOR_WITH_LC framing, with
// voice_frame cycling 0..5 across the superframe.
func TestScenario_SingleVoiceCall(t *testing.T) {
	r, sinks := newBridge(t, nil, 1, "a", "b")
	a, b := sinks[0], sinks[1]

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { r.Stop(); r.Wait() }()

	const streamSrc, streamDst uint32 = 3121001, 3100

	a.Inject(&dmrpacket.Packet{Timeslot: dmrpacket.TS1, DataType: dmrpacket.VoiceLC, SrcID: streamSrc, DstID: streamDst})
	dataTypes := []dmrpacket.DataType{
		dmrpacket.VoiceSync, // frame A
		dmrpacket.Voice,     // frame B
		dmrpacket.Voice,     // frame C
		dmrpacket.Voice,     // frame D
		dmrpacket.Voice,     // frame E
		dmrpacket.Voice,     // frame F
	}
	for _, dt := range dataTypes {
		a.Inject(&dmrpacket.Packet{Timeslot: dmrpacket.TS1, DataType: dt, SrcID: streamSrc, DstID: streamDst})
	}
	a.Inject(&dmrpacket.Packet{Timeslot: dmrpacket.TS1, DataType: dmrpacket.TerminatorWithLC, SrcID: streamSrc, DstID: streamDst})

	deadlineWait(t, func() bool { return b.SentCount() >= 8 })

	sent := b.Sent()
	if len(sent) != 8 {
		t.Fatalf("expected 8 packets delivered to b, got %d", len(sent))
	}
	if sent[0].DataType != dmrpacket.VoiceLC {
		t.Fatalf("expected first packet to be VOICE_LC, got %s", sent[0].DataType)
	}
	for i, want := range []int{0, 1, 2, 3, 4, 5} {
		got := sent[i+1].Meta.VoiceFrame
		if got != want {
			t.Errorf("voice frame %d: got Meta.VoiceFrame=%d, want %d", i, got, want)
		}
	}
	if sent[7].DataType != dmrpacket.TerminatorWithLC {
		t.Fatalf("expected last packet to be TERMINATOR_WITH_LC, got %s", sent[7].DataType)
	}
}

// Scenario 2: a bare VOICE burst with no preceding VOICE_LC triggers late
// entry, synthesizing exactly four VOICE_LC headers before the voice burst
// itself is forwarded.
func TestScenario_LateEntrySynthesizesFourHeaders(t *testing.T) {
	r, sinks := newBridge(t, nil, 1, "a", "b")
	a, b := sinks[0], sinks[1]

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { r.Stop(); r.Wait() }()

	a.Inject(&dmrpacket.Packet{Timeslot: dmrpacket.TS1, DataType: dmrpacket.VoiceSync, SrcID: 3121002, DstID: 3100})

	deadlineWait(t, func() bool { return b.SentCount() >= 5 })

	sent := b.Sent()
	if len(sent) != 5 {
		t.Fatalf("expected 5 packets delivered to b, got %d", len(sent))
	}
	for i := 0; i < 4; i++ {
		if sent[i].DataType != dmrpacket.VoiceLC {
			t.Errorf("synthesized header %d: got %s, want VOICE_LC", i, sent[i].DataType)
		}
	}
	if sent[4].DataType != dmrpacket.VoiceSync {
		t.Fatalf("expected the fifth packet to be the original VOICE_SYNC burst, got %s", sent[4].DataType)
	}
}

// Scenario 3: a voice call with no further frames for longer than the
// expiry threshold is terminated by a synthetic TERMINATOR_WITH_LC.
func TestScenario_ExpiryTermination(t *testing.T) {
	mclock := clock.NewManual(time.Now())
	r, err := repeater.NewWithClock(nil, 1, mclock)
	if err != nil {
		t.Fatalf("NewWithClock() error = %v", err)
	}
	r.IdleSleep = time.Millisecond
	r.ExpiryThreshold = 180 * time.Millisecond

	a := testhelpers.NewLoopbackTransport("a")
	b := testhelpers.NewLoopbackTransport("b")
	if err := r.Add(a, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(b, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { r.Stop(); r.Wait() }()

	a.Inject(&dmrpacket.Packet{Timeslot: dmrpacket.TS1, DataType: dmrpacket.VoiceLC, SrcID: 3121003, DstID: 3100})
	a.Inject(&dmrpacket.Packet{Timeslot: dmrpacket.TS1, DataType: dmrpacket.VoiceSync, SrcID: 3121003, DstID: 3100})

	deadlineWait(t, func() bool { return b.SentCount() >= 2 })

	mclock.Advance(200 * time.Millisecond)

	deadlineWait(t, func() bool {
		sent := b.Sent()
		return len(sent) > 0 && sent[len(sent)-1].DataType == dmrpacket.TerminatorWithLC
	})
}

// Scenario 4: the router may reject a candidate sink without affecting
// fan-out to the other attached transports.
func TestScenario_RouterRejectsOneSink(t *testing.T) {
	router := repeater.RouterFunc(func(r *repeater.Repeater, source, sink repeater.Transport, packet *dmrpacket.Packet) repeater.Verdict {
		if sink.Name() == "c" {
			return repeater.Reject
		}
		return repeater.Permit
	})

	r, sinks := newBridge(t, router, 1, "a", "b", "c")
	a, b, c := sinks[0], sinks[1], sinks[2]

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { r.Stop(); r.Wait() }()

	a.Inject(&dmrpacket.Packet{Timeslot: dmrpacket.TS1, DataType: dmrpacket.VoiceLC, SrcID: 3121004, DstID: 3100})

	deadlineWait(t, func() bool { return b.SentCount() >= 1 })
	time.Sleep(20 * time.Millisecond)

	if b.SentCount() == 0 {
		t.Error("expected b to receive the packet")
	}
	if c.SentCount() != 0 {
		t.Errorf("expected c to receive nothing, got %d packets", c.SentCount())
	}
	if a.SentCount() != 0 {
		t.Errorf("expected the source transport a to never receive its own packet, got %d packets", a.SentCount())
	}
}

// Scenario 5: every forwarded burst carries the repeater's configured
// color code, regardless of what it arrived with.
func TestScenario_ColorCodeNormalization(t *testing.T) {
	r, sinks := newBridge(t, nil, 7, "a", "b")
	a, b := sinks[0], sinks[1]

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { r.Stop(); r.Wait() }()

	a.Inject(&dmrpacket.Packet{Timeslot: dmrpacket.TS1, DataType: dmrpacket.VoiceLC, ColorCode: 3, SrcID: 3121005, DstID: 3100})

	deadlineWait(t, func() bool { return b.SentCount() >= 1 })

	sent := b.Sent()
	if sent[0].ColorCode != 7 {
		t.Fatalf("expected normalized color code 7, got %d", sent[0].ColorCode)
	}
}

// Scenario 6: the ingress queue's bounded capacity drops overflow rather
// than blocking producers; everything enqueued before overflow is still
// delivered in order once the dispatch loop resumes draining it.
func TestScenario_QueueOverflow(t *testing.T) {
	r, sinks := newBridge(t, nil, 1, "a", "b")
	a, b := sinks[0], sinks[1]

	// Dispatch is not yet running: every Inject below enqueues without
	// anything draining the queue, exercising ingress.Capacity's overflow
	// policy directly.
	const capacity = 32
	for i := 0; i < capacity+1; i++ {
		a.Inject(&dmrpacket.Packet{Timeslot: dmrpacket.TS1, DataType: dmrpacket.DataBurst, SrcID: uint32(i), DstID: 3100})
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { r.Stop(); r.Wait() }()

	deadlineWait(t, func() bool { return b.SentCount() >= capacity })
	time.Sleep(20 * time.Millisecond)

	sent := b.Sent()
	if len(sent) != capacity {
		t.Fatalf("expected exactly %d packets delivered after resume, got %d", capacity, len(sent))
	}
	for i, p := range sent {
		if p.SrcID != uint32(i) {
			t.Fatalf("packet %d: got SrcID=%d, want %d (order not preserved)", i, p.SrcID, i)
		}
	}
}
