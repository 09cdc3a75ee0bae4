package policy

import (
	"testing"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
)

func TestStreamDeduplicator_PermitFirstThenRejectDuplicate(t *testing.T) {
	d := NewStreamDeduplicator()
	sink := stubTransport{name: "sink1"}
	packet := &dmrpacket.Packet{StreamID: 12345, DataType: dmrpacket.Voice}

	if !d.Permit(nil, nil, sink, packet) {
		t.Fatal("expected the first packet of a stream to be permitted")
	}
	if d.Permit(nil, nil, sink, packet) {
		t.Error("expected a second packet of the same stream to the same sink to be rejected")
	}
}

func TestStreamDeduplicator_DifferentSinksBothPermitted(t *testing.T) {
	d := NewStreamDeduplicator()
	sinkA := stubTransport{name: "sinkA"}
	sinkB := stubTransport{name: "sinkB"}
	packet := &dmrpacket.Packet{StreamID: 12345, DataType: dmrpacket.Voice}

	if !d.Permit(nil, nil, sinkA, packet) {
		t.Error("expected sinkA to be permitted")
	}
	if !d.Permit(nil, nil, sinkB, packet) {
		t.Error("expected sinkB to be permitted independently of sinkA")
	}
}

func TestStreamDeduplicator_IsActive(t *testing.T) {
	d := NewStreamDeduplicator()
	sink := stubTransport{name: "sink1"}

	if d.IsActive(12345) {
		t.Fatal("a stream should not be active before it's seen")
	}
	d.Permit(nil, nil, sink, &dmrpacket.Packet{StreamID: 12345, DataType: dmrpacket.Voice})
	if !d.IsActive(12345) {
		t.Error("expected the stream to be active after a permitted packet")
	}
}

func TestStreamDeduplicator_TerminatorClearsTracking(t *testing.T) {
	d := NewStreamDeduplicator()
	sink := stubTransport{name: "sink1"}

	d.Permit(nil, nil, sink, &dmrpacket.Packet{StreamID: 12345, DataType: dmrpacket.Voice})
	if !d.IsActive(12345) {
		t.Fatal("expected the stream to be active")
	}

	d.Permit(nil, nil, sink, &dmrpacket.Packet{StreamID: 12345, DataType: dmrpacket.TerminatorWithLC})
	if d.IsActive(12345) {
		t.Error("expected terminator to clear the stream's tracking entry")
	}

	// The same stream ID can be reused by a later, unrelated call.
	if !d.Permit(nil, nil, sink, &dmrpacket.Packet{StreamID: 12345, DataType: dmrpacket.Voice}) {
		t.Error("expected a reused stream ID to be permitted fresh after termination")
	}
}

func TestStreamDeduplicator_CleanupOldStreams(t *testing.T) {
	d := NewStreamDeduplicator()
	sink := stubTransport{name: "sink1"}

	d.Permit(nil, nil, sink, &dmrpacket.Packet{StreamID: 111, DataType: dmrpacket.Voice})
	d.Permit(nil, nil, sink, &dmrpacket.Packet{StreamID: 222, DataType: dmrpacket.Voice})

	time.Sleep(5 * time.Millisecond)
	d.CleanupOldStreams(time.Millisecond)

	if d.IsActive(111) || d.IsActive(222) {
		t.Error("expected both streams to be cleaned up after their max age elapsed")
	}
}

func TestStreamDeduplicator_ConcurrentAccess(t *testing.T) {
	d := NewStreamDeduplicator()
	sink := stubTransport{name: "sink1"}

	done := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		go func(id uint32) {
			d.Permit(nil, nil, sink, &dmrpacket.Packet{StreamID: id, DataType: dmrpacket.Voice})
			d.IsActive(id)
			done <- struct{}{}
		}(uint32(i))
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
