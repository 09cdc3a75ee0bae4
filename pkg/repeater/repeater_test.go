package repeater

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
)

// fakeTransport is a minimal Transport double for lifecycle-level tests
// that don't need a full loopback wiring; internal/testhelpers.
// LoopbackTransport covers the end-to-end scenarios.
type fakeTransport struct {
	name string
	mu   sync.Mutex
	cb   RxCallback
	sent []*dmrpacket.Packet
}

func newFakeTransport(name string) *fakeTransport {
	return &fakeTransport{name: name}
}

func (f *fakeTransport) Name() string { return f.name }
func (f *fakeTransport) Type() string { return "fake" }

func (f *fakeTransport) RegisterRxCallback(cb RxCallback) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cb != nil {
		return false
	}
	f.cb = cb
	return true
}

func (f *fakeTransport) Transmit(p *dmrpacket.Packet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p.Clone())
	return nil
}

func (f *fakeTransport) receive(source Transport, p *dmrpacket.Packet) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	cb(source, p)
}

func TestNewRejectsInvalidColorCode(t *testing.T) {
	if _, err := New(nil, 0); err == nil {
		t.Fatal("expected an error for color code 0")
	}
	if _, err := New(nil, 16); err == nil {
		t.Fatal("expected an error for color code 16")
	}
	var repErr *Error
	_, err := New(nil, 0)
	if !errors.As(err, &repErr) || repErr.Kind != ErrInvalid {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestNewAcceptsBoundaryColorCodes(t *testing.T) {
	if _, err := New(nil, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := New(nil, 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStartRequiresTwoTransports(t *testing.T) {
	r, err := New(nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err == nil {
		t.Fatal("expected start to fail with zero attached transports")
	}

	a := newFakeTransport("a")
	if err := r.Add(a, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err == nil {
		t.Fatal("expected start to fail with one attached transport")
	}
}

func TestStartStopWait(t *testing.T) {
	r, err := New(nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	a, b := newFakeTransport("a"), newFakeTransport("b")
	if err := r.Add(a, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(b, nil); err != nil {
		t.Fatal(err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Active() {
		t.Fatal("expected repeater to be active after start")
	}
	if err := r.Start(); err == nil {
		t.Fatal("expected starting an already-started repeater to fail")
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Wait()
	if r.Active() {
		t.Fatal("expected repeater to be inactive after stop")
	}
}

func TestAddRejectsDuplicateCallbackRegistration(t *testing.T) {
	r, err := New(nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	a := newFakeTransport("a")
	if err := r.Add(a, nil); err != nil {
		t.Fatal(err)
	}

	r2, err := New(nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := r2.Add(a, nil); err == nil {
		t.Fatal("expected adding a transport that already has a callback to fail")
	}
}

func TestAddRejectsBeyondMaxSlots(t *testing.T) {
	r, err := New(nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < MaxSlots; i++ {
		if err := r.Add(newFakeTransport("t"), nil); err != nil {
			t.Fatalf("unexpected error adding transport %d: %v", i, err)
		}
	}
	if err := r.Add(newFakeTransport("overflow"), nil); err == nil {
		t.Fatal("expected adding beyond MaxSlots to fail")
	}
}

func TestColorCodeNormalization(t *testing.T) {
	r, err := New(nil, 7)
	if err != nil {
		t.Fatal(err)
	}
	a, b := newFakeTransport("a"), newFakeTransport("b")
	if err := r.Add(a, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(b, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		r.Stop()
		r.Wait()
	}()

	a.receive(a, &dmrpacket.Packet{
		Timeslot:  dmrpacket.TS1,
		DataType:  dmrpacket.VoiceLC,
		ColorCode: 3,
		SrcID:     1,
		DstID:     2,
	})

	deadlineWait(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.sent) > 0
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		t.Fatal("expected B to receive a packet")
	}
	if b.sent[0].ColorCode != 7 {
		t.Fatalf("expected normalized color code 7, got %d", b.sent[0].ColorCode)
	}
}

func deadlineWait(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
}
