// Package repeater implements the DMR repeater core: the dispatch loop
// that relays voice and data bursts between attached transports, the
// per-timeslot call-state tracking that drives late-entry header synthesis
// and expiry, and the outbound framing rewrite every forwarded packet goes
// through. It is the direct successor of the reference implementation's
// dmr_repeater_t, restructured around explicit error returns, owned
// clones, and a properly synchronized ingress queue in place of the
// source's commented-out lock.
package repeater

import (
	"sync"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/clock"
	"github.com/dbehnke/dmr-repeater/pkg/ingress"
	"github.com/dbehnke/dmr-repeater/pkg/logger"
	"github.com/dbehnke/dmr-repeater/pkg/timeslot"
)

// MaxSlots bounds the number of transports one repeater may bridge,
// matching the reference implementation's DMR_REPEATER_MAX_SLOTS.
const MaxSlots = 8

// DefaultExpiryThreshold and DefaultIdleSleep are the default timing
// constants from spec.md §6: 180ms of silence auto-terminates a voice call;
// the dispatch loop sleeps 5ms when the ingress queue is empty. Repeater's
// exported per-instance ExpiryThreshold and IdleSleep fields override them
// when set to a positive value, so tests can tighten them.
const (
	DefaultExpiryThreshold = 180 * time.Millisecond
	DefaultIdleSleep       = 5 * time.Millisecond
)

// Repeater bridges two or more attached Transports, applying router policy,
// timeslot call-state tracking, and outbound framing rewrite to every
// forwarded packet.
type Repeater struct {
	router    Router
	colorCode byte

	slotsMu sync.Mutex
	slots   []slot

	queue *ingress.Queue
	table *timeslot.Table
	clock clock.Source

	obsMu     sync.Mutex
	observers []Observer

	log *logger.Logger

	// ExpiryThreshold and IdleSleep may be tightened before Start for
	// deterministic tests; the zero value falls back to the package
	// defaults.
	ExpiryThreshold time.Duration
	IdleSleep       time.Duration

	lifecycleMu sync.Mutex
	active      bool
	started     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// New constructs a Repeater with the given router policy and color code
// (1..15). A nil router is treated as always-PERMIT.
func New(router Router, colorCode int) (*Repeater, error) {
	return NewWithClock(router, colorCode, clock.System{})
}

// NewWithClock is New with an injectable clock.Source, for tests that need
// to control expiry timing deterministically.
func NewWithClock(router Router, colorCode int, src clock.Source) (*Repeater, error) {
	if colorCode < 1 || colorCode > 15 {
		return nil, newError(ErrInvalid, "color code must be in 1..15")
	}
	return &Repeater{
		router:    router,
		colorCode: byte(colorCode),
		queue:     ingress.New(),
		table:     timeslot.NewTable(src),
		clock:     src,
	}, nil
}

// SetLogger attaches a logger used for dropped-packet and codec-failure
// diagnostics. It is optional; a nil logger (the default) disables logging.
func (r *Repeater) SetLogger(l *logger.Logger) {
	if l != nil {
		l = l.WithComponent("repeater")
	}
	r.log = l
}

// ColorCode returns the repeater's configured color code.
func (r *Repeater) ColorCode() byte { return r.colorCode }

// Add installs the repeater's ingress callback on transport. It fails
// ErrInvalid if MaxSlots is already attached or the transport refuses the
// callback. Per spec.md §4.1, idempotency is not promised: adding the same
// transport twice produces duplicate fan-out.
func (r *Repeater) Add(transport Transport, userdata interface{}) error {
	r.slotsMu.Lock()
	defer r.slotsMu.Unlock()

	if len(r.slots) >= MaxSlots {
		return newError(ErrInvalid, "maximum attached transports reached")
	}

	if !transport.RegisterRxCallback(r.onReceive) {
		return newError(ErrInvalid, "transport refused rx callback registration")
	}

	r.slots = append(r.slots, slot{transport: transport, userdata: userdata})
	return nil
}

func (r *Repeater) slotCount() int {
	r.slotsMu.Lock()
	defer r.slotsMu.Unlock()
	return len(r.slots)
}

func (r *Repeater) snapshotSlots() []slot {
	r.slotsMu.Lock()
	defer r.slotsMu.Unlock()
	out := make([]slot, len(r.slots))
	copy(out, r.slots)
	return out
}

// Start requires at least two attached transports and spawns the dispatch
// goroutine. It fails ErrInvalid if already started or if fewer than two
// transports are attached.
func (r *Repeater) Start() error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if r.started {
		return newError(ErrInvalid, "repeater already started")
	}
	if r.slotCount() < 2 {
		return newError(ErrInvalid, "at least two attached transports are required")
	}

	r.active = true
	r.started = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go r.dispatchLoop(r.stopCh, r.doneCh)
	return nil
}

// Stop requests cooperative shutdown: the dispatch goroutine observes the
// cleared active flag between iterations (at worst after one idle sleep
// plus one packet's dispatch) and exits. Stop does not wait for exit; call
// Wait for that.
func (r *Repeater) Stop() error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if !r.started {
		return newError(ErrInvalid, "repeater is not running")
	}
	r.active = false
	return nil
}

// Wait blocks until the dispatch goroutine has exited. It is a no-op if the
// repeater was never started.
func (r *Repeater) Wait() {
	r.lifecycleMu.Lock()
	done := r.doneCh
	r.lifecycleMu.Unlock()
	if done != nil {
		<-done
	}
}

// Active reports whether the dispatch goroutine exists and the active flag
// is set, read under the lifecycle lock.
func (r *Repeater) Active() bool {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()
	return r.active
}

func (r *Repeater) expiryThreshold() time.Duration {
	if r.ExpiryThreshold > 0 {
		return r.ExpiryThreshold
	}
	return DefaultExpiryThreshold
}

func (r *Repeater) idleSleep() time.Duration {
	if r.IdleSleep > 0 {
		return r.IdleSleep
	}
	return DefaultIdleSleep
}
