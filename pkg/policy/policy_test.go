package policy

import (
	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/repeater"
)

// stubTransport is a no-op Transport double shared by this package's tests;
// Policy.Permit implementations only ever call Name() on it.
type stubTransport struct {
	name string
}

func (s stubTransport) Name() string                                { return s.name }
func (s stubTransport) Type() string                                { return "stub" }
func (s stubTransport) RegisterRxCallback(repeater.RxCallback) bool { return true }
func (s stubTransport) Transmit(*dmrpacket.Packet) error            { return nil }
