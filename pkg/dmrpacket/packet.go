// Package dmrpacket defines the in-memory DMR burst value the repeater
// core routes between transports. It is a pure data model: parsing raw
// air-interface bytes into a wire frame, and any transport-specific
// encapsulation, is the concern of the transports that produce and
// consume Packet values, not of this package.
package dmrpacket

import "fmt"

// Timeslot identifies one of DMR's two TDMA channels on a carrier.
type Timeslot int

const (
	TS1 Timeslot = 1
	TS2 Timeslot = 2
)

// String returns the human-readable timeslot name.
func (ts Timeslot) String() string {
	switch ts {
	case TS1:
		return "TS1"
	case TS2:
		return "TS2"
	default:
		return fmt.Sprintf("TS(%d)", int(ts))
	}
}

// Other returns the timeslot that is not ts. It panics on an invalid
// timeslot value since the caller is always expected to hold TS1 or TS2.
func (ts Timeslot) Other() Timeslot {
	switch ts {
	case TS1:
		return TS2
	case TS2:
		return TS1
	default:
		panic(fmt.Sprintf("dmrpacket: invalid timeslot %d", int(ts)))
	}
}

// DataType identifies the kind of burst carried in a packet. The closed
// set below covers everything the repeater core inspects; any other value
// is forwarded unmodified as an opaque data burst.
type DataType int

const (
	// Voice is a voice burst belonging to frames B-F of a superframe.
	Voice DataType = iota
	// VoiceSync is a voice burst in frame A of a superframe (carries the
	// voice sync pattern instead of embedded signalling).
	VoiceSync
	// VoiceLC is the voice call header carrying the Full Link Control.
	VoiceLC
	// TerminatorWithLC ends a voice call and carries the Full Link Control.
	TerminatorWithLC
	// DataBurst is any other data payload the core forwards untouched.
	DataBurst
)

// String returns the data type's name, matching dmr_data_type_name in the
// reference implementation.
func (dt DataType) String() string {
	switch dt {
	case Voice:
		return "VOICE"
	case VoiceSync:
		return "VOICE_SYNC"
	case VoiceLC:
		return "VOICE_LC"
	case TerminatorWithLC:
		return "TERMINATOR_WITH_LC"
	case DataBurst:
		return "DATA"
	default:
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
}

// FLCO is the Full Link Control Opcode identifying the call type a Full LC
// or embedded LC record carries.
type FLCO int

const (
	FLCOGroup FLCO = iota
	FLCOPrivate
)

func (f FLCO) String() string {
	if f == FLCOPrivate {
		return "PRIVATE"
	}
	return "GROUP"
}

// PayloadSize is the length in bytes of a DMR burst payload: 264 bits.
const PayloadSize = 33

// VoiceFrameCount is the number of frames (A..F) in one voice superframe.
const VoiceFrameCount = 6

// Meta carries per-packet bookkeeping the dispatch loop stamps onto
// outbound voice bursts.
type Meta struct {
	// VoiceFrame is the packet's position, 0..5, in the 6-frame voice
	// superframe cycle. Frame index i corresponds to superframe letter
	// 'A'+i.
	VoiceFrame int
}

// Packet is the fixed-shape DMR burst value routed by the repeater core.
type Packet struct {
	Timeslot  Timeslot
	DataType  DataType
	ColorCode byte // 1..15
	FLCO      FLCO
	SrcID     uint32
	DstID     uint32
	// StreamID identifies the voice/data call a burst belongs to. The
	// repeater core stamps this from its per-timeslot call state; policies
	// such as pkg/policy's StreamDeduplicator key on it to recognize
	// fragments of the same call arriving from more than one path.
	StreamID uint32
	Payload  [PayloadSize]byte
	Meta     Meta
}

// Clone returns an independent deep copy of p. The dispatch loop clones a
// packet once per candidate sink so a router is free to mutate its copy
// without affecting other sinks or the original ingress item.
func (p *Packet) Clone() *Packet {
	clone := *p
	return &clone
}

// SuperframeLetter returns the superframe letter ('A'..'F') for the
// packet's current voice frame index.
func (p *Packet) SuperframeLetter() byte {
	return byte('A' + p.Meta.VoiceFrame%VoiceFrameCount)
}
