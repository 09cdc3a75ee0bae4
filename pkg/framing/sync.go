package framing

import "github.com/dbehnke/dmr-repeater/pkg/dmrpacket"

// SyncPattern identifies one of the standard 48-bit DMR sync words.
type SyncPattern int

const (
	// MSSourcedData is the sync pattern for a mobile-station-sourced data
	// burst (VOICE_LC, TERMINATOR_WITH_LC, and other data bursts).
	MSSourcedData SyncPattern = iota
	// MSSourcedVoice is the sync pattern for a mobile-station-sourced
	// voice burst's frame A.
	MSSourcedVoice
)

// syncPatternBits are the 48-bit patterns ETSI TS 102 361-1 assigns to each
// class of burst, stored as the low 48 bits of a uint64 since the sync
// field does not sit on a byte boundary within the 264-bit burst.
var syncPatternBits = map[SyncPattern]uint64{
	MSSourcedData:  0xD5D7F77FD757,
	MSSourcedVoice: 0x7F7D5DD57DFD,
}

// EncodeSyncPattern overwrites the packet's 48-bit sync field at the
// canonical burst offset with the given standard pattern.
func EncodeSyncPattern(p *dmrpacket.Packet, pattern SyncPattern) error {
	word, ok := syncPatternBits[pattern]
	if !ok {
		return errCodec("sync", "unknown sync pattern")
	}
	setBits(&p.Payload, syncOffset, bitsFromUint(word, syncLen))
	return nil
}
