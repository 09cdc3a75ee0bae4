package framing

import (
	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/fec"
)

// slotTypeDataCode maps the data types that carry an explicit slot-type
// field to their 4-bit air-interface code. Voice bursts (VOICE, VOICE_SYNC)
// carry their framing information in the sync/EMB field instead and do not
// stamp a slot-type field.
func slotTypeDataCode(dt dmrpacket.DataType) (byte, bool) {
	switch dt {
	case dmrpacket.VoiceLC:
		return 1, true
	case dmrpacket.TerminatorWithLC:
		return 2, true
	case dmrpacket.DataBurst:
		return 3, true
	default:
		return 0, false
	}
}

// EncodeSlotType computes the 8 data bits (4-bit color code, 4-bit data
// type) for p and stamps them, together with their Golay(20,8) parity, into
// the two 10-bit slot-type halves flanking the sync field. Voice bursts
// (VOICE, VOICE_SYNC) have no slot-type field and are left unmodified.
func EncodeSlotType(p *dmrpacket.Packet) error {
	code, ok := slotTypeDataCode(p.DataType)
	if !ok {
		return nil
	}
	if p.ColorCode < 1 || p.ColorCode > 15 {
		return errCodec("slot-type", "color code out of range")
	}

	var bits [8]bool
	ccBits := bitsFromUint(uint64(p.ColorCode), 4)
	dtBits := bitsFromUint(uint64(code), 4)
	copy(bits[0:4], ccBits)
	copy(bits[4:8], dtBits)

	parity := fec.EncodeGolay20_8(bits)

	// 20-bit codeword (8 data + 12 parity) splits across the two 10-bit
	// halves flanking the sync field.
	codeword := make([]bool, 0, 20)
	codeword = append(codeword, bits[:]...)
	codeword = append(codeword, parity[:]...)

	setBits(&p.Payload, slotTypeAOffset, codeword[0:slotTypeLen])
	setBits(&p.Payload, slotTypeBOffset, codeword[slotTypeLen:2*slotTypeLen])
	return nil
}

// DecodeSlotType reads and Golay(20,8)-corrects the slot-type field,
// returning the carried color code and data-type code.
func DecodeSlotType(p *dmrpacket.Packet) (colorCode byte, dataTypeCode byte, ok bool) {
	a := getBits(&p.Payload, slotTypeAOffset, slotTypeLen)
	b := getBits(&p.Payload, slotTypeBOffset, slotTypeLen)

	var bits [8]bool
	var parity [12]bool
	copy(bits[:], a[0:8])
	parity[0], parity[1] = a[8], a[9]
	copy(parity[2:], b)

	corrected, good := fec.CorrectGolay20_8(bits, parity)
	if !good {
		return 0, 0, false
	}

	cc := byte(uintFromBits(corrected[0:4]))
	dt := byte(uintFromBits(corrected[4:8]))
	return cc, dt, true
}
