package framing

import (
	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/fec"
)

// FullLC is the 72-bit Link Control record carried in VOICE_LC and
// TERMINATOR_WITH_LC bursts, per spec.md §3.
type FullLC struct {
	FLCO         dmrpacket.FLCO
	FeatureSetID byte // 0..15
	PrivacyFlag  bool
	SrcID        uint32 // 24-bit
	DstID        uint32 // 24-bit
}

// fullLCDataBits packs a FullLC into the 54 raw information bits (9
// Reed-Solomon(12,9) data symbols) the codeword is built from: 1 bit FLCO,
// 1 bit privacy, 4 bits feature-set id, 24 bits destination id, 24 bits
// source id.
func fullLCDataBits(lc FullLC) []bool {
	bits := make([]bool, 0, 54)
	bits = append(bits, lc.FLCO == dmrpacket.FLCOPrivate)
	bits = append(bits, lc.PrivacyFlag)
	bits = append(bits, bitsFromUint(uint64(lc.FeatureSetID), 4)...)
	bits = append(bits, bitsFromUint(uint64(lc.DstID), 24)...)
	bits = append(bits, bitsFromUint(uint64(lc.SrcID), 24)...)
	return bits
}

func fullLCFromDataBits(bits []bool) FullLC {
	var lc FullLC
	if bits[0] {
		lc.FLCO = dmrpacket.FLCOPrivate
	} else {
		lc.FLCO = dmrpacket.FLCOGroup
	}
	lc.PrivacyFlag = bits[1]
	lc.FeatureSetID = byte(uintFromBits(bits[2:6]))
	lc.DstID = uint32(uintFromBits(bits[6:30]))
	lc.SrcID = uint32(uintFromBits(bits[30:54]))
	return lc
}

// bitsToSymbols packs a 54-bit stream (MSB first) into 9 six-bit Reed
// Solomon symbols.
func bitsToSymbols(bits []bool) [9]byte {
	var symbols [9]byte
	for i := 0; i < 9; i++ {
		symbols[i] = byte(uintFromBits(bits[i*6 : i*6+6]))
	}
	return symbols
}

func symbolsToBits(symbols []byte) []bool {
	bits := make([]bool, 0, 54)
	for _, s := range symbols {
		bits = append(bits, bitsFromUint(uint64(s), 6)...)
	}
	return bits
}

// crc8MaskFor returns the CRC-8 mask for the burst carrying the Full LC,
// distinguishing VOICE_LC from TERMINATOR_WITH_LC so an identical LC
// produces a different checksum in each burst type.
func crc8MaskFor(dt dmrpacket.DataType) byte {
	if dt == dmrpacket.TerminatorWithLC {
		return fec.CRC8MaskTerminatorWithLC
	}
	return fec.CRC8MaskVoiceLC
}

// EncodeFullLC serializes lc into p's VOICE_LC/TERMINATOR_WITH_LC payload
// region: a Reed-Solomon(12,9) protected 72-bit codeword (9 data symbols +
// 3 parity symbols) followed by an 8-bit masked CRC over the data symbols,
// filling the first information half of the burst.
func EncodeFullLC(p *dmrpacket.Packet, lc FullLC) error {
	dataBits := fullLCDataBits(lc)
	dataSymbols := bitsToSymbols(dataBits)
	paritySymbols := fec.EncodeRS129(dataSymbols)

	codewordBits := append(symbolsToBits(dataSymbols[:]), symbolsToBits(paritySymbols[:])...)
	crc := fec.CRC8(dataSymbols[:], crc8MaskFor(p.DataType))

	setBits(&p.Payload, infoAOffset, codewordBits)
	setBits(&p.Payload, infoAOffset+len(codewordBits), bitsFromUint(uint64(crc), 8))
	return nil
}

// DecodeFullLC reverses EncodeFullLC, correcting a single symbol error via
// the Reed-Solomon parity and verifying the masked CRC-8. It returns a
// CodecError if either check fails.
func DecodeFullLC(p *dmrpacket.Packet) (FullLC, error) {
	codewordBits := getBits(&p.Payload, infoAOffset, 72)
	crcBits := getBits(&p.Payload, infoAOffset+72, 8)

	var dataSymbols [9]byte
	var paritySymbols [3]byte
	for i := 0; i < 9; i++ {
		dataSymbols[i] = byte(uintFromBits(codewordBits[i*6 : i*6+6]))
	}
	for i := 0; i < 3; i++ {
		paritySymbols[i] = byte(uintFromBits(codewordBits[54+i*6 : 54+i*6+6]))
	}

	corrected, ok := fec.DecodeRS129(dataSymbols, paritySymbols)
	if !ok {
		return FullLC{}, errCodec("full-lc", "uncorrectable reed-solomon error")
	}

	crc := byte(uintFromBits(crcBits))
	if !fec.VerifyCRC8(corrected[:], crc8MaskFor(p.DataType), crc) {
		return FullLC{}, errCodec("full-lc", "crc-8 mismatch")
	}

	return fullLCFromDataBits(symbolsToBits(corrected[:])), nil
}
