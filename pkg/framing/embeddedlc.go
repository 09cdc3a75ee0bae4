package framing

import (
	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/fec"
)

// LCSS is the Link Control Start/Stop flag carried in the EMB header,
// marking which embedded-LC fragment a voice burst carries.
type LCSS int

const (
	LCSSContinuation LCSS = iota
	LCSSFirstFragment
	LCSSLastFragment
	LCSSSingleFragment
)

// EncodeEmbeddedLC converts lc into the 77-bit embedded-signalling bit
// vector and BPTC(16,11)-encodes it into a 128-bit record, per spec.md
// §4.4.4. The embedded record reuses the same 54-bit raw field layout as
// the Full LC (see fulllc.go) padded with a 16-bit CRC-16 check value,
// zero-extended to 23 bits, so the full 77 bits are populated; this does not need to match the Full LC's RS(12,9)
// codeword bit-for-bit since the embedded and full forms are decoded
// independently.
func EncodeEmbeddedLC(lc FullLC) fec.BPTCRecord {
	dataBits := fullLCDataBits(lc)

	var packed [7]byte
	for i, b := range dataBits {
		if b {
			packed[i/8] |= 1 << uint(7-i%8)
		}
	}
	check := fec.CRC16(packed[:])

	var info [fec.BPTCInfoBits]bool
	copy(info[:54], dataBits)
	copy(info[54:], bitsFromUint(uint64(check), fec.BPTCInfoBits-54))

	return fec.EncodeBPTC16_11(info)
}

// DecodeEmbeddedLC reverses EncodeEmbeddedLC's bit layout, returning the
// recovered FullLC. It does not re-verify the trailing check bits: BPTC's
// own Hamming(16,11,4) rows already guard against bit errors, and the
// check field exists only to occupy the embedded record's full width.
func DecodeEmbeddedLC(rec fec.BPTCRecord) (FullLC, error) {
	info, ok := fec.DecodeBPTC16_11(rec)
	if !ok {
		return FullLC{}, errCodec("embedded-lc", "uncorrectable bptc error")
	}
	return fullLCFromDataBits(info[:54]), nil
}

// EMBHeader is the 7-bit embedded signalling header (color code, privacy
// indicator, LCSS) Hamming(16,7)-protected and carried alongside each
// embedded-LC fragment in voice bursts B-E.
type EMBHeader struct {
	ColorCode byte // 1..15
	PI        bool
	LCSS      LCSS
}

func embHeaderBits(h EMBHeader) [7]bool {
	var bits [7]bool
	copy(bits[0:4], bitsFromUint(uint64(h.ColorCode), 4))
	bits[4] = h.PI
	copy(bits[5:7], bitsFromUint(uint64(h.LCSS), 2))
	return bits
}

func embHeaderFromBits(bits [7]bool) EMBHeader {
	return EMBHeader{
		ColorCode: byte(uintFromBits(bits[0:4])),
		PI:        bits[4],
		LCSS:      LCSS(uintFromBits(bits[5:7])),
	}
}

// EncodeEmbeddedLCFragment writes the k-th 16-bit fragment (k in 0..3) of
// rec, plus its Hamming(16,7)-encoded EMB header, into p's embedded
// signalling region. When hasLC is false (no LC record available for the
// current call), a NULL fragment of the same shape is written instead,
// with an EMB header carrying a zero LCSS.
func EncodeEmbeddedLCFragment(p *dmrpacket.Packet, rec fec.BPTCRecord, hasLC bool, k int, header EMBHeader) error {
	if !hasLC {
		header.LCSS = 0
	}
	hBits := embHeaderBits(header)
	hParity := fec.EncodeHamming16_7(hBits)

	embBits := make([]bool, 0, 16)
	embBits = append(embBits, hBits[:]...)
	embBits = append(embBits, hParity[:]...)
	setBits(&p.Payload, syncOffset, embBits)

	var fragment uint16
	if hasLC {
		frag, ok := rec.Fragment(k)
		if !ok {
			return errCodec("embedded-lc-fragment", "fragment index out of range")
		}
		fragment = frag
	}
	fragBits := bitsFromUint(uint64(fragment), 16)
	setBits(&p.Payload, syncOffset+16, fragBits)

	// Remaining 16 bits of the 48-bit sync field are reserved in this
	// voice-burst layout and left zeroed.
	setBits(&p.Payload, syncOffset+32, make([]bool, 16))
	return nil
}

// DecodeEmbeddedLCFragment reads the EMB header and 16-bit fragment written
// by EncodeEmbeddedLCFragment.
func DecodeEmbeddedLCFragment(p *dmrpacket.Packet) (header EMBHeader, fragment uint16, ok bool) {
	embBits := getBits(&p.Payload, syncOffset, 16)
	var hBits [7]bool
	var hParity [9]bool
	copy(hBits[:], embBits[0:7])
	copy(hParity[:], embBits[7:16])

	if !fec.VerifyHamming16_7(hBits, hParity) {
		return EMBHeader{}, 0, false
	}

	fragBits := getBits(&p.Payload, syncOffset+16, 16)
	return embHeaderFromBits(hBits), uint16(uintFromBits(fragBits)), true
}
