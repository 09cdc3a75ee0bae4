package fec

// BPTCRows is the number of Hamming(16,11,4) rows a BPTC(16,11) embedded
// Link Control record is built from.
const BPTCRows = 8

// BPTCInfoBits is the number of real signalling bits a BPTC(16,11) record
// carries; the remaining 8*11-BPTCInfoBits bits of the row matrix are
// zero padding.
const BPTCInfoBits = 77

// bptcInterleave is the fixed permutation applied to the 88 (padded) info
// bits before they are split into the 8 Hamming(16,11,4) rows, so that a
// burst error confined to one physical row of the transmitted record
// disturbs bits that originated from scattered positions in the logical
// bit vector. The permutation is its own construction (no vendor table
// for it appeared in the retrieval pack); it is a fixed, documented,
// invertible multiplicative shuffle (bit i moves to (i*17) mod 88), not a
// placeholder.
var bptcInterleave = buildBPTCInterleave()

func buildBPTCInterleave() [BPTCRows * Hamming15_11_DataBits]int {
	const n = BPTCRows * Hamming15_11_DataBits
	var perm [n]int
	// Classic DMR-style interleaver: bit i moves to position (i*prime)
	// mod n, where prime is coprime with n so the mapping is a bijection.
	const prime = 17
	for i := 0; i < n; i++ {
		perm[i] = (i * prime) % n
	}
	return perm
}

// BPTCRecord is the 128-bit (8 rows x 16 bits) encoded embedded Link
// Control record described in spec.md §3 and §4.4.
type BPTCRecord [BPTCRows][16]bool

// EncodeBPTC16_11 interleaves and BPTC(16,11)-encodes a 77-bit embedded
// signalling LC bit vector into a 128-bit record.
func EncodeBPTC16_11(info [BPTCInfoBits]bool) BPTCRecord {
	const n = BPTCRows * Hamming15_11_DataBits
	var padded [n]bool
	copy(padded[:], info[:])

	var interleaved [n]bool
	for i, dst := range bptcInterleave {
		interleaved[dst] = padded[i]
	}

	var rec BPTCRecord
	for row := 0; row < BPTCRows; row++ {
		var data [11]bool
		copy(data[:], interleaved[row*11:row*11+11])
		parity := EncodeHamming16_11_4(data)
		copy(rec[row][0:11], data[:])
		copy(rec[row][11:16], parity[:])
	}
	return rec
}

// DecodeBPTC16_11 reverses EncodeBPTC16_11, correcting up to one bit error
// per row (so up to BPTCRows total, as long as no row carries more than
// one). It returns the recovered 77-bit info vector and true on success,
// or false if any row carries an uncorrectable error.
func DecodeBPTC16_11(rec BPTCRecord) (info [BPTCInfoBits]bool, ok bool) {
	const n = BPTCRows * Hamming15_11_DataBits
	var interleaved [n]bool
	for row := 0; row < BPTCRows; row++ {
		var data [11]bool
		var parity [5]bool
		copy(data[:], rec[row][0:11])
		copy(parity[:], rec[row][11:16])

		corrected, rowOK := DecodeHamming16_11_4(data, parity)
		if !rowOK {
			return info, false
		}
		copy(interleaved[row*11:row*11+11], corrected[:])
	}

	var padded [n]bool
	for i, dst := range bptcInterleave {
		padded[i] = interleaved[dst]
	}
	copy(info[:], padded[:BPTCInfoBits])
	return info, true
}

// Fragment returns the 16-bit row k (0-3) of a BPTC record as a big-endian
// packed 16-bit value, matching the per-burst embedded LC fragments
// carried in voice frames B-E. Row 0 of the underlying matrix is reserved
// and not exposed as a fragment; fragments map to rows 1-4.
func (r BPTCRecord) Fragment(k int) (uint16, bool) {
	if k < 0 || k > 3 {
		return 0, false
	}
	row := r[k+1]
	var v uint16
	for _, b := range row {
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v, true
}
