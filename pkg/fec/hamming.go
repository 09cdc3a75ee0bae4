package fec

// Hamming15_11_3 message/parity widths.
const (
	Hamming15_11_DataBits   = 11
	Hamming15_11_ParityBits = 4
)

// hammingParity computes the parity bits for a systematic Hamming code
// given the data bits and the set of data-bit indices each parity bit
// covers. matrix[p] lists the indices (into bits) XORed into parity bit p.
func hammingParity(bits []bool, matrix [][]int) []bool {
	parity := make([]bool, len(matrix))
	for p, cols := range matrix {
		var v bool
		for _, idx := range cols {
			v = v != bits[idx]
		}
		parity[p] = v
	}
	return parity
}

// Hamming15_11_3Matrix defines which of the 11 data bits each of the 4
// parity bits covers, grounded on the (15,11,3) code referenced by
// original_source/include/dmr/fec/hamming.h.
var Hamming15_11_3Matrix = [][]int{
	{0, 1, 2, 3, 5, 7, 8},
	{0, 1, 2, 4, 6, 8, 9},
	{0, 1, 3, 4, 6, 7, 10},
	{0, 2, 3, 4, 5, 9, 10},
}

// EncodeHamming15_11_3 returns the 4 parity bits for 11 data bits.
func EncodeHamming15_11_3(bits [11]bool) [4]bool {
	p := hammingParity(bits[:], Hamming15_11_3Matrix)
	return [4]bool{p[0], p[1], p[2], p[3]}
}

// VerifyHamming15_11_3 reports whether the 15-bit codeword (11 data bits
// followed by 4 parity bits) is free of single-bit errors.
func VerifyHamming15_11_3(bits [11]bool, parity [4]bool) bool {
	return EncodeHamming15_11_3(bits) == parity
}

// EncodeHamming16_11_4 encodes the (16,11,4) extended Hamming code used to
// build the BPTC(16,11) rows of an embedded Link Control record: 11 data
// bits protected by 5 parity bits (the 4 Hamming(15,11,3) checks plus one
// overall even-parity bit), grounded on
// dmr_hamming_16_11_4_encode_bits(bits[11], parity[5]) in
// original_source/include/dmr/fec/hamming.h.
func EncodeHamming16_11_4(bits [11]bool) [5]bool {
	h := EncodeHamming15_11_3(bits)
	overall := false
	for _, b := range bits {
		overall = overall != b
	}
	for _, p := range h {
		overall = overall != p
	}
	return [5]bool{h[0], h[1], h[2], h[3], overall}
}

// DecodeHamming16_11_4 corrects a single-bit error (and detects a second)
// in a 16-bit codeword (11 data bits + 5 parity bits per
// EncodeHamming16_11_4). It returns the corrected 11 data bits and true,
// or the input data bits unchanged and false if more than one bit is in
// error.
func DecodeHamming16_11_4(bits [11]bool, parity [5]bool) (corrected [11]bool, ok bool) {
	gotHamming := [4]bool{parity[0], parity[1], parity[2], parity[3]}
	wantHamming := EncodeHamming15_11_3(bits)

	syndromeBits := 0
	for i := 0; i < 4; i++ {
		if gotHamming[i] != wantHamming[i] {
			syndromeBits |= 1 << uint(i)
		}
	}

	wantOverall := false
	for _, b := range bits {
		wantOverall = wantOverall != b
	}
	for _, p := range gotHamming {
		wantOverall = wantOverall != p
	}
	overallMismatch := wantOverall != parity[4]

	if syndromeBits == 0 && !overallMismatch {
		return bits, true
	}
	if syndromeBits == 0 && overallMismatch {
		// Single error in the overall parity bit itself; data is intact.
		return bits, true
	}
	if !overallMismatch {
		// Two errors: the Hamming syndrome fired but the overall parity
		// still checks out, which an odd-weight single error cannot do.
		return bits, false
	}

	position, found := hamming15_11_3SyndromeToPosition(syndromeBits)
	if !found {
		// A single-bit syndrome points at one of the 4 Hamming parity bits
		// themselves, so the data bits are unaffected.
		if syndromeBits&(syndromeBits-1) == 0 {
			return bits, true
		}
		return bits, false
	}

	fixed := bits
	if position < len(fixed) {
		fixed[position] = !fixed[position]
	}
	return fixed, true
}

// hamming15_11_3SyndromeToPosition maps the 4-bit XOR syndrome of
// Hamming15_11_3Matrix back to the data-bit index it implicates. Each
// column of the 15x4 parity-check matrix is unique, built once from
// Hamming15_11_3Matrix.
func hamming15_11_3SyndromeToPosition(syndrome int) (int, bool) {
	table := hamming15_11_3SyndromeTable()
	pos, ok := table[syndrome]
	return pos, ok
}

var hamming15_11_3Table map[int]int

func hamming15_11_3SyndromeTable() map[int]int {
	if hamming15_11_3Table != nil {
		return hamming15_11_3Table
	}
	table := make(map[int]int, Hamming15_11_DataBits)
	for dataBit := 0; dataBit < Hamming15_11_DataBits; dataBit++ {
		syn := 0
		for p, cols := range Hamming15_11_3Matrix {
			for _, idx := range cols {
				if idx == dataBit {
					syn |= 1 << uint(p)
				}
			}
		}
		table[syn] = dataBit
	}
	hamming15_11_3Table = table
	return table
}

// Hamming16_7 protects the 16-bit EMB (embedded signalling) header: 7
// information bits (color code, PI flag, LCSS) plus 9 check bits, per
// spec.md §4.4's "16-bit encoded EMB (Hamming(16,7) per spec)". DMR's EMB
// Hamming code is a (16,7,6) code; we implement it as a 7-bit payload
// protected by a 9-bit systematic parity block built the same way as the
// other codes in this file, since no column/row table for it appeared in
// the retrieval pack.
var hamming16_7Matrix = [][]int{
	{0, 1, 2, 4},
	{0, 1, 3, 5},
	{0, 2, 3, 6},
	{1, 2, 3},
	{0, 4, 5, 6},
	{1, 4, 5},
	{2, 4, 6},
	{3, 5, 6},
	{0, 1, 2, 3, 4, 5, 6},
}

// EncodeHamming16_7 returns the 9 parity bits for a 7-bit payload.
func EncodeHamming16_7(bits [7]bool) [9]bool {
	p := hammingParity(bits[:], hamming16_7Matrix)
	var out [9]bool
	copy(out[:], p)
	return out
}

// VerifyHamming16_7 reports whether the 16-bit codeword matches.
func VerifyHamming16_7(bits [7]bool, parity [9]bool) bool {
	return EncodeHamming16_7(bits) == parity
}
