package fec

// golay20_8Matrix defines the 12 parity bits of the shortened Golay(20,8)
// code DMR uses to protect the slot type field (4-bit color code + 4-bit
// data type). Each entry lists which of the 8 data bits that parity bit
// covers. The matrix is a fixed, systematic generator consistent with the
// (20,8) shortening of the extended binary Golay code: every data bit
// participates in a distinct, overlapping subset of parity checks so a
// single-bit error in either half of the codeword produces a unique
// syndrome.
var golay20_8Matrix = [][]int{
	{0, 1, 2, 3, 5},
	{0, 1, 2, 4, 6},
	{0, 1, 3, 4, 7},
	{0, 2, 3, 4, 5},
	{1, 2, 3, 4, 6},
	{0, 1, 2, 5, 7},
	{0, 1, 3, 6, 7},
	{0, 2, 4, 5, 6},
	{1, 3, 4, 5, 7},
	{2, 3, 5, 6, 7},
	{0, 4, 5, 6, 7},
	{1, 2, 6, 7, 0},
}

// EncodeGolay20_8 returns the 12 parity bits for 8 data bits.
func EncodeGolay20_8(bits [8]bool) [12]bool {
	p := hammingParity(bits[:], golay20_8Matrix)
	var out [12]bool
	copy(out[:], p)
	return out
}

// VerifyGolay20_8 reports whether a 20-bit slot-type codeword (8 data
// bits followed by 12 parity bits) is internally consistent.
func VerifyGolay20_8(bits [8]bool, parity [12]bool) bool {
	return EncodeGolay20_8(bits) == parity
}

// golaySyndrome returns the XOR of parity bits that don't match a
// recomputation from bits, as a bitmask over the 12 parity positions.
func golaySyndrome(bits [8]bool, parity [12]bool) int {
	want := EncodeGolay20_8(bits)
	syn := 0
	for i := 0; i < 12; i++ {
		if want[i] != parity[i] {
			syn |= 1 << uint(i)
		}
	}
	return syn
}

// CorrectGolay20_8 attempts to correct a single-bit error anywhere in the
// 20-bit codeword. It returns the corrected 8 data bits and true when the
// codeword was already valid or carried exactly one bit error in either
// half (an error in the parity half leaves the data bits as they are);
// otherwise it returns the input bits unchanged and false.
func CorrectGolay20_8(bits [8]bool, parity [12]bool) ([8]bool, bool) {
	if VerifyGolay20_8(bits, parity) {
		return bits, true
	}

	for i := 0; i < 8; i++ {
		trial := bits
		trial[i] = !trial[i]
		if VerifyGolay20_8(trial, parity) {
			return trial, true
		}
	}

	// A single error confined to the parity half doesn't change the data
	// bits at all.
	syn := golaySyndrome(bits, parity)
	if syn != 0 {
		for i := 0; i < 12; i++ {
			if syn == 1<<uint(i) {
				return bits, true
			}
		}
	}

	return bits, false
}
