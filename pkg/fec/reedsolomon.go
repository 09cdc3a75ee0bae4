package fec

// EncodeRS129 computes the 3 six-bit parity symbols for a Reed-Solomon
// (12,9) codeword over GF(64), the FEC DMR's Full Link Control payload
// carries. data holds the 9 information symbols, most significant first.
// Symbols are masked to 6 bits; callers packing/unpacking bytes into
// symbols are responsible for that split.
func EncodeRS129(data [9]byte) (parity [3]byte) {
	// Generator polynomial g(x) = (x - a^0)(x - a^1)(x - a^2), expanded
	// over GF(64). Coefficients are stored highest-degree first,
	// g(x) = x^3 + g2*x^2 + g1*x + g0.
	a0, a1, a2 := gf64Pow(2, 0), gf64Pow(2, 1), gf64Pow(2, 2)
	g0 := gf64Mul(gf64Mul(a0, a1), a2)
	g1 := gf64Mul(a0, a1) ^ gf64Mul(a1, a2) ^ gf64Mul(a0, a2)
	g2 := a0 ^ a1 ^ a2

	// Systematic encode: parity = remainder of data(x)*x^3 divided by
	// g(x), computed via an LFSR-style long division.
	reg := [3]byte{0, 0, 0}
	gen := [3]byte{g2, g1, g0}
	for _, d := range data {
		feedback := d ^ reg[0]
		reg[0] = reg[1] ^ gf64Mul(feedback, gen[0])
		reg[1] = reg[2] ^ gf64Mul(feedback, gen[1])
		reg[2] = gf64Mul(feedback, gen[2])
	}
	return [3]byte{reg[0], reg[1], reg[2]}
}

// DecodeRS129 verifies and, where possible, corrects a single symbol
// error in a 12-symbol Reed-Solomon(12,9) codeword (9 data symbols
// followed by 3 parity symbols, matching EncodeRS129's layout). It
// returns the corrected data symbols and true, or the input data symbols
// unchanged and false if the codeword carries more errors than the code
// can correct.
func DecodeRS129(data [9]byte, parity [3]byte) (corrected [9]byte, ok bool) {
	// Codeword coefficients c_11..c_0, c(x) = data(x)*x^3 + parity(x).
	codeword := make([]byte, 12)
	copy(codeword[0:9], data[:])
	copy(codeword[9:12], parity[:])

	// Evaluate the codeword polynomial at a^0, a^1, a^2 to obtain the
	// three syndromes. codeword[0] is the coefficient of x^11.
	syndromes := make([]byte, 3)
	for j := 0; j < 3; j++ {
		aj := gf64Pow(2, j)
		var s byte
		for i, c := range codeword {
			power := len(codeword) - 1 - i
			s ^= gf64Mul(c, gf64Pow(aj, power))
		}
		syndromes[j] = s
	}

	if syndromes[0] == 0 && syndromes[1] == 0 && syndromes[2] == 0 {
		return data, true
	}

	if syndromes[0] == 0 {
		// Non-zero higher syndromes with a zero S0 cannot come from a
		// single-symbol error; uncorrectable.
		return data, false
	}

	// Single-error-correction: S0 = e, S1 = e*X, S2 = e*X^2 where X is
	// the error locator a^i and e is the error magnitude.
	x := gf64Div(syndromes[1], syndromes[0])
	if gf64Mul(syndromes[1], x) != syndromes[2] {
		return data, false
	}
	errMag := syndromes[0]

	locExp := int(gf64LogTable[x])
	errPos := len(codeword) - 1 - locExp
	if errPos < 0 || errPos >= len(codeword) {
		return data, false
	}

	codeword[errPos] ^= errMag
	copy(corrected[:], codeword[0:9])
	return corrected, true
}
