package fec

import "testing"

func TestReedSolomon129RoundTrip(t *testing.T) {
	data := [9]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	parity := EncodeRS129(data)

	got, ok := DecodeRS129(data, parity)
	if !ok {
		t.Fatal("expected clean codeword to verify")
	}
	if got != data {
		t.Fatalf("expected %v, got %v", data, got)
	}
}

func TestReedSolomon129CorrectsSingleSymbolError(t *testing.T) {
	data := [9]byte{10, 20, 30, 5, 15, 25, 1, 2, 3}
	parity := EncodeRS129(data)

	corrupted := data
	corrupted[3] ^= 0x15

	got, ok := DecodeRS129(corrupted, parity)
	if !ok {
		t.Fatal("expected single symbol error to be corrected")
	}
	if got != data {
		t.Fatalf("expected corrected %v, got %v", data, got)
	}
}

func TestHamming16_11_4RoundTrip(t *testing.T) {
	bits := [11]bool{true, false, true, true, false, false, true, false, true, false, true}
	parity := EncodeHamming16_11_4(bits)

	got, ok := DecodeHamming16_11_4(bits, parity)
	if !ok || got != bits {
		t.Fatalf("expected clean round trip, got %v ok=%v", got, ok)
	}
}

func TestHamming16_11_4CorrectsSingleBitError(t *testing.T) {
	bits := [11]bool{true, false, true, true, false, false, true, false, true, false, true}
	parity := EncodeHamming16_11_4(bits)

	for i := 0; i < 11; i++ {
		corrupted := bits
		corrupted[i] = !corrupted[i]
		got, ok := DecodeHamming16_11_4(corrupted, parity)
		if !ok {
			t.Fatalf("bit %d: expected correction", i)
		}
		if got != bits {
			t.Fatalf("bit %d: expected %v, got %v", i, bits, got)
		}
	}
}

func TestGolay20_8RoundTrip(t *testing.T) {
	bits := [8]bool{true, false, false, true, true, false, true, false}
	parity := EncodeGolay20_8(bits)

	if !VerifyGolay20_8(bits, parity) {
		t.Fatal("expected clean codeword to verify")
	}

	corrupted := bits
	corrupted[2] = !corrupted[2]
	got, ok := CorrectGolay20_8(corrupted, parity)
	if !ok || got != bits {
		t.Fatalf("expected corrected %v, got %v ok=%v", bits, got, ok)
	}
}

func TestBPTC16_11RoundTrip(t *testing.T) {
	var info [BPTCInfoBits]bool
	for i := range info {
		info[i] = i%3 == 0
	}

	rec := EncodeBPTC16_11(info)
	got, ok := DecodeBPTC16_11(rec)
	if !ok {
		t.Fatal("expected clean record to decode")
	}
	if got != info {
		t.Fatal("decoded info does not match original")
	}
}

func TestBPTC16_11CorrectsTwoScatteredBitErrors(t *testing.T) {
	var info [BPTCInfoBits]bool
	for i := range info {
		info[i] = i%2 == 0
	}

	rec := EncodeBPTC16_11(info)
	// Flip one bit in two different rows; each row's Hamming(16,11,4)
	// code independently corrects its own single-bit error.
	rec[1][3] = !rec[1][3]
	rec[4][9] = !rec[4][9]

	got, ok := DecodeBPTC16_11(rec)
	if !ok {
		t.Fatal("expected scattered double-bit error to be corrected")
	}
	if got != info {
		t.Fatal("decoded info does not match original after correction")
	}
}

func TestBPTCFragment(t *testing.T) {
	var info [BPTCInfoBits]bool
	rec := EncodeBPTC16_11(info)

	if _, ok := rec.Fragment(-1); ok {
		t.Fatal("expected out-of-range fragment to fail")
	}
	if _, ok := rec.Fragment(4); ok {
		t.Fatal("expected out-of-range fragment to fail")
	}
	for k := 0; k < 4; k++ {
		if _, ok := rec.Fragment(k); !ok {
			t.Fatalf("expected fragment %d to succeed", k)
		}
	}
}

func TestCRC8Masks(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	crc := CRC8(data, CRC8MaskVoiceLC)
	if !VerifyCRC8(data, CRC8MaskVoiceLC, crc) {
		t.Fatal("expected matching CRC to verify")
	}
	if VerifyCRC8(data, CRC8MaskTerminatorWithLC, crc) {
		t.Fatal("expected mismatched mask to fail verification")
	}
}

func TestCRC16Deterministic(t *testing.T) {
	data := []byte("dmr-repeater")
	if CRC16(data) != CRC16(data) {
		t.Fatal("expected deterministic CRC16")
	}
}

func TestCRC32Deterministic(t *testing.T) {
	data := []byte("dmr-repeater")
	if CRC32(data) != CRC32(data) {
		t.Fatal("expected deterministic CRC32")
	}
}
