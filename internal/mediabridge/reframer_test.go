package mediabridge

import (
	"bytes"
	"testing"
)

func nal(startCode []byte, payload ...byte) []byte {
	return append(append([]byte(nil), startCode...), payload...)
}

var (
	sc3 = []byte{0x00, 0x00, 0x01}
	sc4 = []byte{0x00, 0x00, 0x00, 0x01}
)

// Scenario 4 from spec §8: two AUDs, each followed by one other NAL,
// must emit exactly two access units, each starting with its AUD.
func TestReframerScenario4(t *testing.T) {
	input := bytes.Join([][]byte{
		nal(sc4, 0x09, 0x10), // AUD
		nal(sc4, 0x67, 0x42), // SPS-like
		nal(sc3, 0x09, 0x10), // AUD
		nal(sc3, 0x65, 0x88), // IDR-like
	}, nil)

	var samples [][]byte
	r := NewReframer(func(s []byte) { samples = append(samples, append([]byte(nil), s...)) })
	r.Write(input)
	r.Flush()

	if len(samples) != 2 {
		t.Fatalf("expected 2 access units, got %d: %#v", len(samples), samples)
	}
	want0 := bytes.Join([][]byte{nal(sc4, 0x09, 0x10), nal(sc4, 0x67, 0x42)}, nil)
	want1 := bytes.Join([][]byte{nal(sc3, 0x09, 0x10), nal(sc3, 0x65, 0x88)}, nil)
	if !bytes.Equal(samples[0], want0) {
		t.Fatalf("sample 0 = %x, want %x", samples[0], want0)
	}
	if !bytes.Equal(samples[1], want1) {
		t.Fatalf("sample 1 = %x, want %x", samples[1], want1)
	}
}

// Concatenating every emitted access unit must equal the subsequence
// of the input starting at the first start code (prologue discarded).
func TestReframerConcatEqualsInputFromFirstStartCode(t *testing.T) {
	prologue := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	body := bytes.Join([][]byte{
		nal(sc4, 0x09, 0x10),
		nal(sc4, 0x67, 0x42, 0x00, 0x01),
		nal(sc4, 0x09, 0x10),
		nal(sc4, 0x65, 0x88, 0x99),
	}, nil)
	input := append(append([]byte(nil), prologue...), body...)

	var got []byte
	r := NewReframer(func(s []byte) { got = append(got, s...) })
	r.Write(input)
	r.Flush()

	if !bytes.Equal(got, body) {
		t.Fatalf("concatenated samples = %x, want %x (prologue must be discarded)", got, body)
	}
}

// Every emitted access unit after the first begins with an AUD NAL;
// no access unit contains two AUDs.
func TestReframerAccessUnitsBeginWithAUDAfterFirst(t *testing.T) {
	input := bytes.Join([][]byte{
		nal(sc4, 0x67, 0x42), // non-AUD prologue inside the first AU
		nal(sc4, 0x09, 0x10), // AUD #1
		nal(sc4, 0x41, 0x01),
		nal(sc4, 0x09, 0x10), // AUD #2
		nal(sc4, 0x41, 0x02),
		nal(sc4, 0x09, 0x10), // AUD #3
		nal(sc4, 0x41, 0x03),
	}, nil)

	var samples [][]byte
	r := NewReframer(func(s []byte) { samples = append(samples, append([]byte(nil), s...)) })
	r.Write(input)
	r.Flush()

	if len(samples) < 2 {
		t.Fatalf("expected at least 2 access units, got %d", len(samples))
	}
	for i, s := range samples[1:] {
		typ, ok := nalType(s)
		if !ok || typ != nalTypeAUD {
			t.Fatalf("access unit %d does not start with an AUD: %x", i+1, s)
		}
		audCount := bytes.Count(s, sc4) // number of NAL units (every NAL here uses a 4-byte start code)
		if audCount > 1 {
			// Check the type of every NAL after the leading AUD; any
			// further AUD means the unit spans two AUDs.
			for j := 4; j+4 <= len(s); j++ {
				if bytes.Equal(s[j:j+4], sc4) {
					t2, ok2 := nalType(s[j:])
					if ok2 && t2 == nalTypeAUD {
						t.Fatalf("access unit %d contains a second AUD: %x", i+1, s)
					}
				}
			}
		}
	}
}

func TestReframerFlushEmitsTrailingPartialAccessUnit(t *testing.T) {
	input := bytes.Join([][]byte{
		nal(sc4, 0x09, 0x10),
		nal(sc4, 0x67, 0x42),
	}, nil)

	var samples [][]byte
	r := NewReframer(func(s []byte) { samples = append(samples, append([]byte(nil), s...)) })
	r.Write(input)
	if len(samples) != 0 {
		t.Fatalf("no AUD boundary closed yet, expected 0 emitted samples before flush, got %d", len(samples))
	}
	r.Flush()
	if len(samples) != 1 {
		t.Fatalf("expected flush to emit the trailing access unit, got %d", len(samples))
	}
}

func TestReframerChunkedAcrossReadsSameAsOneShot(t *testing.T) {
	input := bytes.Join([][]byte{
		nal(sc4, 0x09, 0x10),
		nal(sc4, 0x67, 0x42, 0x01, 0x02, 0x03),
		nal(sc4, 0x09, 0x10),
		nal(sc4, 0x65, 0x88),
	}, nil)

	var oneShot [][]byte
	r1 := NewReframer(func(s []byte) { oneShot = append(oneShot, append([]byte(nil), s...)) })
	r1.Write(input)
	r1.Flush()

	var chunked [][]byte
	r2 := NewReframer(func(s []byte) { chunked = append(chunked, append([]byte(nil), s...)) })
	for i := 0; i < len(input); i++ {
		r2.Write(input[i : i+1])
	}
	r2.Flush()

	if len(oneShot) != len(chunked) {
		t.Fatalf("byte-at-a-time feed produced %d samples, one-shot produced %d", len(chunked), len(oneShot))
	}
	for i := range oneShot {
		if !bytes.Equal(oneShot[i], chunked[i]) {
			t.Fatalf("sample %d differs between feeds: %x vs %x", i, oneShot[i], chunked[i])
		}
	}
}

func TestFindStartCodeIgnoresTrailingPartialStartCode(t *testing.T) {
	// A start code whose bytes only fully land in the last 3 bytes of
	// the buffer must not be reported yet (spec §9 open question).
	buf := []byte{0x01, 0x02, 0x00, 0x00, 0x01}
	if idx := findStartCode(buf, 0); idx != -1 {
		t.Fatalf("expected -1 for a start code confined to the final 3 bytes, got %d", idx)
	}
}
