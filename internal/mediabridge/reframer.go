package mediabridge

// This file is the pure byte-stream transform described in spec §4.4:
// turning a continuous Annex-B H.264 stream into access units, each
// starting with an Access Unit Delimiter (NAL type 9) once one has
// been seen. It has no dependency on pion, exec, or I/O — it is the
// unit-test anchor for the whole bridge (spec §8).

const (
	nalTypeAUD  = 9
	readChunk   = 8 * 1024 // spec §9: pump back-pressure, bounded read size
	minStartLen = 4
)

// findStartCode returns the index of the first Annex-B start code
// (00 00 01 or 00 00 00 01) at or after from, or -1 if none is found.
//
// Ground-truth behavior from original_source: a start code that would
// only be fully visible in the final 3 bytes of the buffer is not
// reported — this is intentional partial-chunk safety. More bytes
// arriving on the next read (or the EOF flush) is what surfaces it.
// The loop bound below reproduces that exactly.
func findStartCode(buf []byte, from int) int {
	if len(buf) < minStartLen || from >= len(buf)-3 {
		return -1
	}
	for i := from; i+3 < len(buf); i++ {
		if buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 1 {
			return i
		}
		if i+4 < len(buf) && buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 0 && buf[i+3] == 1 {
			return i
		}
	}
	return -1
}

// nalType returns the NAL unit type (low 5 bits of the byte following
// the start code) of a NAL unit slice that begins with a start code.
func nalType(nalUnit []byte) (byte, bool) {
	var startLen int
	switch {
	case len(nalUnit) >= 4 && nalUnit[0] == 0 && nalUnit[1] == 0 && nalUnit[2] == 0 && nalUnit[3] == 1:
		startLen = 4
	case len(nalUnit) >= 3 && nalUnit[0] == 0 && nalUnit[1] == 0 && nalUnit[2] == 1:
		startLen = 3
	default:
		return 0, false
	}
	if startLen >= len(nalUnit) {
		return 0, false
	}
	return nalUnit[startLen] & 0x1F, true
}

// popNALUnit removes and returns the first complete NAL unit from buf
// (bytes from the first start code up to, but not including, the
// second), discarding any prologue bytes before the first start code.
// Returns false if a full NAL unit isn't yet available.
func popNALUnit(buf *[]byte) ([]byte, bool) {
	b := *buf
	first := findStartCode(b, 0)
	if first < 0 {
		return nil, false
	}
	second := findStartCode(b, first+3)
	if second < 0 {
		return nil, false
	}
	if first > 0 {
		b = b[first:]
		second -= first
	}
	nal := make([]byte, second)
	copy(nal, b[:second])
	*buf = append([]byte(nil), b[second:]...)
	return nal, true
}

// Reframer accumulates Annex-B bytes and emits access units through
// Emit as soon as an AUD arrives while the current unit is non-empty. It is
// single-producer, single-consumer: Write must be called from one
// goroutine at a time (the pump loop owns it exclusively).
type Reframer struct {
	buffer     []byte
	accessUnit []byte
	Emit       func(sample []byte)
}

func NewReframer(emit func(sample []byte)) *Reframer {
	return &Reframer{Emit: emit}
}

// Write appends a chunk read from the encoder's stdout and extracts as
// many complete access units as are now available.
func (r *Reframer) Write(chunk []byte) {
	r.buffer = append(r.buffer, chunk...)
	for {
		nal, ok := popNALUnit(&r.buffer)
		if !ok {
			return
		}
		if t, isNal := nalType(nal); isNal && t == nalTypeAUD && len(r.accessUnit) > 0 {
			r.Emit(r.accessUnit)
			r.accessUnit = nil
		}
		r.accessUnit = append(r.accessUnit, nal...)
	}
}

// Flush emits whatever partial access unit remains after EOF, including
// the final NAL unit still held in the buffer (it has no following
// start code to close it out).
func (r *Reframer) Flush() {
	if first := findStartCode(r.buffer, 0); first >= 0 {
		nal := r.buffer[first:]
		if t, isNal := nalType(nal); isNal && t == nalTypeAUD && len(r.accessUnit) > 0 {
			r.Emit(r.accessUnit)
			r.accessUnit = nil
		}
		r.accessUnit = append(r.accessUnit, nal...)
	}
	r.buffer = nil
	if len(r.accessUnit) > 0 {
		r.Emit(r.accessUnit)
		r.accessUnit = nil
	}
}
