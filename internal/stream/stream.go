// Package stream implements the binary checkpoint format: a big-endian
// image of the run configuration, node catalog, run counters, and every
// individual in the population, closed by a terminator word. The format
// carries no random generator state, so a restored run continues with
// whatever generator the host supplies.
package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
)

// Tag identifies the type of the next element in a stream.
type Tag byte

const (
	TagNil        Tag = 0
	TagNode       Tag = 3
	TagNodeSet    Tag = 4
	TagBranchSet  Tag = 5
	TagConfig     Tag = 6
	TagGene       Tag = 7
	TagIndividual Tag = 8
	TagPopulation Tag = 9
)

// endMarker closes every checkpoint so a truncated file is detectable.
const endMarker uint32 = 0x87654321

var (
	ErrConfigMismatch  = errors.New("checkpoint configuration mismatch")
	ErrCatalogMismatch = errors.New("checkpoint node catalog mismatch")
	ErrUnknownTag      = errors.New("unknown stream tag")
	ErrCorruptStream   = errors.New("corrupt checkpoint stream")
)

// writer wraps an io.Writer with big-endian primitives and a sticky error,
// so a long field sequence can be written without per-call checks.
type writer struct {
	w   *bufio.Writer
	err error
	buf [8]byte
}

func newWriter(w io.Writer) *writer {
	return &writer{w: bufio.NewWriter(w)}
}

func (w *writer) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *writer) tag(t Tag) { w.byte(byte(t)) }

func (w *writer) byte(b byte) {
	w.buf[0] = b
	w.write(w.buf[:1])
}

func (w *writer) i32(v int32) { w.u32(uint32(v)) }

func (w *writer) u32(v uint32) {
	w.buf[0] = byte(v >> 24)
	w.buf[1] = byte(v >> 16)
	w.buf[2] = byte(v >> 8)
	w.buf[3] = byte(v)
	w.write(w.buf[:4])
}

func (w *writer) f64(v float64) {
	u := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		w.buf[i] = byte(u >> (56 - 8*i))
	}
	w.write(w.buf[:8])
}

func (w *writer) bool(v bool) {
	if v {
		w.byte(1)
	} else {
		w.byte(0)
	}
}

// str writes a uint16 byte length followed by UTF-8 bytes.
func (w *writer) str(s string) {
	if len(s) > math.MaxUint16 {
		if w.err == nil {
			w.err = fmt.Errorf("string too long for stream: %d bytes", len(s))
		}
		return
	}
	w.buf[0] = byte(len(s) >> 8)
	w.buf[1] = byte(len(s))
	w.write(w.buf[:2])
	w.write([]byte(s))
}

func (w *writer) flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// reader mirrors writer: big-endian primitives with a sticky error. All
// value methods return the zero value once an error is recorded.
type reader struct {
	r   *bufio.Reader
	err error
	buf [8]byte
}

func newReader(r io.Reader) *reader {
	return &reader{r: bufio.NewReader(r)}
}

func (r *reader) read(n int) []byte {
	if r.err != nil {
		return r.buf[:n]
	}
	_, r.err = io.ReadFull(r.r, r.buf[:n])
	return r.buf[:n]
}

func (r *reader) tag() Tag { return Tag(r.byte()) }

func (r *reader) byte() byte { return r.read(1)[0] }

func (r *reader) i32() int32 { return int32(r.u32()) }

func (r *reader) u32() uint32 {
	b := r.read(4)
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func (r *reader) f64() float64 {
	b := r.read(8)
	var u uint64
	for i := 0; i < 8; i++ {
		u = u<<8 | uint64(b[i])
	}
	return math.Float64frombits(u)
}

func (r *reader) bool() bool { return r.byte() != 0 }

func (r *reader) str() string {
	b := r.read(2)
	n := int(b[0])<<8 | int(b[1])
	if r.err != nil || n == 0 {
		return ""
	}
	s := make([]byte, n)
	_, r.err = io.ReadFull(r.r, s)
	if r.err != nil {
		return ""
	}
	return string(s)
}

// expect consumes one tag and fails unless it matches.
func (r *reader) expect(t Tag) {
	got := r.tag()
	if r.err == nil && got != t {
		r.err = fmt.Errorf("%w: read tag %d, want %d", ErrCorruptStream, got, t)
	}
}
