package box

import (
	"fmt"

	"github.com/yapingcat/gomedia/go-codec"
	"m7s.live/isobmff/pkg/util"
)

type rawField struct {
	key   string
	value any
}

// fieldReader is the cursor handed to a decoder. It collects fields in the
// order they are set. After the first short read every read returns a zero
// value and set is a no-op, so the decoder output stops at the last field
// that was fully present.
type fieldReader struct {
	*util.Cursor
	fields []rawField
	err    error
}

type decodeFunc func(r *fieldReader) error

func newFieldReader(content []byte) *fieldReader {
	return &fieldReader{Cursor: util.NewCursor(content)}
}

func (r *fieldReader) short() bool {
	return r.err != nil
}

func (r *fieldReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *fieldReader) set(key string, value any) {
	if r.err == nil {
		r.fields = append(r.fields, rawField{key, value})
	}
}

// keep records a table even after a short read, holding the rows that were
// complete. A table cut before its first row is dropped like any other field.
func (r *fieldReader) keep(key string, value any, rows int) {
	if rows > 0 || r.err == nil {
		r.fields = append(r.fields, rawField{key, value})
	}
}

func (r *fieldReader) u(n int) uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.ReadUint(n)
	if err != nil {
		r.fail(err)
	}
	return v
}

// i reads an n-byte two's complement integer.
func (r *fieldReader) i(n int) int64 {
	shift := 64 - 8*n
	return int64(r.u(n)<<shift) >> shift
}

func (r *fieldReader) ascii(n int) string {
	if r.err != nil {
		return ""
	}
	s, err := r.ReadASCII(n)
	if err != nil {
		r.fail(err)
	}
	return s
}

func (r *fieldReader) hex(n int) string {
	if r.err != nil {
		return ""
	}
	s, err := r.ReadHex(n)
	if err != nil {
		r.fail(err)
	}
	return s
}

func (r *fieldReader) cstring() string {
	if r.err != nil {
		return ""
	}
	return r.ReadCString()
}

func (r *fieldReader) skip(n int) {
	if r.err == nil {
		if err := r.Skip(n); err != nil {
			r.fail(err)
		}
	}
}

// bits reads n bytes for bit-level decoding. On a short read the stream is
// backed by zeros so callers never index past it.
func (r *fieldReader) bits(n int) *codec.BitStream {
	if r.err == nil {
		if b, err := r.ReadBytes(n); err == nil {
			return codec.NewBitStream(b)
		} else {
			r.fail(err)
		}
	}
	return codec.NewBitStream(make([]byte, n))
}

func (r *fieldReader) num(key string, n int) uint64 {
	v := r.u(n)
	r.set(key, v)
	return v
}

func (r *fieldReader) snum(key string, n int) int64 {
	v := r.i(n)
	r.set(key, v)
	return v
}

func (r *fieldReader) str(key string, n int) string {
	v := r.ascii(n)
	r.set(key, v)
	return v
}

func (r *fieldReader) uints(key string, n int, count uint64) []uint64 {
	if r.short() {
		return nil
	}
	v := make([]uint64, 0, r.count(count, n))
	for i := uint64(0); i < count; i++ {
		x := r.u(n)
		if r.short() {
			break
		}
		v = append(v, x)
	}
	r.keep(key, v, len(v))
	return v
}

// fixed reads an unsigned n-byte fixed-point number with frac fractional bits.
func (r *fieldReader) fixed(key string, n int, frac uint) float64 {
	v := float64(r.u(n)) / float64(uint64(1)<<frac)
	r.set(key, v)
	return v
}

func (r *fieldReader) sfixed(key string, n int, frac uint) float64 {
	v := float64(r.i(n)) / float64(uint64(1)<<frac)
	r.set(key, v)
	return v
}

// fullBox reads the version and flags of a FullBox and rejects versions above maxVersion.
//
//	aligned(8) class FullBox(unsigned int(32) boxtype, unsigned int(8) v, bit(24) f) extends Box(boxtype) {
//	    unsigned int(8) version = v;
//	    bit(24) flags = f;
//	}
func (r *fieldReader) fullBox(maxVersion uint8, names ...flagName) (version uint8, flags uint32, err error) {
	version = uint8(r.u(1))
	r.set("version", uint64(version))
	if version > maxVersion {
		return version, 0, fmt.Errorf("%w %d", ErrInvalidVersion, version)
	}
	flags = uint32(r.u(3))
	if len(names) == 0 {
		r.set("flags", uint64(flags))
	} else {
		m := make(map[string]bool, len(names))
		for _, n := range names {
			m[n.name] = flags&n.mask != 0
		}
		r.set("flags", m)
	}
	return
}

type flagName struct {
	mask uint32
	name string
}

// count caps a count read from the data by how many entries of size entry
// bytes can still fit, for preallocation.
func (r *fieldReader) count(n uint64, entry int) int {
	if entry <= 0 {
		return 0
	}
	return int(min(n, uint64(r.Remaining()/entry)))
}
