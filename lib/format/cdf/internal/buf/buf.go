// Package buf provides a random-access typed byte view over a CDF file
// or an in-memory decompressed region, parameterised by the offset width
// and numeric byte order a given CDF variant declares.
package buf

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/scigolib/cdf/internal/util"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
)

// Buf is a random-access byte view with mutable offset-width and
// byte-order configuration. Configuration is written exactly twice
// during cdf.Open (once for the variant's offset width, once for
// the CDR's declared encoding) and must not change afterwards; see
// spec.md §5.
type Buf struct {
	src  io.ReaderAt
	size int64

	// offset64 selects 8-byte (true) vs 4-byte (false) file offsets.
	offset64 bool
	// order is the numeric byte order for every scalar read except the
	// magic words, which are always big-endian regardless of order.
	order binary.ByteOrder
}

// New wraps r (exposing size bytes) in a Buf. The initial configuration
// is 32-bit offsets and big-endian order, matching the state needed to
// read the magic header and CDR before the variant and encoding are
// known.
func New(r io.ReaderAt, size int64) *Buf {
	return &Buf{src: r, size: size, offset64: false, order: binary.BigEndian}
}

// Size returns the logical size of the underlying view in bytes.
func (b *Buf) Size() int64 { return b.size }

// SetOffset64 configures whether file offsets are read as 8 bytes (v3)
// or 4 bytes (pre-v3).
func (b *Buf) SetOffset64(v bool) { b.offset64 = v }

// Offset64 reports the current offset-width configuration.
func (b *Buf) Offset64() bool { return b.offset64 }

// SetByteOrder configures the numeric byte order used for every scalar
// read except magic words. CDF encodings are either pure big-endian
// ("NETWORK") or pure little-endian ("IBMPC" and friends); mixed-endian
// CDF encodings are rejected before this is called (spec.md §1, §4.8).
func (b *Buf) SetByteOrder(order binary.ByteOrder) { b.order = order }

// ByteOrder returns the current numeric byte order.
func (b *Buf) ByteOrder() binary.ByteOrder { return b.order }

func (b *Buf) read(offset int64, p []byte) error {
	if offset < 0 || offset+int64(len(p)) > b.size {
		return cdferr.WrapFormatError(
			"bounds check",
			boundsErr{offset: offset, length: int64(len(p)), size: b.size},
		)
	}
	n, err := b.src.ReadAt(p, offset)
	if err != nil && !(err == io.EOF && n == len(p)) {
		return cdferr.WrapIOError("read at offset", err)
	}
	return nil
}

type boundsErr struct {
	offset, length, size int64
}

func (e boundsErr) Error() string {
	return "read of " + itoa(e.length) + " bytes at offset " + itoa(e.offset) +
		" exceeds buffer size " + itoa(e.size)
}

func itoa(v int64) string {
	// Tiny local formatter so this hot-path error path avoids importing
	// strconv purely for bounds-error messages; matches the teacher's
	// habit (lib/chd/map.go) of hand-rolled bit/byte helpers alongside
	// stdlib use elsewhere.
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var digits [20]byte
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		digits[i] = '-'
	}
	return string(digits[i:])
}

// ReadMagicWord reads a 32-bit big-endian word, ignoring the configured
// byte order. Used only for the two leading magic words before the CDR's
// encoding is known (spec.md §4.1).
func (b *Buf) ReadMagicWord(offset int64) (uint32, error) {
	var tmp [4]byte
	if err := b.read(offset, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

// ReadOffset reads a file offset: 8 bytes if 64-bit offsets are
// configured, 4 bytes otherwise, in the configured byte order.
func (b *Buf) ReadOffset(offset int64) (int64, error) {
	if b.offset64 {
		v, err := b.ReadInt64(offset)
		return v, err
	}
	v, err := b.ReadInt32(offset)
	return int64(v), err
}

// OffsetWidth returns 8 or 4 depending on the configured offset width.
func (b *Buf) OffsetWidth() int64 {
	if b.offset64 {
		return 8
	}
	return 4
}

// ReadInt8 reads a signed 8-bit integer.
func (b *Buf) ReadInt8(offset int64) (int8, error) {
	var tmp [1]byte
	if err := b.read(offset, tmp[:]); err != nil {
		return 0, err
	}
	return int8(tmp[0]), nil
}

// ReadInt16 reads a signed 16-bit integer in the configured byte order.
func (b *Buf) ReadInt16(offset int64) (int16, error) {
	var tmp [2]byte
	if err := b.read(offset, tmp[:]); err != nil {
		return 0, err
	}
	return int16(b.order.Uint16(tmp[:])), nil
}

// ReadInt32 reads a signed 32-bit integer in the configured byte order.
func (b *Buf) ReadInt32(offset int64) (int32, error) {
	var tmp [4]byte
	if err := b.read(offset, tmp[:]); err != nil {
		return 0, err
	}
	return int32(b.order.Uint32(tmp[:])), nil
}

// ReadInt64 reads a signed 64-bit integer in the configured byte order.
func (b *Buf) ReadInt64(offset int64) (int64, error) {
	var tmp [8]byte
	if err := b.read(offset, tmp[:]); err != nil {
		return 0, err
	}
	return int64(b.order.Uint64(tmp[:])), nil
}

// ReadFloat32 reads an IEEE-754 single-precision float in the configured
// byte order.
func (b *Buf) ReadFloat32(offset int64) (float32, error) {
	var tmp [4]byte
	if err := b.read(offset, tmp[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(b.order.Uint32(tmp[:])), nil
}

// ReadFloat64 reads an IEEE-754 double-precision float in the configured
// byte order.
func (b *Buf) ReadFloat64(offset int64) (float64, error) {
	var tmp [8]byte
	if err := b.read(offset, tmp[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(b.order.Uint64(tmp[:])), nil
}

// ReadBytes returns a copy of n raw bytes starting at offset.
func (b *Buf) ReadBytes(offset int64, n int) ([]byte, error) {
	out := make([]byte, n)
	if err := b.read(offset, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadChars decodes a fixed-width, NUL-terminated ASCII field of count
// bytes starting at offset, trimming at the first NUL. Trailing non-NUL
// bytes after a short name (the pre-v2.6 case flagged in spec.md §9) are
// not themselves an error; the field is simply truncated at the
// terminator like every other variant.
func (b *Buf) ReadChars(offset int64, count int) (string, error) {
	raw, err := b.ReadBytes(offset, count)
	if err != nil {
		return "", err
	}
	return util.ExtractASCII(raw), nil
}

// SubReaderAt returns an io.ReaderAt presenting the logical region
// [offset, offset+length) of b as if it started at 0, for handing a
// scoped view to a nested decoder (e.g. a compressed block) without
// copying.
func (b *Buf) SubReaderAt(offset, length int64) io.ReaderAt {
	return &subReaderAt{parent: b.src, base: offset, limit: length}
}

type subReaderAt struct {
	parent io.ReaderAt
	base   int64
	limit  int64
}

func (s *subReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= s.limit {
		return 0, io.EOF
	}
	max := s.limit - off
	if int64(len(p)) > max {
		n, err := s.parent.ReadAt(p[:max], s.base+off)
		if err == nil {
			err = io.EOF
		}
		return n, err
	}
	return s.parent.ReadAt(p, s.base+off)
}

// FromBytes wraps an in-memory byte slice (typically the output of a
// whole-file or per-block decompression pass) as a Buf, inheriting the
// parent's offset-width and byte-order configuration.
func FromBytes(data []byte, offset64 bool, order binary.ByteOrder) *Buf {
	return &Buf{
		src:      &memReaderAt{data: data},
		size:     int64(len(data)),
		offset64: offset64,
		order:    order,
	}
}

type memReaderAt struct{ data []byte }

func (m *memReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
