// Package compress implements CDF's whole-file and per-block
// decompression algorithms as a registry keyed by the on-disk cType
// byte, mirroring the teacher's codec-ID dispatch table in
// lib/format/chd/codec.go's decompressHunk.
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Type is a CDF compression type code, read from a CPR's cType field.
type Type uint32

// Compression type codes per the CDF Internal Format Description.
const (
	TypeNone  Type = 0
	TypeRLE   Type = 1
	TypeHuff  Type = 2
	TypeAHuff Type = 3
	TypeGZIP  Type = 5

	// TypeZstd is not part of the published CDF format; it is a vendor
	// extension slot this module recognizes so the registry has
	// somewhere to exercise github.com/klauspost/compress/zstd, the way
	// CHD's own codec table (lib/format/chd/codec.go) keeps an open set
	// of codec IDs beyond the ones any single file uses.
	TypeZstd Type = 101
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "NONE"
	case TypeRLE:
		return "RLE"
	case TypeHuff:
		return "HUFF"
	case TypeAHuff:
		return "AHUFF"
	case TypeGZIP:
		return "GZIP"
	case TypeZstd:
		return "ZSTD"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(t))
	}
}

// Uncompress decompresses data read from r using the algorithm
// identified by t, producing outputSize bytes of uncompressed data (NONE,
// GZIP and ZSTD return fewer when the input holds less) and returning
// them as an io.Reader so callers can keep treating
// decompression as a stream transform (spec.md §4.2: "InputStream →
// InputStream").
func Uncompress(t Type, r io.Reader, outputSize int) (io.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read compressed input (type %s): %w", t, err)
	}

	switch t {
	case TypeNone:
		out := make([]byte, outputSize)
		n := copy(out, data)
		return bytes.NewReader(out[:n]), nil

	case TypeRLE:
		out, err := decodeRLE(data, outputSize)
		if err != nil {
			return nil, fmt.Errorf("rle decompress: %w", err)
		}
		return bytes.NewReader(out), nil

	case TypeHuff:
		out, err := decodeStatic(data, outputSize)
		if err != nil {
			return nil, fmt.Errorf("huffman decompress: %w", err)
		}
		return bytes.NewReader(out), nil

	case TypeAHuff:
		out, err := decodeAdaptive(data, outputSize)
		if err != nil {
			return nil, fmt.Errorf("adaptive huffman decompress: %w", err)
		}
		return bytes.NewReader(out), nil

	case TypeGZIP:
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip header: %w", err)
		}
		defer gr.Close()
		out := make([]byte, outputSize)
		n, err := io.ReadFull(gr, out)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		return bytes.NewReader(out[:n]), nil

	case TypeZstd:
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd header: %w", err)
		}
		defer dec.Close()
		out := make([]byte, outputSize)
		n, err := io.ReadFull(dec, out)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return bytes.NewReader(out[:n]), nil

	default:
		return nil, fmt.Errorf("unknown compression type: %d", uint32(t))
	}
}

// Padded composes a decompressed stream with n leading zero bytes, then
// forwards to inner. CDF's whole-file-compressed variants compute every
// internal offset as if the 8-byte magic header were still present even
// though the decompressed stream doesn't contain it; Padded(8, decoded)
// reconciles that by making offset 8 in the logical view line up with
// offset 0 of the real decompressed payload (spec.md §3 invariants,
// §4.2, §4.8 step 4).
type Padded struct {
	n       int
	inner   io.Reader
	emitted int
}

// NewPadded returns an io.Reader that emits n zero bytes before
// forwarding reads to inner.
func NewPadded(n int, inner io.Reader) *Padded {
	return &Padded{n: n, inner: inner}
}

func (p *Padded) Read(out []byte) (int, error) {
	if p.emitted < p.n {
		toZero := p.n - p.emitted
		if toZero > len(out) {
			toZero = len(out)
		}
		for i := range toZero {
			out[i] = 0
		}
		p.emitted += toZero
		if toZero == len(out) {
			return toZero, nil
		}
		n, err := p.inner.Read(out[toZero:])
		return toZero + n, err
	}
	return p.inner.Read(out)
}
