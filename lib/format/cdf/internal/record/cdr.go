package record

import (
	"fmt"

	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
)

// CDR flag bits (spec.md §3).
const (
	CDRFlagRowMajor    = 1 << 0
	CDRFlagSingleFile  = 1 << 1
	CDRFlagHasChecksum = 1 << 2
)

const copyrightFieldSize = 256

// CDR is the CDF Descriptor Record: the file's root record, reached
// immediately after the magic header (or after the whole-file
// decompression prelude).
type CDR struct {
	GDROffset int64
	Version   int32
	Release   int32
	Encoding  Encoding
	Flags     int32
	Increment int32
	Copyright string
}

// RowMajor reports whether the file stores array elements in row-major
// order (CDR flag bit 0).
func (c *CDR) RowMajor() bool { return c.Flags&CDRFlagRowMajor != 0 }

// SingleFile reports whether this is a single-file CDF (CDR flag bit 1).
// Multi-file CDFs are rejected by the reader (spec.md §1, §8 scenario 6).
func (c *CDR) SingleFile() bool { return c.Flags&CDRFlagSingleFile != 0 }

// HasChecksum reports whether the file carries a checksum (CDR flag
// bit 2). The core does not verify checksums; this is exposed for
// completeness only.
func (c *CDR) HasChecksum() bool { return c.Flags&CDRFlagHasChecksum != 0 }

// ReadCDR parses a CDR at offset. b must already be configured with the
// variant's offset width; byte order is still big-endian at this point
// (the CDR itself is what declares the encoding).
func (f *Factory) ReadCDR(b *buf.Buf, offset int64) (*CDR, error) {
	h, err := f.readHeader(b, offset, TagCDR, "CDR")
	if err != nil {
		return nil, err
	}

	cur := h.bodyOffset
	gdrOffset, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CDR: gdrOffset", err)
	}
	cur += b.OffsetWidth()

	version, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CDR: version", err)
	}
	cur += 4

	release, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CDR: release", err)
	}
	cur += 4

	encodingRaw, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CDR: encoding", err)
	}
	cur += 4

	flags, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CDR: flags", err)
	}
	cur += 4

	// rfuA, rfuB: reserved, always read and discarded.
	cur += 8

	increment, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CDR: increment", err)
	}
	cur += 4

	// identifier, rfuE: reserved, always read and discarded.
	cur += 8

	copyright, err := b.ReadChars(cur, copyrightFieldSize)
	if err != nil {
		return nil, cdferr.WrapFormatError("CDR: copyright", err)
	}

	if cur+copyrightFieldSize > h.endOffset {
		return nil, cdferr.NewFormatError("CDR", fmt.Sprintf("record size %d too small for declared fields", h.size))
	}

	return &CDR{
		GDROffset: gdrOffset,
		Version:   version,
		Release:   release,
		Encoding:  Encoding(encodingRaw),
		Flags:     flags,
		Increment: increment,
		Copyright: copyright,
	}, nil
}
