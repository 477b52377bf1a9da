package record

import (
	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
)

// VXREntry is one (first, last, target) triple within a VXR, pointing at
// either a VVR or a CVVR holding records [First, Last] (spec.md §3).
type VXREntry struct {
	First  int32
	Last   int32
	Offset int64
}

// VXR is a Variable indeX Record: partitions a variable's record-number
// axis into runs, each pointing at a value-storage record.
type VXR struct {
	Next    int64
	Entries []VXREntry
}

// ReadVXR parses a VXR at offset.
func (f *Factory) ReadVXR(b *buf.Buf, offset int64) (*VXR, error) {
	h, err := f.readHeader(b, offset, TagVXR, "VXR")
	if err != nil {
		return nil, err
	}

	cur := h.bodyOffset
	next, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("VXR: vxrNext", err)
	}
	cur += b.OffsetWidth()

	nEntries, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("VXR: nEntries", err)
	}
	cur += 4

	nUsed, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("VXR: nUsedEntries", err)
	}
	cur += 4

	firsts := make([]int32, nEntries)
	for i := range firsts {
		v, err := b.ReadInt32(cur)
		if err != nil {
			return nil, cdferr.WrapFormatError("VXR: first", err)
		}
		firsts[i] = v
		cur += 4
	}

	lasts := make([]int32, nEntries)
	for i := range lasts {
		v, err := b.ReadInt32(cur)
		if err != nil {
			return nil, cdferr.WrapFormatError("VXR: last", err)
		}
		lasts[i] = v
		cur += 4
	}

	entries := make([]VXREntry, 0, nUsed)
	for i := int32(0); i < nEntries; i++ {
		off, err := b.ReadOffset(cur)
		if err != nil {
			return nil, cdferr.WrapFormatError("VXR: offset", err)
		}
		cur += b.OffsetWidth()
		if i < nUsed {
			entries = append(entries, VXREntry{First: firsts[i], Last: lasts[i], Offset: off})
		}
	}

	return &VXR{Next: next, Entries: entries}, nil
}

// VVR is an uncompressed Variable Values Record. DataOffset is the
// offset of the first raw record byte (right after the record header).
type VVR struct {
	DataOffset int64
	DataEnd    int64
}

// ReadVVRHeader parses a VVR's header at offset and returns the region
// holding its raw record bytes, without materialising them.
func (f *Factory) ReadVVRHeader(b *buf.Buf, offset int64) (*VVR, error) {
	h, err := f.readHeader(b, offset, TagVVR, "VVR")
	if err != nil {
		return nil, err
	}
	return &VVR{DataOffset: h.bodyOffset, DataEnd: h.endOffset}, nil
}

// CVVR is a Compressed Variable Values Record: a compressed block that
// expands to blockingFactor records (spec.md §3).
type CVVR struct {
	DataOffset int64
	CSize      int64
}

// ReadCVVRHeader parses a CVVR's header at offset and returns the region
// holding its compressed bytes.
func (f *Factory) ReadCVVRHeader(b *buf.Buf, offset int64) (*CVVR, error) {
	h, err := f.readHeader(b, offset, TagCVVR, "CVVR")
	if err != nil {
		return nil, err
	}
	cur := h.bodyOffset
	cSize, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CVVR: cSize", err)
	}
	cur += b.OffsetWidth()
	return &CVVR{DataOffset: cur, CSize: cSize}, nil
}
