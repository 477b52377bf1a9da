package record

import (
	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
	"github.com/scigolib/cdf/lib/format/cdf/internal/compress"
)

// CCR is a Compressed CDF Record: wraps whole-file compression. The CDR
// that would otherwise sit at offset 8 instead lives inside the
// decompressed payload this record's CPR describes (spec.md §4.8 step 4).
type CCR struct {
	CPROffset  int64
	USize      int64
	DataOffset int64
	DataEnd    int64
}

// ReadCCR parses a CCR at offset (always offset 8, right after the
// magic header, for whole-file-compressed variants).
func (f *Factory) ReadCCR(b *buf.Buf, offset int64) (*CCR, error) {
	h, err := f.readHeader(b, offset, TagCCR, "CCR")
	if err != nil {
		return nil, err
	}

	cur := h.bodyOffset
	cprOffset, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CCR: cprOffset", err)
	}
	cur += b.OffsetWidth()

	uSize, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CCR: uSize", err)
	}
	cur += b.OffsetWidth()

	// rfuA: reserved.
	cur += 4

	return &CCR{CPROffset: cprOffset, USize: uSize, DataOffset: cur, DataEnd: h.endOffset}, nil
}

// CPR is a Compression Parameters Record describing the algorithm and
// parameters used by a CCR or a per-variable compressed VDR.
type CPR struct {
	CType  compress.Type
	Params []int32
}

// ReadCPR parses a CPR at offset.
func (f *Factory) ReadCPR(b *buf.Buf, offset int64) (*CPR, error) {
	h, err := f.readHeader(b, offset, TagCPR, "CPR")
	if err != nil {
		return nil, err
	}

	cur := h.bodyOffset
	cType, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CPR: cType", err)
	}
	cur += 4

	// rfuA: reserved.
	cur += 4

	pCount, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("CPR: pCount", err)
	}
	cur += 4

	params := make([]int32, pCount)
	for i := range params {
		v, err := b.ReadInt32(cur)
		if err != nil {
			return nil, cdferr.WrapFormatError("CPR: cParms", err)
		}
		params[i] = v
		cur += 4
	}

	return &CPR{CType: compress.Type(cType), Params: params}, nil
}
