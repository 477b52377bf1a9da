package record

import (
	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
)

// GDR is the Global Descriptor Record: heads of the r-variable,
// z-variable, and attribute linked lists, plus the shared r-variable
// dimensionality (spec.md §3).
type GDR struct {
	RVDRHead int64
	ZVDRHead int64
	ADRHead  int64
	NumRVars int32
	NumZVars int32
	NumAttr  int32
	RDimSizes []int32
}

// ReadGDR parses a GDR at offset.
func (f *Factory) ReadGDR(b *buf.Buf, offset int64) (*GDR, error) {
	h, err := f.readHeader(b, offset, TagGDR, "GDR")
	if err != nil {
		return nil, err
	}

	cur := h.bodyOffset
	rvdrHead, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("GDR: rVDRhead", err)
	}
	cur += b.OffsetWidth()

	zvdrHead, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("GDR: zVDRhead", err)
	}
	cur += b.OffsetWidth()

	adrHead, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("GDR: adrHead", err)
	}
	cur += b.OffsetWidth()

	// eof: end-of-file offset, unused by this reader.
	cur += b.OffsetWidth()

	numRVars, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("GDR: numRVars", err)
	}
	cur += 4

	numAttr, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("GDR: numAttr", err)
	}
	cur += 4

	// rMaxRec: unused by this reader.
	cur += 4

	rNumDims, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("GDR: rNumDims", err)
	}
	cur += 4

	numZVars, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("GDR: numZVars", err)
	}
	cur += 4

	// UIRhead, rfuC, leapSecondLastUpdated, rfuE: unused reserved fields.
	cur += b.OffsetWidth() + 4 + 4 + 4

	rDimSizes := make([]int32, rNumDims)
	for i := range rDimSizes {
		v, err := b.ReadInt32(cur)
		if err != nil {
			return nil, cdferr.WrapFormatError("GDR: rDimSizes", err)
		}
		rDimSizes[i] = v
		cur += 4
	}

	return &GDR{
		RVDRHead:  rvdrHead,
		ZVDRHead:  zvdrHead,
		ADRHead:   adrHead,
		NumRVars:  numRVars,
		NumZVars:  numZVars,
		NumAttr:   numAttr,
		RDimSizes: rDimSizes,
	}, nil
}
