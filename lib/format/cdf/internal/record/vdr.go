package record

import (
	"fmt"

	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
)

// VDR flag bits (spec.md §3).
const (
	VDRFlagRecordVariance = 1 << 0
	VDRFlagHasPad         = 1 << 1
	VDRFlagCompressed     = 1 << 2
)

// VDR is a Variable Descriptor Record.
type VDR struct {
	Next        int64
	IsZVariable bool
	DataType    DataType
	MaxRec      int32 // -1 = empty
	VXRHead     int64
	VXRTail     int64
	Flags       int32
	NumElems    int32
	Num         int32
	DimSizes    []int32 // z-variables: own dims; r-variables: GDR's rDimSizes
	DimVarys    []bool
	Name        string
	BlockingFactor int32
	PadValue    []byte // raw bytes, nil if no pad
	CPROffset   int64  // compression parameters record, terminator if uncompressed
}

func (v *VDR) RecordVariance() bool { return v.Flags&VDRFlagRecordVariance != 0 }
func (v *VDR) HasPad() bool         { return v.Flags&VDRFlagHasPad != 0 }
func (v *VDR) Compressed() bool     { return v.Flags&VDRFlagCompressed != 0 }

// ReadVDR parses a VDR at offset. wantZ selects whether an rVDR or
// zVDR tag is expected; rDimSizes supplies the shared dimensionality
// for r-variables, which (unlike z-variables) don't carry their own
// zNumDims/zDimSizes fields.
func (f *Factory) ReadVDR(b *buf.Buf, offset int64, wantZ bool, rDimSizes []int32) (*VDR, error) {
	tag := TagRVDR
	context := "rVDR"
	if wantZ {
		tag = TagZVDR
		context = "zVDR"
	}
	h, err := f.readHeader(b, offset, tag, context)
	if err != nil {
		return nil, err
	}

	cur := h.bodyOffset
	next, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": vdrNext", err)
	}
	cur += b.OffsetWidth()

	dataTypeRaw, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": dataType", err)
	}
	cur += 4

	maxRec, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": maxRec", err)
	}
	cur += 4

	vxrHead, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": vxrHead", err)
	}
	cur += b.OffsetWidth()

	vxrTail, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": vxrTail", err)
	}
	cur += b.OffsetWidth()

	flags, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": flags", err)
	}
	cur += 4

	// sRecords, rfuB, rfuC, rfuF: reserved fields, always skipped.
	cur += 4 + 4 + 4 + 4

	numElems, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": numElems", err)
	}
	cur += 4

	num, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": num", err)
	}
	cur += 4

	cprOffset, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": cprOrSprOffset", err)
	}
	cur += b.OffsetWidth()

	blockingFactor, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": blockingFactor", err)
	}
	cur += 4

	name, err := b.ReadChars(cur, f.NameWidth)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": name", err)
	}
	cur += int64(f.NameWidth)

	var dimSizes []int32
	if wantZ {
		zNumDims, err := b.ReadInt32(cur)
		if err != nil {
			return nil, cdferr.WrapFormatError(context+": zNumDims", err)
		}
		cur += 4
		dimSizes = make([]int32, zNumDims)
		for i := range dimSizes {
			v, err := b.ReadInt32(cur)
			if err != nil {
				return nil, cdferr.WrapFormatError(context+": zDimSizes", err)
			}
			dimSizes[i] = v
			cur += 4
		}
	} else {
		dimSizes = rDimSizes
	}

	dimVarys := make([]bool, len(dimSizes))
	for i := range dimVarys {
		v, err := b.ReadInt32(cur)
		if err != nil {
			return nil, cdferr.WrapFormatError(context+": dimVarys", err)
		}
		dimVarys[i] = v != 0
		cur += 4
	}

	dt := DataType(dataTypeRaw)
	var pad []byte
	if flags&VDRFlagHasPad != 0 {
		elemBytes, err := dt.ElementBytes()
		if err != nil {
			return nil, cdferr.WrapFormatError(context+": pad value data type", err)
		}
		padLen := int(numElems) * elemBytes * dt.GroupSize()
		pad, err = b.ReadBytes(cur, padLen)
		if err != nil {
			return nil, cdferr.WrapFormatError(context+": pad value", err)
		}
		cur += int64(padLen)
	}

	if cur > h.endOffset {
		return nil, cdferr.NewFormatError(context, fmt.Sprintf("fields overran declared record size %d", h.size))
	}

	return &VDR{
		Next:           next,
		IsZVariable:    wantZ,
		DataType:       dt,
		MaxRec:         maxRec,
		VXRHead:        vxrHead,
		VXRTail:        vxrTail,
		Flags:          flags,
		NumElems:       numElems,
		Num:            num,
		DimSizes:       dimSizes,
		DimVarys:       dimVarys,
		Name:           name,
		BlockingFactor: blockingFactor,
		PadValue:       pad,
		CPROffset:      cprOffset,
	}, nil
}
