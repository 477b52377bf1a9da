package record

import (
	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
)

// AEDR is an Attribute Entry Descriptor Record (used for both g- and
// z-entries; the two share a layout).
type AEDR struct {
	Next     int64
	Num      int32 // entry index
	DataType DataType
	NumElems int32
	Value    []byte // raw inline value bytes
}

// ReadAEDR parses an AEDR/AzEDR at offset. wantZ selects which tag is
// expected.
func (f *Factory) ReadAEDR(b *buf.Buf, offset int64, wantZ bool) (*AEDR, error) {
	tag := TagAEDR
	context := "AEDR"
	if wantZ {
		tag = TagAzEDR
		context = "AzEDR"
	}
	h, err := f.readHeader(b, offset, tag, context)
	if err != nil {
		return nil, err
	}

	cur := h.bodyOffset
	next, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": aedrNext", err)
	}
	cur += b.OffsetWidth()

	// attrNum: parent ADR's number, reserved for this reader's purposes.
	cur += 4

	dataTypeRaw, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": dataType", err)
	}
	cur += 4

	num, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": num", err)
	}
	cur += 4

	numElems, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": numElems", err)
	}
	cur += 4

	// numStrings, rfuB, rfuC, rfuD: reserved.
	cur += 4 + 4 + 4 + 4

	dt := DataType(dataTypeRaw)
	elemBytes, err := dt.ElementBytes()
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": value data type", err)
	}
	valueLen := int(numElems) * elemBytes * dt.GroupSize()
	value, err := b.ReadBytes(cur, valueLen)
	if err != nil {
		return nil, cdferr.WrapFormatError(context+": value", err)
	}

	return &AEDR{
		Next:     next,
		Num:      num,
		DataType: dt,
		NumElems: numElems,
		Value:    value,
	}, nil
}
