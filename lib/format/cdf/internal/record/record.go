package record

import (
	"fmt"

	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
)

// Record type tags, per the CDF Internal Format Description.
const (
	TagCDR  int32 = 1
	TagGDR  int32 = 2
	TagRVDR int32 = 3
	TagADR  int32 = 4
	TagAEDR int32 = 5 // g-entries; z-entries use TagAzEDR
	TagVXR  int32 = 6
	TagVVR  int32 = 7
	TagZVDR int32 = 8
	TagAzEDR int32 = 9
	TagCCR  int32 = 10
	TagCPR  int32 = 11
	TagSPR  int32 = 12
	TagCVVR int32 = 13
)

// terminator is the sentinel value marking the end of a linked list
// (a zero or negative next-pointer).
const terminator = 0

// isTerminator reports whether off marks the end of a record chain.
func isTerminator(off int64) bool { return off <= terminator }

// IsTerminator reports whether off marks the end of a record chain
// (CDR/GDR linked lists use 0; this reader also treats any non-positive
// offset as terminal).
func IsTerminator(off int64) bool { return isTerminator(off) }

// maxChainWalk caps linked-list traversal so a malformed or cyclic chain
// cannot spin forever (spec.md §9).
const maxChainWalk = 1 << 20

// MaxChainWalk is the exported form of maxChainWalk, for orchestration
// code outside this package that walks VDR/ADR/VXR/entry chains.
const MaxChainWalk = maxChainWalk

// PeekTag reads the record-type field at offset without asserting it
// against any particular tag, for dispatch sites where the caller must
// decide how to parse the record before knowing its tag (e.g. a VXR
// entry's target may be a nested VXR, a VVR, or a CVVR).
func PeekTag(b *buf.Buf, offset int64) (int32, error) {
	typeOffset := offset + b.OffsetWidth()
	recType, err := b.ReadInt32(typeOffset)
	if err != nil {
		return 0, cdferr.WrapFormatError("peek record type", err)
	}
	return recType, nil
}

// Factory parameterises record parsing by the variant's name-field
// width (64 for pre-v2.6/v2.6/2.7, 256 for v3), mirroring
// lib/format/chd/root.go's ParseCHD except generalised into a
// reusable, variant-aware dispatcher instead of one fixed-format
// function (spec.md §4.3, §9).
type Factory struct {
	NameWidth int
}

// NewFactory builds a Factory for the given record name-field width.
func NewFactory(nameWidth int) *Factory {
	return &Factory{NameWidth: nameWidth}
}

// header holds the generic fields every record begins with, plus the
// offsets needed to read the record's body and detect its end.
type header struct {
	size       int64
	recordType int32
	bodyOffset int64
	endOffset  int64
}

// readHeader reads recordSize (4 or 8 bytes, per b's configured offset
// width) and recordType (4 bytes) at offset, and asserts recordType
// equals want.
func (f *Factory) readHeader(b *buf.Buf, offset int64, want int32, context string) (header, error) {
	size, err := b.ReadOffset(offset)
	if err != nil {
		return header{}, cdferr.WrapFormatError(context+": record size", err)
	}
	if size < b.OffsetWidth()+4 {
		return header{}, cdferr.NewFormatError(context, fmt.Sprintf("record size %d too small for header", size))
	}
	typeOffset := offset + b.OffsetWidth()
	recType, err := b.ReadInt32(typeOffset)
	if err != nil {
		return header{}, cdferr.WrapFormatError(context+": record type", err)
	}
	if recType != want {
		return header{}, cdferr.NewFormatError(
			context,
			fmt.Sprintf("expected record tag %d, got %d at offset %d", want, recType, offset),
		)
	}
	return header{
		size:       size,
		recordType: recType,
		bodyOffset: typeOffset + 4,
		endOffset:  offset + size,
	}, nil
}
