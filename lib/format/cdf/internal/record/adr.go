package record

import (
	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
)

// ADRScopeGlobal is ADR scope bit 0: set for global attributes, clear
// for variable attributes (spec.md §3).
const ADRScopeGlobal = 1 << 0

// ADR is an Attribute Descriptor Record.
type ADR struct {
	Next       int64
	Scope      int32
	Num        int32
	Name       string
	GEntryHead int64
	NumGEntries int32
	MaxGEntry  int32
	ZEntryHead int64
	NumZEntries int32
	MaxZEntry  int32
}

// IsGlobal reports whether this attribute is global scope.
func (a *ADR) IsGlobal() bool { return a.Scope&ADRScopeGlobal != 0 }

// ReadADR parses an ADR at offset.
func (f *Factory) ReadADR(b *buf.Buf, offset int64) (*ADR, error) {
	h, err := f.readHeader(b, offset, TagADR, "ADR")
	if err != nil {
		return nil, err
	}

	cur := h.bodyOffset
	next, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("ADR: adrNext", err)
	}
	cur += b.OffsetWidth()

	gEntryHead, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("ADR: agrEdrHead", err)
	}
	cur += b.OffsetWidth()

	scope, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("ADR: scope", err)
	}
	cur += 4

	num, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("ADR: num", err)
	}
	cur += 4

	nGrEntries, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("ADR: nGrEntries", err)
	}
	cur += 4

	maxGrEntry, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("ADR: maxGrEntry", err)
	}
	cur += 4

	// rfuA: reserved.
	cur += 4

	zEntryHead, err := b.ReadOffset(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("ADR: azEdrHead", err)
	}
	cur += b.OffsetWidth()

	nZEntries, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("ADR: nZEntries", err)
	}
	cur += 4

	maxZEntry, err := b.ReadInt32(cur)
	if err != nil {
		return nil, cdferr.WrapFormatError("ADR: maxZEntry", err)
	}
	cur += 4

	// rfuE: reserved.
	cur += 4

	name, err := b.ReadChars(cur, f.NameWidth)
	if err != nil {
		return nil, cdferr.WrapFormatError("ADR: name", err)
	}

	return &ADR{
		Next:        next,
		Scope:       scope,
		Num:         num,
		Name:        name,
		GEntryHead:  gEntryHead,
		NumGEntries: nGrEntries,
		MaxGEntry:   maxGrEntry,
		ZEntryHead:  zEntryHead,
		NumZEntries: nZEntries,
		MaxZEntry:   maxZEntry,
	}, nil
}
