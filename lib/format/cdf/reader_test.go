package cdf

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/scigolib/cdf/lib/format/cdf/internal/record"
)

// mockReaderAt wraps a byte slice to implement io.ReaderAt, mirroring
// lib/iso9660/iso9660_test.go's fixture pattern.
type mockReaderAt struct{ data []byte }

func (m *mockReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// cdfBuilder assembles a synthetic, always-big-endian v3 CDF byte
// stream record by record. Every field is written in big-endian order
// (EncodingNetwork), so the same byte order applies whether the CDR has
// been parsed yet or not, which keeps the fixture code a straight
// append rather than a two-pass patch.
type cdfBuilder struct {
	buf bytes.Buffer
}

func (b *cdfBuilder) offset() int64 { return int64(b.buf.Len()) }

func (b *cdfBuilder) u32(v uint32) {
	b.buf.WriteByte(byte(v >> 24))
	b.buf.WriteByte(byte(v >> 16))
	b.buf.WriteByte(byte(v >> 8))
	b.buf.WriteByte(byte(v))
}

func (b *cdfBuilder) i32(v int32) { b.u32(uint32(v)) }

func (b *cdfBuilder) u64(v uint64) {
	b.u32(uint32(v >> 32))
	b.u32(uint32(v))
}

func (b *cdfBuilder) i64(v int64) { b.u64(uint64(v)) }

func (b *cdfBuilder) f64(v float64) { b.u64(math.Float64bits(v)) }

func (b *cdfBuilder) zero(n int) {
	b.buf.Write(make([]byte, n))
}

func (b *cdfBuilder) fixedString(s string, width int) {
	data := make([]byte, width)
	copy(data, s)
	b.buf.Write(data)
}

func (b *cdfBuilder) bytes() []byte { return b.buf.Bytes() }

// recPatch remembers where a record's size field must be written once
// its total length is known.
type recPatch struct {
	start int64
}

func (b *cdfBuilder) beginRecord(tag int32) recPatch {
	start := b.offset()
	b.u64(0) // size placeholder, patched in endRecord
	b.i32(tag)
	return recPatch{start: start}
}

func (b *cdfBuilder) endRecord(p recPatch) {
	size := uint64(b.offset() - p.start)
	out := b.buf.Bytes()
	out[p.start] = byte(size >> 56)
	out[p.start+1] = byte(size >> 48)
	out[p.start+2] = byte(size >> 40)
	out[p.start+3] = byte(size >> 32)
	out[p.start+4] = byte(size >> 24)
	out[p.start+5] = byte(size >> 16)
	out[p.start+6] = byte(size >> 8)
	out[p.start+7] = byte(size)
}

const (
	testNameWidth     = 256
	testCopyrightSize = 256
)

// writeMagic writes the v3, non-compressed magic header.
func writeMagic(b *cdfBuilder) {
	b.u32(uint32(magicV3))
	b.u32(uint32(magicSuffixPlain))
}

type cdrOpts struct {
	gdrOffset int64
	rowMajor  bool
	singleFile bool
}

func writeCDR(b *cdfBuilder, o cdrOpts) {
	p := b.beginRecord(record.TagCDR)
	b.i64(o.gdrOffset)
	b.i32(3) // version
	b.i32(0) // release
	b.i32(int32(record.EncodingNetwork))
	var flags int32
	if o.rowMajor {
		flags |= record.CDRFlagRowMajor
	}
	if o.singleFile {
		flags |= record.CDRFlagSingleFile
	}
	b.i32(flags)
	b.zero(8) // rfuA, rfuB
	b.i32(0)  // increment
	b.zero(8) // identifier, rfuE
	b.fixedString("", testCopyrightSize)
	b.endRecord(p)
}

type gdrOpts struct {
	rvdrHead, zvdrHead, adrHead int64
	numRVars, numZVars, numAttr int32
	rDimSizes                   []int32
}

func writeGDR(b *cdfBuilder, o gdrOpts) {
	p := b.beginRecord(record.TagGDR)
	b.i64(o.rvdrHead)
	b.i64(o.zvdrHead)
	b.i64(o.adrHead)
	b.i64(0) // eof
	b.i32(o.numRVars)
	b.i32(o.numAttr)
	b.i32(0) // rMaxRec
	b.i32(int32(len(o.rDimSizes)))
	b.i32(o.numZVars)
	b.i64(0) // UIRhead
	b.zero(4) // rfuC
	b.zero(4) // leapSecondLastUpdated
	b.zero(4) // rfuE
	for _, d := range o.rDimSizes {
		b.i32(d)
	}
	b.endRecord(p)
}

type vdrOpts struct {
	wantZ          bool
	next           int64
	dataType       record.DataType
	maxRec         int32
	vxrHead        int64
	recordVariance bool
	hasPad         bool
	padValue       []byte
	numElems       int32
	num            int32
	blockingFactor int32
	name           string
	dimSizes       []int32
	dimVarys       []bool
	cprOffset      int64
}

func writeVDR(b *cdfBuilder, o vdrOpts) {
	tag := record.TagRVDR
	if o.wantZ {
		tag = record.TagZVDR
	}
	p := b.beginRecord(tag)
	b.i64(o.next)
	b.i32(int32(o.dataType))
	b.i32(o.maxRec)
	b.i64(o.vxrHead)
	b.i64(0) // vxrTail, unused by the reader
	var flags int32
	if o.recordVariance {
		flags |= record.VDRFlagRecordVariance
	}
	if o.hasPad {
		flags |= record.VDRFlagHasPad
	}
	b.i32(flags)
	b.zero(16) // sRecords, rfuB, rfuC, rfuF
	b.i32(o.numElems)
	b.i32(o.num)
	b.i64(o.cprOffset)
	b.i32(o.blockingFactor)
	b.fixedString(o.name, testNameWidth)
	if o.wantZ {
		b.i32(int32(len(o.dimSizes)))
		for _, d := range o.dimSizes {
			b.i32(d)
		}
	}
	for _, v := range o.dimVarys {
		if v {
			b.i32(1)
		} else {
			b.i32(0)
		}
	}
	if o.hasPad {
		b.buf.Write(o.padValue)
	}
	b.endRecord(p)
}

func writeVXR(b *cdfBuilder, next int64, first, last int32, target int64) {
	p := b.beginRecord(record.TagVXR)
	b.i64(next)
	b.i32(1) // nEntries
	b.i32(1) // nUsedEntries
	b.i32(first)
	b.i32(last)
	b.i64(target)
	b.endRecord(p)
}

func writeVVR(b *cdfBuilder, data []byte) {
	p := b.beginRecord(record.TagVVR)
	b.buf.Write(data)
	b.endRecord(p)
}

func writeADR(b *cdfBuilder, next int64, global bool, name string, gEntryHead, zEntryHead int64, maxGEntry, maxZEntry int32) {
	p := b.beginRecord(record.TagADR)
	b.i64(next)
	b.i64(gEntryHead)
	var scope int32
	if global {
		scope = record.ADRScopeGlobal
	}
	b.i32(scope)
	b.i32(0) // num
	b.i32(0) // nGrEntries
	b.i32(maxGEntry)
	b.zero(4) // rfuA
	b.i64(zEntryHead)
	b.i32(0) // nZEntries
	b.i32(maxZEntry)
	b.zero(4) // rfuE
	b.fixedString(name, testNameWidth)
	b.endRecord(p)
}

func writeAEDR(b *cdfBuilder, wantZ bool, next int64, num int32, dt record.DataType, numElems int32, value []byte) {
	tag := record.TagAEDR
	if wantZ {
		tag = record.TagAzEDR
	}
	p := b.beginRecord(tag)
	b.i64(next)
	b.i32(0) // attrNum, unused
	b.i32(int32(dt))
	b.i32(num)
	b.i32(numElems)
	b.zero(16) // numStrings, rfuB, rfuC, rfuD
	b.buf.Write(value)
	b.endRecord(p)
}

// int32ToBytes encodes v as 4 big-endian bytes, for inline attribute
// entry values.
func int32ToBytes(v int32) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(v))
	return out
}

// float64ToBytes encodes v as 8 big-endian bytes, matching how
// DataReader.readFloat64 will decode it back under EncodingNetwork.
func float64ToBytes(v float64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, math.Float64bits(v))
	return out
}

func TestOpen_MinimalScalarVariable(t *testing.T) {
	var b cdfBuilder
	writeMagic(&b)

	// Offsets are computed as we go: CDR, then GDR, then the zVDR, VXR,
	// and VVR it points to. Record sizes are known up front from each
	// writer's field list, so this is a single forward pass rather than
	// a write-then-patch.
	const (
		cdrHeaderSize = 12 // offsetWidth(8) + tag(4)
		cdrBodySize   = 8 + 4 + 4 + 4 + 4 + 8 + 4 + 8 + testCopyrightSize
		gdrHeaderSize = 12
		gdrBodySize   = 8 + 8 + 8 + 8 + 4 + 4 + 4 + 4 + 4 + 8 + 4 + 4 + 4
	)
	gdrOffset := 8 + int64(cdrHeaderSize+cdrBodySize)
	zvdrOffset := gdrOffset + int64(gdrHeaderSize+gdrBodySize)

	const (
		vdrHeaderSize = 12
		vdrBodySize   = 8 + 4 + 4 + 8 + 8 + 4 + 16 + 4 + 4 + 8 + 4 + testNameWidth + 4 // zNumDims=0, no dims
	)
	vxrOffset := zvdrOffset + int64(vdrHeaderSize+vdrBodySize)

	const (
		vxrHeaderSize = 12
		vxrBodySize   = 8 + 4 + 4 + 4 + 4 + 8
	)
	vvrOffset := vxrOffset + int64(vxrHeaderSize+vxrBodySize)

	writeCDR(&b, cdrOpts{gdrOffset: gdrOffset, rowMajor: true, singleFile: true})
	writeGDR(&b, gdrOpts{zvdrHead: zvdrOffset})
	writeVDR(&b, vdrOpts{
		wantZ:          true,
		dataType:       record.Real8,
		maxRec:         0,
		vxrHead:        vxrOffset,
		recordVariance: true,
		numElems:       1,
		name:           "density",
	})
	writeVXR(&b, 0, 0, 0, vvrOffset)
	writeVVR(&b, float64ToBytes(3.14159))

	content, err := Open(&mockReaderAt{data: b.bytes()}, b.offset())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(content.ZVariables) != 1 {
		t.Fatalf("expected 1 z-variable, got %d", len(content.ZVariables))
	}
	v := content.ZVariables[0]
	if v.Name() != "density" {
		t.Fatalf("expected name density, got %s", v.Name())
	}
	val, err := v.ReadRecord(0, true)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	got, ok := val.(float64)
	if !ok {
		t.Fatalf("expected float64, got %T", val)
	}
	if got != 3.14159 {
		t.Fatalf("expected 3.14159, got %v", got)
	}
}

func TestOpen_SparseGlobalAttribute(t *testing.T) {
	var b cdfBuilder
	writeMagic(&b)

	const (
		cdrHeaderSize = 12
		cdrBodySize   = 8 + 4 + 4 + 4 + 4 + 8 + 4 + 8 + testCopyrightSize
		gdrHeaderSize = 12
		gdrBodySize   = 8 + 8 + 8 + 8 + 4 + 4 + 4 + 4 + 4 + 8 + 4 + 4 + 4
	)
	gdrOffset := 8 + int64(cdrHeaderSize+cdrBodySize)
	adrOffset := gdrOffset + int64(gdrHeaderSize+gdrBodySize)

	const (
		adrHeaderSize = 12
		adrBodySize   = 8 + 8 + 4 + 4 + 4 + 4 + 4 + 8 + 4 + 4 + 4 + testNameWidth
	)
	entry0Offset := adrOffset + int64(adrHeaderSize+adrBodySize)

	const (
		aedrHeaderSize = 12
		aedrBodySize   = 8 + 4 + 4 + 4 + 4 + 16
	)
	// g-entry 0 holds a 4-byte int4 value; g-entry 3 (skipping 1 and 2,
	// the sparse gap) holds another. maxGEntry is declared as 4, so the
	// entry slice must be sized 5 (indices 0-4), not merely wide enough
	// for the highest entry actually present (spec.md §8 scenario 5).
	entry3Offset := entry0Offset + int64(aedrHeaderSize+aedrBodySize+4)
	// A single z-entry, appended after the g-entries per spec.md §4.7.
	zEntryOffset := entry3Offset + int64(aedrHeaderSize+aedrBodySize+4)

	writeCDR(&b, cdrOpts{gdrOffset: gdrOffset, rowMajor: true, singleFile: true})
	writeGDR(&b, gdrOpts{adrHead: adrOffset})
	writeADR(&b, 0, true, "mission", entry0Offset, zEntryOffset, 4, 0)
	writeAEDR(&b, false, entry3Offset, 0, record.Int4, 1, int32ToBytes(7))
	writeAEDR(&b, false, 0, 3, record.Int4, 1, int32ToBytes(9))
	writeAEDR(&b, true, 0, 0, record.Int4, 1, int32ToBytes(99))

	content, err := Open(&mockReaderAt{data: b.bytes()}, b.offset())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	attr, ok := content.GlobalAttribute("mission")
	if !ok {
		t.Fatal("expected a global attribute named mission")
	}
	// 5 g-entry slots (maxGEntry=4) followed by 1 z-entry slot (maxZEntry=0).
	if len(attr.Entries) != 6 {
		t.Fatalf("expected 6 entry slots (5 g-entries + 1 z-entry), got %d", len(attr.Entries))
	}
	if attr.Entries[0] != int32(7) {
		t.Fatalf("g-entry 0: got %v", attr.Entries[0])
	}
	for i := 1; i <= 2; i++ {
		if attr.Entries[i] != nil {
			t.Fatalf("g-entry %d (sparse gap): expected nil, got %v", i, attr.Entries[i])
		}
	}
	if attr.Entries[3] != int32(9) {
		t.Fatalf("g-entry 3: got %v", attr.Entries[3])
	}
	if attr.Entries[4] != nil {
		t.Fatalf("g-entry 4 (declared max, unused): expected nil, got %v", attr.Entries[4])
	}
	if attr.Entries[5] != int32(99) {
		t.Fatalf("z-entry 0 (appended after g-entries): got %v", attr.Entries[5])
	}
}

func TestOpen_RejectsMultiFile(t *testing.T) {
	var b cdfBuilder
	writeMagic(&b)
	gdrOffset := b.offset() + 12 + (8 + 4 + 4 + 4 + 4 + 8 + 4 + 8 + testCopyrightSize)
	writeCDR(&b, cdrOpts{gdrOffset: gdrOffset, rowMajor: true, singleFile: false})
	writeGDR(&b, gdrOpts{})

	_, err := Open(&mockReaderAt{data: b.bytes()}, b.offset())
	if err == nil {
		t.Fatal("expected an error for a multi-file CDF, got nil")
	}
	if !isFormatError(err) {
		t.Fatalf("expected a FormatError, got %T: %v", err, err)
	}
}

func isFormatError(err error) bool {
	_, ok := err.(*FormatError)
	return ok
}

func TestOpen_RejectsBadMagic(t *testing.T) {
	data := make([]byte, 16)
	_, err := Open(&mockReaderAt{data: data}, int64(len(data)))
	if err == nil {
		t.Fatal("expected an error for an unrecognized magic header")
	}
}

func TestDetectVariant(t *testing.T) {
	cases := []struct {
		name          string
		word1, word2  uint32
		wantOffset64  bool
		wantNameWidth int
		wantCompressed bool
		wantErr       bool
	}{
		{"v3 plain", magicV3, magicSuffixPlain, true, v3NameWidth, false, false},
		{"v3 compressed", magicV3, magicSuffixCompressed, true, v3NameWidth, true, false},
		{"v2.6/2.7 plain", magicV26V27, magicSuffixPlain, false, preV26NameWidth, false, false},
		{"v2.6/2.7 compressed", magicV26V27, magicSuffixCompressed, false, preV26NameWidth, true, false},
		{"pre-v2.6 plain", magicPreV26, magicSuffixPlain, false, preV26NameWidth, false, false},
		{"pre-v2.6 compressed is not a valid combination", magicPreV26, magicSuffixCompressed, false, 0, false, true},
		{"unknown word1", 0xDEADBEEF, magicSuffixPlain, false, 0, false, true},
		{"unknown word2", magicV3, 0xDEADBEEF, false, 0, false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := detectVariant(c.word1, c.word2)
			if c.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("detectVariant: %v", err)
			}
			if v.offset64 != c.wantOffset64 || v.nameWidth != c.wantNameWidth || v.compressed != c.wantCompressed {
				t.Fatalf("got %+v", v)
			}
		})
	}
}

func TestShaper_ColumnMajorTranspose(t *testing.T) {
	s := NewShaper(record.Int4, []int32{2, 3}, []bool{true, true}, false)
	raw := []int32{1, 2, 3, 4, 5, 6}
	got := shapeGeneric(s, raw, true)
	want := []int32{1, 3, 5, 2, 4, 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("transpose mismatch (-want +got):\n%s", diff)
	}
}

func TestShaper_RawShapeBroadcastsNonVarying(t *testing.T) {
	s := NewShaper(record.Int4, []int32{2, 3}, []bool{true, false}, true)
	if got := s.RawItemCount(); got != 2 {
		t.Fatalf("expected raw item count 2, got %d", got)
	}
	raw := []int32{10, 20}
	got := shapeGeneric(s, raw, false)
	want := []int32{10, 10, 10, 20, 20, 20}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("broadcast mismatch (-want +got):\n%s", diff)
	}
}
