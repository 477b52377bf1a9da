package cdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
	"github.com/scigolib/cdf/lib/format/cdf/internal/compress"
	"github.com/scigolib/cdf/lib/format/cdf/internal/record"
)

// Variable is the public, read-only view of one CDF variable: its
// metadata plus on-demand, per-record value retrieval (spec.md §6).
// Records are decoded lazily — nothing beyond the VDR itself (and, for a
// compressed variable, its CPR) is read until ReadRecord is called.
type Variable interface {
	Name() string
	DataType() record.DataType
	NumDims() int
	DimSizes() []int32
	DimVarys() []bool
	RecordVariance() bool
	MaxRec() int32
	ShapeClass() ShapeClass

	// ReadRecord decodes logical record recNum. When logical is true the
	// result collapses non-varying dimensions and returns a bare scalar
	// for single-element variables; when false it returns the full
	// declared shape with non-varying dimensions broadcast.
	ReadRecord(recNum int32, logical bool) (any, error)
}

// VdrVariable is the Variable realized directly from a VDR and its VXR/
// VVR/CVVR chain (spec.md §4.6). It is the sole Variable implementation;
// the interface exists so callers depend on behaviour, not construction.
type VdrVariable struct {
	buf     *buf.Buf
	factory *record.Factory
	vdr     *record.VDR
	shaper  *Shaper
	reader  *DataReader

	compressed  bool
	cprType     compress.Type
	recordBytes int
	rawItems    int32
}

// NewVdrVariable builds the Variable for vdr, resolving its per-variable
// compression parameters (if any) up front so every ReadRecord call can
// reuse them.
func NewVdrVariable(b *buf.Buf, factory *record.Factory, vdr *record.VDR, order binary.ByteOrder, rowMajor bool) (*VdrVariable, error) {
	shaper := NewShaper(vdr.DataType, vdr.DimSizes, vdr.DimVarys, rowMajor)
	reader := NewDataReader(vdr.DataType, order)

	rawItems := shaper.RawItemCount()
	var recordBytes int
	if vdr.DataType.IsString() {
		recordBytes = int(rawItems) * int(vdr.NumElems)
	} else {
		elemBytes, err := vdr.DataType.ElementBytes()
		if err != nil {
			return nil, err
		}
		recordBytes = int(rawItems) * elemBytes * vdr.DataType.GroupSize()
	}

	v := &VdrVariable{
		buf:         b,
		factory:     factory,
		vdr:         vdr,
		shaper:      shaper,
		reader:      reader,
		compressed:  vdr.Compressed(),
		recordBytes: recordBytes,
		rawItems:    rawItems,
	}

	if v.compressed {
		if record.IsTerminator(vdr.CPROffset) {
			return nil, cdferr.NewFormatError("VDR "+vdr.Name, "compressed flag set but no CPR offset present")
		}
		cpr, err := factory.ReadCPR(b, vdr.CPROffset)
		if err != nil {
			return nil, err
		}
		v.cprType = cpr.CType
	}

	return v, nil
}

func (v *VdrVariable) Name() string             { return v.vdr.Name }
func (v *VdrVariable) DataType() record.DataType { return v.vdr.DataType }
func (v *VdrVariable) NumDims() int              { return len(v.vdr.DimSizes) }
func (v *VdrVariable) DimSizes() []int32         { return v.shaper.DimSizes() }
func (v *VdrVariable) DimVarys() []bool          { return v.vdr.DimVarys }
func (v *VdrVariable) RecordVariance() bool      { return v.vdr.RecordVariance() }
func (v *VdrVariable) MaxRec() int32             { return v.vdr.MaxRec }
func (v *VdrVariable) ShapeClass() ShapeClass    { return v.shaper.GetShapeClass() }

// ReadRecord implements Variable.
func (v *VdrVariable) ReadRecord(recNum int32, logical bool) (any, error) {
	effectiveRec := recNum
	if !v.RecordVariance() {
		effectiveRec = 0
	}

	raw, err := v.findRecordBytes(effectiveRec)
	if err != nil {
		if _, ok := err.(*cdferr.OutOfRange); !ok {
			return nil, err
		}
		// Beyond maxRec (or no VXR entry covers it): substitute the pad
		// value if one is declared, else the type's zero-valued default
		// fill. Never propagated to the caller (spec.md §4.6, §8).
		var pad []byte
		if v.vdr.HasPad() {
			pad = v.vdr.PadValue
		}
		raw = padFilledRecord(pad, v.recordBytes)
	}

	array, err := v.reader.CreateRawValueArray(raw, int(v.rawItems), v.vdr.NumElems)
	if err != nil {
		return nil, err
	}
	return shapeAny(v.shaper, array, logical)
}

// padFilledRecord builds a record-sized buffer by repeating pad across
// it; pad is the declared per-element (or per-group) pad value.
func padFilledRecord(pad []byte, recordBytes int) []byte {
	if len(pad) == 0 {
		return make([]byte, recordBytes)
	}
	out := make([]byte, recordBytes)
	for i := 0; i < recordBytes; i += len(pad) {
		n := copy(out[i:], pad)
		if n == 0 {
			break
		}
	}
	return out
}

// findRecordBytes walks the variable's VXR tree (root at v.vdr.VXRHead)
// looking for the entry covering recNum, then reads and, if necessary,
// decompresses that record's raw bytes.
func (v *VdrVariable) findRecordBytes(recNum int32) ([]byte, error) {
	return v.walkVXR(v.vdr.VXRHead, recNum, 0)
}

func (v *VdrVariable) walkVXR(offset int64, recNum int32, depth int) ([]byte, error) {
	if record.IsTerminator(offset) {
		return nil, cdferr.NewOutOfRange("variable "+v.vdr.Name+": record", int64(recNum))
	}
	if depth > record.MaxChainWalk {
		return nil, cdferr.NewFormatError("variable "+v.vdr.Name, "VXR chain exceeded maximum traversal depth")
	}

	vxr, err := v.factory.ReadVXR(v.buf, offset)
	if err != nil {
		return nil, err
	}

	for _, e := range vxr.Entries {
		if recNum < e.First || recNum > e.Last {
			continue
		}
		return v.readEntry(e, recNum, depth)
	}

	return v.walkVXR(vxr.Next, recNum, depth+1)
}

func (v *VdrVariable) readEntry(e record.VXREntry, recNum int32, depth int) ([]byte, error) {
	tag, err := record.PeekTag(v.buf, e.Offset)
	if err != nil {
		return nil, err
	}

	switch tag {
	case record.TagVXR:
		return v.walkVXR(e.Offset, recNum, depth+1)

	case record.TagVVR:
		vvr, err := v.factory.ReadVVRHeader(v.buf, e.Offset)
		if err != nil {
			return nil, err
		}
		idx := int(recNum - e.First)
		start := vvr.DataOffset + int64(idx*v.recordBytes)
		return v.buf.ReadBytes(start, v.recordBytes)

	case record.TagCVVR:
		if !v.compressed {
			return nil, cdferr.NewFormatError("variable "+v.vdr.Name, "CVVR entry but variable has no compression parameters")
		}
		cvvr, err := v.factory.ReadCVVRHeader(v.buf, e.Offset)
		if err != nil {
			return nil, err
		}
		compressed, err := v.buf.ReadBytes(cvvr.DataOffset, int(cvvr.CSize))
		if err != nil {
			return nil, err
		}
		blockRecords := int(e.Last-e.First) + 1
		outSize := blockRecords * v.recordBytes
		out, err := compress.Uncompress(v.cprType, bytes.NewReader(compressed), outSize)
		if err != nil {
			return nil, err
		}
		full, err := io.ReadAll(out)
		if err != nil {
			return nil, cdferr.WrapIOError("variable "+v.vdr.Name+": decompress", err)
		}
		idx := int(recNum - e.First)
		start := idx * v.recordBytes
		if start+v.recordBytes > len(full) {
			return nil, cdferr.NewOutOfRange("variable "+v.vdr.Name+": decompressed record", int64(start))
		}
		return full[start : start+v.recordBytes], nil

	default:
		return nil, cdferr.NewFormatError("variable "+v.vdr.Name, fmt.Sprintf("VXR entry targets unexpected record tag %d", tag))
	}
}

// shapeAny dispatches shapeGeneric over raw's concrete slice type, since
// Go generics can't be invoked across an any boundary without a type
// switch pinning the type parameter.
func shapeAny(s *Shaper, raw any, logical bool) (any, error) {
	switch v := raw.(type) {
	case []int8:
		return shapeGeneric(s, v, logical), nil
	case []int16:
		return shapeGeneric(s, v, logical), nil
	case []int32:
		return shapeGeneric(s, v, logical), nil
	case []int64:
		return shapeGeneric(s, v, logical), nil
	case []uint8:
		return shapeGeneric(s, v, logical), nil
	case []uint16:
		return shapeGeneric(s, v, logical), nil
	case []uint32:
		return shapeGeneric(s, v, logical), nil
	case []float32:
		return shapeGeneric(s, v, logical), nil
	case []float64:
		return shapeGeneric(s, v, logical), nil
	case []string:
		return shapeGeneric(s, v, logical), nil
	default:
		return nil, cdferr.NewFormatError("shape", "unrecognised raw array type")
	}
}
