package cdf

import (
	"encoding/binary"
	"math"

	"github.com/scigolib/cdf/internal/util"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
	"github.com/scigolib/cdf/lib/format/cdf/internal/record"
)

// DataReader converts a decompressed, decoded raw byte buffer into a
// typed Go slice according to a variable's declared data type and the
// file's byte order (spec.md §4.5). It holds no per-call state, so a
// single instance may be shared across reads of the same variable.
type DataReader struct {
	dataType record.DataType
	order    binary.ByteOrder
}

// NewDataReader builds a DataReader for dt, decoding multi-byte fields
// with order.
func NewDataReader(dt record.DataType, order binary.ByteOrder) *DataReader {
	return &DataReader{dataType: dt, order: order}
}

// CreateRawValueArray allocates and decodes itemCount logical elements
// from data. numElems is the per-element width in bytes for string
// types (Char/UChar) and is ignored for numeric types. The result's
// concrete type is determined by the variable's data type: one of
// []int8, []int16, []int32, []int64, []uint8, []uint16, []uint32,
// []float32, []float64, or []string.
func (d *DataReader) CreateRawValueArray(data []byte, itemCount int, numElems int32) (any, error) {
	kind, err := d.dataType.Kind()
	if err != nil {
		return nil, err
	}

	if kind == record.KindString {
		return d.readStrings(data, itemCount, int(numElems))
	}

	elemBytes, err := d.dataType.ElementBytes()
	if err != nil {
		return nil, err
	}
	groupSize := d.dataType.GroupSize()
	n := itemCount * groupSize
	need := n * elemBytes
	if need > len(data) {
		return nil, cdferr.NewOutOfRange("DataReader: value buffer", int64(len(data)))
	}

	switch kind {
	case record.KindInt8:
		return d.readInt8(data, n), nil
	case record.KindInt16:
		return d.readInt16(data, n), nil
	case record.KindInt32:
		return d.readInt32(data, n), nil
	case record.KindInt64:
		return d.readInt64(data, n), nil
	case record.KindUint8:
		return d.readUint8(data, n), nil
	case record.KindUint16:
		return d.readUint16(data, n), nil
	case record.KindUint32:
		return d.readUint32(data, n), nil
	case record.KindFloat32:
		return d.readFloat32(data, n), nil
	case record.KindFloat64:
		return d.readFloat64(data, n), nil
	default:
		return nil, cdferr.NewFormatError("DataReader", "unsupported kind")
	}
}

// ReadValue decodes the single logical element at index idx out of a
// raw buffer previously produced by CreateRawValueArray, returning it
// boxed as any.
func (d *DataReader) ReadValue(raw any, idx int) (any, error) {
	switch v := raw.(type) {
	case []int8:
		return v[idx], nil
	case []int16:
		return v[idx], nil
	case []int32:
		return v[idx], nil
	case []int64:
		return v[idx], nil
	case []uint8:
		return v[idx], nil
	case []uint16:
		return v[idx], nil
	case []uint32:
		return v[idx], nil
	case []float32:
		return v[idx], nil
	case []float64:
		return v[idx], nil
	case []string:
		return v[idx], nil
	default:
		return nil, cdferr.NewFormatError("DataReader", "unrecognised raw array type")
	}
}

func (d *DataReader) readStrings(data []byte, itemCount, width int) ([]string, error) {
	if width <= 0 {
		width = 1
	}
	need := itemCount * width
	if need > len(data) {
		return nil, cdferr.NewOutOfRange("DataReader: string buffer", int64(len(data)))
	}
	out := make([]string, itemCount)
	for i := range out {
		chunk := data[i*width : (i+1)*width]
		out[i] = util.ExtractASCII(chunk)
	}
	return out, nil
}

func (d *DataReader) readInt8(data []byte, n int) []int8 {
	out := make([]int8, n)
	for i := range out {
		out[i] = int8(data[i])
	}
	return out
}

func (d *DataReader) readUint8(data []byte, n int) []uint8 {
	out := make([]uint8, n)
	copy(out, data[:n])
	return out
}

func (d *DataReader) readInt16(data []byte, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(d.order.Uint16(data[i*2:]))
	}
	return out
}

func (d *DataReader) readUint16(data []byte, n int) []uint16 {
	out := make([]uint16, n)
	for i := range out {
		out[i] = d.order.Uint16(data[i*2:])
	}
	return out
}

func (d *DataReader) readInt32(data []byte, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(d.order.Uint32(data[i*4:]))
	}
	return out
}

func (d *DataReader) readUint32(data []byte, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = d.order.Uint32(data[i*4:])
	}
	return out
}

func (d *DataReader) readInt64(data []byte, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(d.order.Uint64(data[i*8:]))
	}
	return out
}

func (d *DataReader) readFloat32(data []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(d.order.Uint32(data[i*4:]))
	}
	return out
}

func (d *DataReader) readFloat64(data []byte, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(d.order.Uint64(data[i*8:]))
	}
	return out
}
