// Package record implements the on-disk CDF record hierarchy: the
// NumericEncoding/DataType enumerations, the RecordFactory that dispatches
// a record's 8-byte header to its concrete parser, and the CDR/GDR/VDR/
// ADR/AEDR/CCR/CPR/VXR/VVR/CVVR value objects themselves (spec.md §3-4).
package record

import (
	"encoding/binary"
	"fmt"
)

// DataType enumerates CDF's catalogue of scalar primitive types. Values
// match the codes published in the CDF Internal Format Description.
type DataType int32

const (
	Int1   DataType = 1
	Int2   DataType = 2
	Int4   DataType = 4
	Int8   DataType = 8
	Uint1  DataType = 11
	Uint2  DataType = 12
	Uint4  DataType = 14
	Real4  DataType = 21
	Real8  DataType = 22
	Epoch  DataType = 31
	Epoch16 DataType = 32
	TT2000 DataType = 33
	Byte   DataType = 41
	Float  DataType = 44 // alias of Real4
	Double DataType = 45 // alias of Real8
	UChar  DataType = 51
	Char   DataType = 52
)

// Kind identifies the Go representation a DataType's raw elements are
// stored and shaped as. Used instead of reflect so the shaping layer
// never needs runtime type reflection, matching the teacher's
// preference for concrete types (lib/roms/* parsers use plain structs
// and type switches, never the reflect package).
type Kind int

const (
	KindInt8 Kind = iota
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindFloat32
	KindFloat64
	KindString
)

// Kind returns the Go representation kind for d.
func (d DataType) Kind() (Kind, error) {
	switch d {
	case Int1:
		return KindInt8, nil
	case Int2:
		return KindInt16, nil
	case Int4:
		return KindInt32, nil
	case Int8, TT2000:
		return KindInt64, nil
	case Uint1, Byte:
		return KindUint8, nil
	case Uint2:
		return KindUint16, nil
	case Uint4:
		return KindUint32, nil
	case Real4, Float:
		return KindFloat32, nil
	case Real8, Double, Epoch, Epoch16:
		return KindFloat64, nil
	case UChar, Char:
		return KindString, nil
	default:
		return 0, fmt.Errorf("unknown data type: %d", int32(d))
	}
}

// String returns the CDF Internal Format Description's mnemonic name
// for d, or a numeric fallback for an unrecognized code.
func (d DataType) String() string {
	switch d {
	case Int1:
		return "CDF_INT1"
	case Int2:
		return "CDF_INT2"
	case Int4:
		return "CDF_INT4"
	case Int8:
		return "CDF_INT8"
	case Uint1:
		return "CDF_UINT1"
	case Uint2:
		return "CDF_UINT2"
	case Uint4:
		return "CDF_UINT4"
	case Real4:
		return "CDF_REAL4"
	case Real8:
		return "CDF_REAL8"
	case Epoch:
		return "CDF_EPOCH"
	case Epoch16:
		return "CDF_EPOCH16"
	case TT2000:
		return "CDF_TIME_TT2000"
	case Byte:
		return "CDF_BYTE"
	case Float:
		return "CDF_FLOAT"
	case Double:
		return "CDF_DOUBLE"
	case UChar:
		return "CDF_UCHAR"
	case Char:
		return "CDF_CHAR"
	default:
		return fmt.Sprintf("CDF_UNKNOWN(%d)", int32(d))
	}
}

// ElementBytes returns the size in bytes of one primitive storage unit
// for d (not accounting for GroupSize or numElems).
func (d DataType) ElementBytes() (int, error) {
	k, err := d.Kind()
	if err != nil {
		return 0, err
	}
	switch k {
	case KindInt8, KindUint8, KindString:
		return 1, nil
	case KindInt16, KindUint16:
		return 2, nil
	case KindInt32, KindUint32, KindFloat32:
		return 4, nil
	case KindInt64, KindFloat64:
		return 8, nil
	default:
		return 0, fmt.Errorf("unhandled kind %d", k)
	}
}

// GroupSize returns the number of primitive storage units that make up
// one logical value of this type. Every type has group size 1 except
// EPOCH16, whose value is a pair of doubles (seconds, picoseconds).
func (d DataType) GroupSize() int {
	if d == Epoch16 {
		return 2
	}
	return 1
}

// IsString reports whether d's numElems field is interpreted as a
// string length rather than an array length (spec.md §4.7).
func (d DataType) IsString() bool {
	return d == Char || d == UChar
}

// Encoding enumerates CDF's numeric encodings, each implying a byte
// order for multi-byte scalar fields. Values match the CDF Internal
// Format Description.
type Encoding int32

const (
	EncodingNetwork    Encoding = 1
	EncodingSun        Encoding = 2
	EncodingVAX        Encoding = 3
	EncodingDecstation Encoding = 4
	EncodingSGi        Encoding = 5
	EncodingIBMPC      Encoding = 6
	EncodingIBMRS      Encoding = 7
	EncodingHP         Encoding = 9
	EncodingNeXT       Encoding = 10
	EncodingAlphaOSF1  Encoding = 11
	EncodingAlphaVMSd  Encoding = 12
	EncodingAlphaVMSg  Encoding = 13
	EncodingAlphaVMSi  Encoding = 14
	EncodingARMLittle  Encoding = 15
	EncodingARMBig     Encoding = 16
)

// ByteOrder returns the numeric byte order implied by e, or an error if
// e is unknown or uses a byte order that is neither pure big- nor
// pure little-endian (spec.md §1 non-goals, §4.8 step 5).
func (e Encoding) ByteOrder() (binary.ByteOrder, error) {
	switch e {
	case EncodingNetwork, EncodingSun, EncodingSGi, EncodingIBMRS, EncodingHP, EncodingNeXT, EncodingARMBig:
		return binary.BigEndian, nil
	case EncodingIBMPC, EncodingDecstation, EncodingAlphaOSF1, EncodingARMLittle:
		return binary.LittleEndian, nil
	case EncodingVAX, EncodingAlphaVMSd, EncodingAlphaVMSg, EncodingAlphaVMSi:
		return nil, fmt.Errorf("encoding %d uses a VAX-style mixed-endian numeric format, not supported", int32(e))
	default:
		return nil, fmt.Errorf("unknown encoding: %d", int32(e))
	}
}
