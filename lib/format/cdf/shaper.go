package cdf

import (
	"github.com/scigolib/cdf/lib/format/cdf/internal/record"
)

// ShapeClass describes the Go representation Shaper.Shape produces: the
// element kind, and whether the value is a scalar or a flat array
// (spec.md §4.4, §6 — used by the out-of-scope table adapter to deduce
// column metadata).
type ShapeClass struct {
	ElementKind record.Kind
	Array       bool
}

// Shaper translates a variable's raw linear element buffer into shaped
// multi-dimensional values, honouring dimension variance and row/column
// major storage order (spec.md §4.4).
type Shaper struct {
	dataType record.DataType
	dimSizes []int32
	dimVarys []bool
	rowMajor bool

	varyingSizes []int32
}

// NewShaper builds a Shaper for a variable with the given data type,
// declared dimension sizes/varys, and the file's major-order flag.
func NewShaper(dt record.DataType, dimSizes []int32, dimVarys []bool, rowMajor bool) *Shaper {
	var varying []int32
	for i, sz := range dimSizes {
		if dimVarys[i] {
			varying = append(varying, sz)
		}
	}
	return &Shaper{dataType: dt, dimSizes: dimSizes, dimVarys: dimVarys, rowMajor: rowMajor, varyingSizes: varying}
}

// DataType returns the variable's declared data type.
func (s *Shaper) DataType() record.DataType { return s.dataType }

// DimSizes returns the variable's full declared dimension sizes,
// including dimensions whose variance is suppressed.
func (s *Shaper) DimSizes() []int32 {
	out := make([]int32, len(s.dimSizes))
	copy(out, s.dimSizes)
	return out
}

// RawItemCount returns the number of primitive elements actually stored
// per record on disk: the product of dimSizes[i] over dimensions where
// dimVarys[i] is true; non-varying dimensions contribute a factor of 1,
// since only a single slice of data exists for them (spec.md §4.4).
func (s *Shaper) RawItemCount() int32 {
	count := int32(1)
	for _, sz := range s.varyingSizes {
		count *= sz
	}
	return count
}

// GetShapeClass reports the Go representation Shape will produce for
// this variable: scalar when the logical element count is 1, a flat
// array otherwise.
func (s *Shaper) GetShapeClass() ShapeClass {
	k, err := s.dataType.Kind()
	if err != nil {
		k = record.KindUint8
	}
	return ShapeClass{ElementKind: k, Array: s.RawItemCount() != 1}
}

// shapeGeneric reorders a raw buffer (stored in s.rowMajor order over
// the varying dimensions) into either the logical shape (varying
// dimensions only, row-major, collapsed to a scalar when there's
// exactly one element) or the raw shape (every declared dimension at
// its full extent, with non-varying dimensions' single stored value
// broadcast across their extent).
func shapeGeneric[T any](s *Shaper, raw []T, logical bool) any {
	ordered := raw
	if !s.rowMajor && len(s.varyingSizes) > 1 {
		ordered = transposeToRowMajor(raw, s.varyingSizes)
	}

	if logical {
		if len(ordered) == 1 {
			return ordered[0]
		}
		out := make([]T, len(ordered))
		copy(out, ordered)
		return out
	}

	return expandToFull(ordered, s.dimSizes, s.dimVarys)
}

// transposeToRowMajor converts raw, stored in column-major order over
// dims (the first dimension varies fastest), into row-major order (the
// last dimension varies fastest). See spec.md §8 scenario 2.
func transposeToRowMajor[T any](raw []T, dims []int32) []T {
	n := len(dims)
	total := 1
	for _, d := range dims {
		total *= int(d)
	}
	out := make([]T, total)
	for outIdx := range out {
		rem := outIdx
		idx := make([]int, n)
		for k := n - 1; k >= 0; k-- {
			idx[k] = rem % int(dims[k])
			rem /= int(dims[k])
		}
		srcIdx := 0
		mult := 1
		for k := 0; k < n; k++ {
			srcIdx += idx[k] * mult
			mult *= int(dims[k])
		}
		out[outIdx] = raw[srcIdx]
	}
	return out
}

// expandToFull broadcasts rowMajorRaw (row-major over only the varying
// dimensions) into a row-major array spanning every declared dimension
// at its full extent, repeating the single stored value along each
// non-varying axis.
func expandToFull[T any](rowMajorRaw []T, dimSizes []int32, dimVarys []bool) []T {
	n := len(dimSizes)
	fullTotal := 1
	for _, sz := range dimSizes {
		fullTotal *= int(sz)
	}
	if fullTotal == 0 {
		fullTotal = 1
	}

	var varyingSizes []int
	for i, sz := range dimSizes {
		if dimVarys[i] {
			varyingSizes = append(varyingSizes, int(sz))
		}
	}

	out := make([]T, fullTotal)
	for outIdx := range out {
		rem := outIdx
		idx := make([]int, n)
		for k := n - 1; k >= 0; k-- {
			idx[k] = rem % int(dimSizes[k])
			rem /= int(dimSizes[k])
		}
		srcIdx := 0
		vi := 0
		for k := range n {
			if dimVarys[k] {
				srcIdx = srcIdx*varyingSizes[vi] + idx[k]
				vi++
			}
		}
		if len(rowMajorRaw) == 0 {
			continue
		}
		out[outIdx] = rowMajorRaw[srcIdx]
	}
	return out
}
