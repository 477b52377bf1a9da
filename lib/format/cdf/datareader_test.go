package cdf

import (
	"encoding/binary"
	"testing"

	"github.com/scigolib/cdf/lib/format/cdf/internal/record"
)

func TestDataReader_Strings(t *testing.T) {
	r := NewDataReader(record.Char, binary.BigEndian)
	data := []byte("foo\x00bar\x00")
	got, err := r.CreateRawValueArray(data, 2, 4)
	if err != nil {
		t.Fatalf("CreateRawValueArray: %v", err)
	}
	strs, ok := got.([]string)
	if !ok {
		t.Fatalf("expected []string, got %T", got)
	}
	if strs[0] != "foo" || strs[1] != "bar" {
		t.Fatalf("got %v", strs)
	}
}

func TestDataReader_Int16BigEndian(t *testing.T) {
	r := NewDataReader(record.Int2, binary.BigEndian)
	data := []byte{0x01, 0x02, 0xFF, 0xFE}
	got, err := r.CreateRawValueArray(data, 2, 1)
	if err != nil {
		t.Fatalf("CreateRawValueArray: %v", err)
	}
	vals, ok := got.([]int16)
	if !ok {
		t.Fatalf("expected []int16, got %T", got)
	}
	if vals[0] != 0x0102 || vals[1] != -2 {
		t.Fatalf("got %v", vals)
	}
}

func TestDataReader_Epoch16GroupSize(t *testing.T) {
	r := NewDataReader(record.Epoch16, binary.BigEndian)
	data := make([]byte, 16)
	binary.BigEndian.PutUint64(data[0:8], 0x3FF0000000000000) // 1.0
	binary.BigEndian.PutUint64(data[8:16], 0x4000000000000000) // 2.0
	got, err := r.CreateRawValueArray(data, 1, 1)
	if err != nil {
		t.Fatalf("CreateRawValueArray: %v", err)
	}
	vals, ok := got.([]float64)
	if !ok {
		t.Fatalf("expected []float64, got %T", got)
	}
	if len(vals) != 2 {
		t.Fatalf("expected 2 raw float64s (1 EPOCH16 group), got %d", len(vals))
	}
	if vals[0] != 1.0 || vals[1] != 2.0 {
		t.Fatalf("got %v", vals)
	}
}

func TestDataReader_TooShortBuffer(t *testing.T) {
	r := NewDataReader(record.Real8, binary.BigEndian)
	_, err := r.CreateRawValueArray(make([]byte, 4), 1, 1)
	if err == nil {
		t.Fatal("expected an out-of-range error for a too-short buffer")
	}
}
