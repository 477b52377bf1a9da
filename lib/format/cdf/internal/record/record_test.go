package record

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
)

type memReaderAt struct{ data []byte }

func (m *memReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func newTestBuf(data []byte) *buf.Buf {
	b := buf.New(&memReaderAt{data: data}, int64(len(data)))
	b.SetOffset64(true)
	b.SetByteOrder(binary.BigEndian)
	return b
}

func TestReadHeaderRejectsWrongTag(t *testing.T) {
	data := make([]byte, 16)
	binary.BigEndian.PutUint64(data[0:], 16) // size
	binary.BigEndian.PutUint32(data[8:], uint32(TagZVDR))

	b := newTestBuf(data)
	f := NewFactory(256)
	_, err := f.readHeader(b, 0, TagCDR, "test")
	if err == nil {
		t.Fatal("expected a tag mismatch error")
	}
}

func TestReadHeaderRejectsUndersizedRecord(t *testing.T) {
	data := make([]byte, 16)
	binary.BigEndian.PutUint64(data[0:], 4) // smaller than the 12-byte header itself
	binary.BigEndian.PutUint32(data[8:], uint32(TagCDR))

	b := newTestBuf(data)
	f := NewFactory(256)
	_, err := f.readHeader(b, 0, TagCDR, "test")
	if err == nil {
		t.Fatal("expected an undersized-record error")
	}
}

func TestPeekTag(t *testing.T) {
	data := make([]byte, 16)
	binary.BigEndian.PutUint64(data[0:], 16)
	binary.BigEndian.PutUint32(data[8:], uint32(TagVVR))

	b := newTestBuf(data)
	tag, err := PeekTag(b, 0)
	if err != nil {
		t.Fatalf("PeekTag: %v", err)
	}
	if tag != TagVVR {
		t.Fatalf("expected TagVVR, got %d", tag)
	}
}

func TestDataTypeElementBytes(t *testing.T) {
	cases := []struct {
		dt   DataType
		want int
	}{
		{Int1, 1}, {Uint1, 1}, {Byte, 1},
		{Int2, 2}, {Uint2, 2},
		{Int4, 4}, {Uint4, 4}, {Real4, 4}, {Float, 4},
		{Int8, 8}, {Real8, 8}, {Double, 8}, {Epoch, 8}, {TT2000, 8},
		{Char, 1}, {UChar, 1},
	}
	for _, c := range cases {
		got, err := c.dt.ElementBytes()
		if err != nil {
			t.Fatalf("%v: %v", c.dt, err)
		}
		if got != c.want {
			t.Fatalf("%v: expected %d bytes, got %d", c.dt, c.want, got)
		}
	}
}

func TestDataTypeGroupSize(t *testing.T) {
	if Epoch16.GroupSize() != 2 {
		t.Fatal("EPOCH16 should report group size 2")
	}
	if Real8.GroupSize() != 1 {
		t.Fatal("REAL8 should report group size 1")
	}
}

func TestEncodingByteOrderRejectsMixedEndian(t *testing.T) {
	if _, err := EncodingVAX.ByteOrder(); err == nil {
		t.Fatal("expected VAX encoding to be rejected as mixed-endian")
	}
	if _, err := EncodingAlphaVMSd.ByteOrder(); err == nil {
		t.Fatal("expected Alpha VMS D-float encoding to be rejected")
	}
}

func TestIsTerminator(t *testing.T) {
	if !IsTerminator(0) {
		t.Fatal("0 should be a terminator")
	}
	if !IsTerminator(-1) {
		t.Fatal("a negative offset should be a terminator")
	}
	if IsTerminator(8) {
		t.Fatal("a positive offset should not be a terminator")
	}
}
