package cdf

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/scigolib/cdf/lib/format/cdf/internal/buf"
	"github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"
	"github.com/scigolib/cdf/lib/format/cdf/internal/compress"
	"github.com/scigolib/cdf/lib/format/cdf/internal/record"
)

// Magic words identifying a CDF variant (spec.md §3, §4.1). The first
// word alone distinguishes v3 from v2.6/2.7 from pre-v2.6; the second
// word additionally flags whole-file compression.
const (
	magicV3     uint32 = 0xCDF30001
	magicV26V27 uint32 = 0xCDF26002
	magicPreV26 uint32 = 0x0000FFFF

	magicSuffixPlain      uint32 = 0x0000FFFF
	magicSuffixCompressed uint32 = 0xCCCC0001
)

// preV26NameWidth is the name-field width (in bytes) used by variants
// before v2.6 and by v2.6/2.7 itself; v3 widened it to 256 to
// accommodate longer variable and attribute names (Open Question
// resolved in DESIGN.md).
const (
	preV26NameWidth = 64
	v3NameWidth     = 256
)

// IsMagic reports whether the first 8 bytes of a candidate file look
// like a CDF magic header, without attempting a full parse.
func IsMagic(head []byte) bool {
	if len(head) < 8 {
		return false
	}
	word1 := binary.BigEndian.Uint32(head[0:4])
	word2 := binary.BigEndian.Uint32(head[4:8])
	_, err := detectVariant(word1, word2)
	return err == nil
}

// variant captures everything the magic header tells us before the CDR
// itself is parsed.
type variant struct {
	offset64   bool
	nameWidth  int
	compressed bool
}

// detectVariant validates the (word1, word2) pair as a whole against the
// five magic-header rows spec.md §3 enumerates. Pre-v2.6 never carries
// whole-file compression, so (magicPreV26, magicSuffixCompressed) is not
// one of the five rows and must be rejected even though each word is
// individually recognized; any other combination is likewise a format
// error.
func detectVariant(word1, word2 uint32) (variant, error) {
	switch {
	case word1 == magicV3 && word2 == magicSuffixPlain:
		return variant{offset64: true, nameWidth: v3NameWidth, compressed: false}, nil
	case word1 == magicV3 && word2 == magicSuffixCompressed:
		return variant{offset64: true, nameWidth: v3NameWidth, compressed: true}, nil
	case word1 == magicV26V27 && word2 == magicSuffixPlain:
		return variant{offset64: false, nameWidth: preV26NameWidth, compressed: false}, nil
	case word1 == magicV26V27 && word2 == magicSuffixCompressed:
		return variant{offset64: false, nameWidth: preV26NameWidth, compressed: true}, nil
	case word1 == magicPreV26 && word2 == magicSuffixPlain:
		return variant{offset64: false, nameWidth: preV26NameWidth, compressed: false}, nil
	default:
		return variant{}, cdferr.NewFormatError("magic header", "unrecognized magic word combination")
	}
}

// Open parses a CDF file exposed through r (size bytes long) and
// resolves its full metadata: global structure, attributes, and
// variables. Variable record data is not read until a Variable's
// ReadRecord is called (spec.md §4.8).
func Open(r io.ReaderAt, size int64) (*CdfContent, error) {
	b := buf.New(r, size)

	word1, err := b.ReadMagicWord(0)
	if err != nil {
		return nil, err
	}
	word2, err := b.ReadMagicWord(4)
	if err != nil {
		return nil, err
	}
	v, err := detectVariant(word1, word2)
	if err != nil {
		return nil, err
	}
	b.SetOffset64(v.offset64)

	factory := record.NewFactory(v.nameWidth)

	body := b
	if v.compressed {
		body, err = decompressWholeFile(b, factory, v)
		if err != nil {
			return nil, err
		}
	}

	cdr, err := factory.ReadCDR(body, 8)
	if err != nil {
		return nil, err
	}
	if !cdr.SingleFile() {
		return nil, cdferr.NewFormatError("CDR", "multi-file CDFs are not supported")
	}

	order, err := cdr.Encoding.ByteOrder()
	if err != nil {
		return nil, err
	}
	body.SetByteOrder(order)

	gdr, err := factory.ReadGDR(body, cdr.GDROffset)
	if err != nil {
		return nil, err
	}
	rowMajor := cdr.RowMajor()

	rVars, err := walkVariableChain(body, factory, gdr.RVDRHead, false, gdr.RDimSizes, order, rowMajor)
	if err != nil {
		return nil, err
	}
	zVars, err := walkVariableChain(body, factory, gdr.ZVDRHead, true, nil, order, rowMajor)
	if err != nil {
		return nil, err
	}

	globals, varAttrs, err := walkAttributeChain(body, factory, gdr.ADRHead, order)
	if err != nil {
		return nil, err
	}

	return &CdfContent{
		Version:            cdr.Version,
		Release:            cdr.Release,
		Encoding:           cdr.Encoding,
		RowMajor:           rowMajor,
		GlobalAttributes:   globals,
		VariableAttributes: varAttrs,
		RVariables:         rVars,
		ZVariables:         zVars,
	}, nil
}

// decompressWholeFile expands a whole-file-compressed CDF's CCR payload
// and re-exposes it as a Buf, with the leading 8 bytes of magic-header
// padding reinstated so every subsequent offset (taken straight from
// the file's own CDR/GDR/record fields) still lines up (spec.md §4.1,
// §9 — the "Padded" offset reconciliation).
func decompressWholeFile(b *buf.Buf, factory *record.Factory, v variant) (*buf.Buf, error) {
	ccr, err := factory.ReadCCR(b, 8)
	if err != nil {
		return nil, err
	}
	cpr, err := factory.ReadCPR(b, ccr.CPROffset)
	if err != nil {
		return nil, err
	}

	length := ccr.DataEnd - ccr.DataOffset
	region := io.NewSectionReader(b.SubReaderAt(ccr.DataOffset, length), 0, length)

	decoded, err := compress.Uncompress(cpr.CType, region, int(ccr.USize))
	if err != nil {
		return nil, err
	}
	payload, err := io.ReadAll(decoded)
	if err != nil {
		return nil, cdferr.WrapIOError("whole-file decompression", err)
	}

	padded, err := io.ReadAll(compress.NewPadded(8, bytes.NewReader(payload)))
	if err != nil {
		return nil, cdferr.WrapIOError("whole-file padding", err)
	}

	return buf.FromBytes(padded, v.offset64, binary.BigEndian), nil
}

// walkVariableChain follows a VDR linked list starting at head, parsing
// each node and realizing it as a Variable. wantZ selects the rVDR vs
// zVDR tag; rDimSizes supplies the shared dimensionality r-variables
// take from the GDR.
func walkVariableChain(
	b *buf.Buf,
	factory *record.Factory,
	head int64,
	wantZ bool,
	rDimSizes []int32,
	order binary.ByteOrder,
	rowMajor bool,
) ([]Variable, error) {
	var out []Variable
	offset := head
	for steps := 0; !record.IsTerminator(offset); steps++ {
		if steps > record.MaxChainWalk {
			return nil, cdferr.NewFormatError("VDR chain", "exceeded maximum traversal depth")
		}
		vdr, err := factory.ReadVDR(b, offset, wantZ, rDimSizes)
		if err != nil {
			return nil, err
		}
		v, err := NewVdrVariable(b, factory, vdr, order, rowMajor)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		offset = vdr.Next
	}
	return out, nil
}

// walkAttributeChain follows the GDR's ADR linked list, splitting
// global- and variable-scope attributes and, for each, walking its
// g-/z-entry lists to build ordered (global) or keyed (variable)
// entry sets (spec.md §4.7).
func walkAttributeChain(
	b *buf.Buf,
	factory *record.Factory,
	head int64,
	order binary.ByteOrder,
) ([]*GlobalAttribute, []*VariableAttribute, error) {
	var globals []*GlobalAttribute
	var varAttrs []*VariableAttribute

	offset := head
	for steps := 0; !record.IsTerminator(offset); steps++ {
		if steps > record.MaxChainWalk {
			return nil, nil, cdferr.NewFormatError("ADR chain", "exceeded maximum traversal depth")
		}
		adr, err := factory.ReadADR(b, offset)
		if err != nil {
			return nil, nil, err
		}

		if adr.IsGlobal() {
			gEntries, err := readEntryList(b, factory, adr.GEntryHead, false, order)
			if err != nil {
				return nil, nil, err
			}
			zEntries, err := readEntryList(b, factory, adr.ZEntryHead, true, order)
			if err != nil {
				return nil, nil, err
			}
			ordered := make([]any, adr.MaxGEntry+1)
			for num, val := range gEntries {
				ordered[num] = val
			}
			zOrdered := make([]any, adr.MaxZEntry+1)
			for num, val := range zEntries {
				zOrdered[num] = val
			}
			ordered = append(ordered, zOrdered...)
			globals = append(globals, &GlobalAttribute{Name: adr.Name, Entries: ordered})
		} else {
			rEntries, err := readEntryList(b, factory, adr.GEntryHead, false, order)
			if err != nil {
				return nil, nil, err
			}
			zEntries, err := readEntryList(b, factory, adr.ZEntryHead, true, order)
			if err != nil {
				return nil, nil, err
			}
			varAttrs = append(varAttrs, &VariableAttribute{Name: adr.Name, rEntries: rEntries, zEntries: zEntries})
		}

		offset = adr.Next
	}

	return globals, varAttrs, nil
}

// readEntryList walks an AEDR/AzEDR linked list starting at head,
// decoding each entry's value and keying it by entry number.
func readEntryList(
	b *buf.Buf,
	factory *record.Factory,
	head int64,
	wantZ bool,
	order binary.ByteOrder,
) (map[int32]any, error) {
	out := make(map[int32]any)
	offset := head
	for steps := 0; !record.IsTerminator(offset); steps++ {
		if steps > record.MaxChainWalk {
			return nil, cdferr.NewFormatError("entry chain", "exceeded maximum traversal depth")
		}
		aedr, err := factory.ReadAEDR(b, offset, wantZ)
		if err != nil {
			return nil, err
		}
		val, err := decodeEntryValue(aedr, order)
		if err != nil {
			return nil, err
		}
		out[aedr.Num] = val
		offset = aedr.Next
	}
	return out, nil
}

// decodeEntryValue decodes an attribute entry's inline bytes into a
// scalar or a flat slice, per its declared data type and element count.
func decodeEntryValue(aedr *record.AEDR, order binary.ByteOrder) (any, error) {
	reader := NewDataReader(aedr.DataType, order)
	if aedr.DataType.IsString() {
		arr, err := reader.CreateRawValueArray(aedr.Value, 1, aedr.NumElems)
		if err != nil {
			return nil, err
		}
		return arr.([]string)[0], nil
	}
	arr, err := reader.CreateRawValueArray(aedr.Value, int(aedr.NumElems), 1)
	if err != nil {
		return nil, err
	}
	return scalarOrSlice(arr), nil
}

// scalarOrSlice collapses a single-element raw array down to its bare
// element, matching how record data of logical length 1 is shaped.
func scalarOrSlice(arr any) any {
	switch v := arr.(type) {
	case []int8:
		if len(v) == 1 {
			return v[0]
		}
	case []int16:
		if len(v) == 1 {
			return v[0]
		}
	case []int32:
		if len(v) == 1 {
			return v[0]
		}
	case []int64:
		if len(v) == 1 {
			return v[0]
		}
	case []uint8:
		if len(v) == 1 {
			return v[0]
		}
	case []uint16:
		if len(v) == 1 {
			return v[0]
		}
	case []uint32:
		if len(v) == 1 {
			return v[0]
		}
	case []float32:
		if len(v) == 1 {
			return v[0]
		}
	case []float64:
		if len(v) == 1 {
			return v[0]
		}
	}
	return arr
}
