package cdf

import "github.com/scigolib/cdf/lib/format/cdf/internal/record"

// GlobalAttribute holds a global-scope attribute's ordered entry values
// (spec.md §4.7, §6). Entries are indexed by entry number; a sparse
// entry list (gaps between used entries) leaves the corresponding slot
// nil rather than shifting later entries down.
type GlobalAttribute struct {
	Name    string
	Entries []any
}

// VariableAttribute holds a variable-scope attribute's entries, kept
// separately for r- and z-variables since each kind has its own,
// independent numbering space (spec.md §3, §4.7).
type VariableAttribute struct {
	Name     string
	rEntries map[int32]any
	zEntries map[int32]any
}

// Get returns the entry attached to the variable numbered num (in its
// own r/z numbering space), or ok=false if this attribute has no entry
// for that variable.
func (a *VariableAttribute) Get(isZVariable bool, num int32) (value any, ok bool) {
	if isZVariable {
		value, ok = a.zEntries[num]
		return value, ok
	}
	value, ok = a.rEntries[num]
	return value, ok
}

// CdfContent is the fully-resolved, read-only view of one CDF file's
// metadata: its global structure, attributes, and variables (spec.md
// §6). It holds no open file handle beyond what its Variables need for
// lazy record reads.
type CdfContent struct {
	Version  int32
	Release  int32
	Encoding record.Encoding
	RowMajor bool

	GlobalAttributes   []*GlobalAttribute
	VariableAttributes []*VariableAttribute

	RVariables []Variable
	ZVariables []Variable
}

// Variable looks up a variable by name across both r- and z-variables.
func (c *CdfContent) Variable(name string) (Variable, bool) {
	for _, v := range c.ZVariables {
		if v.Name() == name {
			return v, true
		}
	}
	for _, v := range c.RVariables {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

// GlobalAttribute looks up a global attribute by name.
func (c *CdfContent) GlobalAttribute(name string) (*GlobalAttribute, bool) {
	for _, a := range c.GlobalAttributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// VariableAttribute looks up a variable-scope attribute by name.
func (c *CdfContent) VariableAttribute(name string) (*VariableAttribute, bool) {
	for _, a := range c.VariableAttributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}
