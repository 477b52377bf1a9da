// Package cdf reads NASA Common Data Format (CDF) files: a
// self-describing binary container for gridded and tabular scientific
// data, used throughout space physics and heliophysics archives.
//
// Open parses a file's global structure, attributes, and variable
// descriptors up front; variable record data is decoded lazily, one
// record at a time, through Variable.ReadRecord. The reader supports
// the pre-v2.6, v2.6/2.7, and v3 magic-word variants, both 32- and
// 64-bit file offsets, row- and column-major array storage, and
// whole-file and per-variable compression. Multi-file CDFs (the
// variable-content ".v1", ".v2", ... sibling files some pre-v3 writers
// produced) are not supported; Open rejects them with a FormatError.
package cdf
