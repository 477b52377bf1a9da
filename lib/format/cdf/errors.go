package cdf

import "github.com/scigolib/cdf/lib/format/cdf/internal/cdferr"

// FormatError reports malformed CDF bytes — a bad magic, a record whose
// tag doesn't match what was expected, or a recognized-but-unsupported
// feature. Use errors.As to recover the Context/Err fields.
type FormatError = cdferr.FormatError

// IOError wraps a failure surfaced by the caller's io.ReaderAt.
type IOError = cdferr.IOError

// OutOfRange signals a value outside what an operation can serve, such
// as a value buffer too short for its declared elements. Variable.ReadRecord
// does not return it for uncovered records: it substitutes the pad value,
// or a zero fill when none is declared.
type OutOfRange = cdferr.OutOfRange
