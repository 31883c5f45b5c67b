// Package columnar implements the binary columnar tank stats export
// (spec.md §6's "tank-stats export-data" path): rows are grouped by
// release and tank id, transposed into a struct-of-arrays, gob-encoded,
// and framed with LZ4 (github.com/pierrec/lz4/v4), one file per
// release/tank-id pair.
package columnar
