// Package logtail reads the tail of foilwatch's zerolog JSON log for the
// log pane.
//
// Read extracts the last N lines with a single pass and a ring buffer of N
// slots, so memory stays bounded however large the file grows. Tail decodes
// those lines into Entry values: the time, level and message fields are
// lifted out and everything else lands in Fields. Lines that are not JSON
// (a panic trace, a truncated write) are kept as a bare message rather than
// dropped.
//
// Format renders an Entry as plain text; colouring by level is left to the
// UI, which owns the theme.
//
// Read returns nil, nil for a missing file. Other I/O errors are wrapped.
package logtail
