// Package store persists the artifacts of a run: graph collections, result
// tables, the distance matrix and the intermediate skeleton images that a
// later stage can be restarted from.
//
// A graph collection file is a single tagged container: a short header
// (magic, format byte, CRC32 of the payload) followed by a zstd-compressed
// msgpack map holding the collection kind, format version, name and every
// graph. Arrays are length-prefixed, so readers never scan for an end of
// stream.
package store
