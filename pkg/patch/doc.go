// Package patch provides a line-oriented, multi-range patch engine for text files.
//
// Callers describe intended edits as old/new string pairs bound to one or more
// 1-based line ranges. The engine re-reads the file, rejects overlapping or
// out-of-bounds ranges, verifies that every range still holds the expected
// content (exactly or ignoring surrounding whitespace per line), and applies all
// replacements in descending line order so earlier edits never shift the targets
// of later ones. A file is either rewritten as a whole or left untouched.
//
// Storage is pluggable: FilesystemStorage writes through a temporary file and an
// atomic rename, MemoryStorage keeps documents in a map which makes the engine
// easy to embed in tests and previews.
package patch
