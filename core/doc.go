// Package sah reads SAH/SAF game archives.
//
// An archive is two files:
//   - Header (data.sah): a binary tree of folders and file records
//   - Data (data.saf): the concatenated content of every file
//
// The header is decoded eagerly into an immutable tree when the archive is
// opened. File content is read lazily from the data file, with each file's
// byte range checked against the data file's current size.
//
// Paths are slash-separated and matched case-insensitively. Archive also
// implements fs.FS and related interfaces for stdlib compatibility.
package sah
