// Package cmd implements the sah command-line interface.
//
// Commands are built with cobra and styled by fang in cmd/sah:
//   - info: header summary and entry counts
//   - ls: list a folder, optionally recursively
//   - cat: write archived files to stdout
//   - extract: copy a folder subtree to disk
//   - mount: serve the archive read-only over FUSE
//
// Every command opens the archive through the persistent --header and
// --data flags, or --data-url for a data blob served over HTTP.
package cmd
