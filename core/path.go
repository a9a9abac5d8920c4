package sah

import "strings"

// Segments splits a slash-separated path into its non-empty segments.
//
// Leading, trailing and repeated slashes are ignored, so "/ui//panel.dds/"
// yields ["ui", "panel.dds"]. A path with no segments ("", "/") refers to
// the root folder.
func Segments(p string) []string {
	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// isRootPath reports whether p names the root folder.
func isRootPath(p string) bool {
	return p == "." || len(Segments(p)) == 0
}
