package sah

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/encoding"

	"github.com/meigma/sah/core/cache"
)

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for diagnostics. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithStrictPaths selects how ResolveFile and ResolveFolder walk a path.
//
// By default (false) the legacy walk is used: a file matching any segment
// is returned even if segments remain, and a segment that matches nothing
// is skipped. With strict paths every segment must match and a file only
// matches on the final segment.
func WithStrictPaths(strict bool) Option {
	return func(a *Archive) {
		a.strictPaths = strict
	}
}

// WithMaxDepth limits folder nesting in the header (default 256).
// Set to 0 to disable the limit.
func WithMaxDepth(n int) Option {
	return func(a *Archive) {
		a.maxDepth = n
	}
}

// WithMaxNameLength limits the byte length of a single name in the header
// (default 64 KiB). Set to 0 to disable the limit.
func WithMaxNameLength(n int) Option {
	return func(a *Archive) {
		a.maxNameLength = n
	}
}

// WithNameEncoding decodes names with the given character encoding instead
// of UTF-8. Older archives store names in a legacy code page.
func WithNameEncoding(enc encoding.Encoding) Option {
	return func(a *Archive) {
		if enc == nil {
			a.nameDecoder = nil
			return
		}
		a.nameDecoder = func(raw []byte) (string, error) {
			out, err := enc.NewDecoder().Bytes(raw)
			if err != nil {
				return "", fmt.Errorf("decode name %q: %w", raw, err)
			}
			return string(out), nil
		}
	}
}

// WithCache serves repeated reads of the same byte range from c.
//
// Range checks against the data blob still run on every read, and callers
// always receive their own copy. Concurrent misses for the same range are
// deduplicated. Entries are keyed by the source's SourceID; local data
// files derive it from their current size and modification time, so a
// rewritten file stops matching entries made before the rewrite.
func WithCache(c cache.Cache) Option {
	return func(a *Archive) {
		a.cache = c
	}
}

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

// defaultExtractWorkers is used when no ExtractWithWorkers option is set.
const defaultExtractWorkers = 4

type extractConfig struct {
	overwrite bool
	workers   int
}

// ExtractWithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}

// ExtractWithWorkers sets how many files are extracted concurrently.
// Values <= 0 use the default (4).
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}
