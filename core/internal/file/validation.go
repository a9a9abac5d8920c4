package file

import (
	"fmt"

	"github.com/meigma/sah/core/internal/sahtype"
	"github.com/meigma/sah/core/internal/sizing"
)

// ValidateForRead checks that the file's range [Offset, Offset+Length)
// lies within a data blob of sourceSize bytes.
func ValidateForRead(f *sahtype.File, sourceSize int64) error {
	if _, ok := sizing.RangeEnd(f.Offset, f.Length, sourceSize); !ok {
		return fmt.Errorf("offset %d length %d exceeds data size %d: %w",
			f.Offset, f.Length, sourceSize, sahtype.ErrDataOutOfBounds)
	}
	return nil
}
