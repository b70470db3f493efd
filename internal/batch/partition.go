package batch

import (
	"errors"
	"fmt"
)

// Limits of the batch size accepted on the command line
const (
	MinSize     = 1
	MaxSize     = 5
	DefaultSize = 5
)

// ErrInvalidBatchSize is returned for batch sizes outside MinSize..MaxSize
var ErrInvalidBatchSize = errors.New("invalid batch size")

// ValidateSize checks a user supplied batch size
func ValidateSize(size int) error {
	if size < MinSize || size > MaxSize {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidBatchSize, size, MinSize, MaxSize)
	}
	return nil
}

// Partition splits items into consecutive batches of size. Every item ends
// up in exactly one batch, order is preserved and only the last batch may
// be shorter.
func Partition[T any](items []T, size int) ([][]T, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, size)
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches, nil
}
