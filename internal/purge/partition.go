package purge

import "fmt"

// Partition splits items into consecutive chunks of at most maxSize, keeping
// order. Concatenating the chunks yields items again. Chunks share the
// backing array of items but cannot grow into each other.
func Partition[T any](items []T, maxSize int) [][]T {
	if maxSize <= 0 {
		panic(fmt.Sprintf("purge: invalid batch size %d", maxSize))
	}

	chunks := make([][]T, 0, (len(items)+maxSize-1)/maxSize)
	for start := 0; start < len(items); start += maxSize {
		end := min(start+maxSize, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
