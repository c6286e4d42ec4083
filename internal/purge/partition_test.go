package purge

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func TestPartitionIsLosslessAndOrderPreserving(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{0, 1, 2, 99, 100, 101, 150, 200, 201, 350} {
		items := make([]int, n)
		for i := range items {
			items[i] = rng.Int()
		}
		for _, size := range []int{1, 3, 50, 100} {
			chunks := Partition(items, size)

			var joined []int
			for _, c := range chunks {
				assert.LessOrEqual(t, len(c), size)
				assert.NotEmpty(t, c)
				joined = append(joined, c...)
			}
			if diff := cmp.Diff(items, joined, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Partition(%d items, %d) mismatch (-want +got):\n%s", n, size, diff)
			}
		}
	}
}

func TestPartitionChunkSizes(t *testing.T) {
	items := make([]string, 150)
	chunks := Partition(items, MaxBatchSize)
	assert.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 50)
}

func TestPartitionChunksDoNotAlias(t *testing.T) {
	items := []int{1, 2, 3, 4}
	chunks := Partition(items, 2)
	chunks[0] = append(chunks[0], 99)
	assert.Equal(t, []int{3, 4}, chunks[1])
}

func TestPartitionPanicsOnInvalidSize(t *testing.T) {
	assert.Panics(t, func() { Partition([]int{1}, 0) })
	assert.Panics(t, func() { Partition([]int{1}, -5) })
}
