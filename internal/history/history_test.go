package history

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/sweeper/internal/queue"
)

// fakeChannel serves a fixed history, newest first, and records each request.
type fakeChannel struct {
	items  []Item
	limits []int
	err    error
}

func newFakeChannel(n int) *fakeChannel {
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ID:        strconv.Itoa(n - i),
			AuthorID:  "author",
			Timestamp: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return &fakeChannel{items: items}
}

func (f *fakeChannel) Messages(_ context.Context, _ string, before string, limit int) ([]Item, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	start := 0
	if before != "" {
		for i, it := range f.items {
			if it.ID == before {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(f.items))
	return append([]Item(nil), f.items[start:end]...), nil
}

type directRunner struct{ calls int }

func (r *directRunner) Do(ctx context.Context, task queue.Task) error {
	r.calls++
	return task(ctx)
}

func TestLoadUntilFetchesInPagesOfAtMostHundred(t *testing.T) {
	ch := newFakeChannel(300)
	runner := &directRunner{}
	c := New("chan", ch, runner)

	c.SetCapacity(150)
	require.NoError(t, c.LoadUntil(context.Background(), 150))

	assert.Equal(t, 150, c.Len())
	assert.Equal(t, []int{100, 50}, ch.limits)
	assert.Equal(t, 2, runner.calls)
	assert.False(t, c.Exhausted())

	items := c.Items()
	assert.Equal(t, "300", items[0].ID)
	assert.Equal(t, "151", items[149].ID)
}

func TestLoadUntilExactHistoryIsNotExhausted(t *testing.T) {
	ch := newFakeChannel(150)
	c := New("chan", ch, &directRunner{})
	c.SetCapacity(150)

	require.NoError(t, c.LoadUntil(context.Background(), 150))
	assert.Equal(t, 150, c.Len())
}

func TestLoadUntilFailsWhenHistoryRunsOut(t *testing.T) {
	ch := newFakeChannel(80)
	c := New("chan", ch, &directRunner{})
	c.SetCapacity(150)

	err := c.LoadUntil(context.Background(), 150)
	require.ErrorIs(t, err, ErrInsufficientHistory)
	assert.True(t, c.Exhausted())
	assert.Equal(t, 80, c.Len())
	assert.Equal(t, []int{100}, ch.limits, "an exhausted history is not fetched again")
}

func TestLoadUntilSurfacesFetchErrors(t *testing.T) {
	ch := newFakeChannel(10)
	boom := errors.New("boom")
	ch.err = boom
	c := New("chan", ch, &directRunner{})
	c.SetCapacity(5)

	err := c.LoadUntil(context.Background(), 5)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInsufficientHistory)
	assert.Zero(t, c.Len())
}

func TestLoadMoreRespectsCapacity(t *testing.T) {
	ch := newFakeChannel(50)
	c := New("chan", ch, &directRunner{})

	loaded, err := c.LoadMore(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, loaded, "zero capacity admits nothing")
	assert.Empty(t, ch.limits)

	c.SetCapacity(7)
	loaded, err = c.LoadMore(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 7, c.Len())
	assert.Equal(t, []int{7}, ch.limits)

	loaded, err = c.LoadMore(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestSetCapacityShrinkEvictsOldest(t *testing.T) {
	ch := newFakeChannel(20)
	c := New("chan", ch, &directRunner{})
	c.SetCapacity(20)
	require.NoError(t, c.LoadUntil(context.Background(), 20))

	c.SetCapacity(5)
	items := c.Items()
	require.Len(t, items, 5)
	assert.Equal(t, "20", items[0].ID)
	assert.Equal(t, "16", items[4].ID)

	c.SetCapacity(0)
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Capacity())
}

func TestLoadUntilThroughRealQueue(t *testing.T) {
	q := queue.New(queue.Options{Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	ch := newFakeChannel(120)
	c := New("chan", ch, q)
	c.SetCapacity(120)
	require.NoError(t, c.LoadUntil(ctx, 120))
	assert.Equal(t, 120, c.Len())
}
