package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rendezvous/internal/join"
	"github.com/roach88/rendezvous/internal/stream"
)

func addPair(args []any) (int, error) {
	return args[0].(int) + args[1].(int), nil
}

// runPairs joins two finite sources under clock and returns the seqs stamped
// on the recorded trace.
func runPairs(t *testing.T, clock *DeterministicClock, id string) []int64 {
	t.Helper()

	rec := join.NewMemoryRecorder()
	down := NewCollector[int]()
	h, err := join.Join(context.Background(), down, []*join.Plan[int]{
		join.Then(join.When(join.From(stream.Just(1, 2)), join.From(stream.Just(10, 20))), addPair),
	}, join.WithClock(clock), join.WithRecorder(rec), join.WithIDGenerator(NewFixedID(id)))
	require.NoError(t, err)
	t.Cleanup(h.Dispose)

	require.True(t, down.Completed())
	assert.Equal(t, []int{11, 22}, down.Values())

	var seqs []int64
	for _, ev := range rec.Events() {
		assert.Equal(t, id, ev.CoordinatorID)
		seqs = append(seqs, ev.Seq)
	}
	return seqs
}

func contiguous(from int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = from + int64(i)
	}
	return out
}

func TestDeterministicClock_StartsAtZero(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_SharedAcrossCoordinators(t *testing.T) {
	clock := NewDeterministicClock()

	first := runPairs(t, clock, "first")
	require.NotEmpty(t, first)
	assert.Equal(t, contiguous(1, len(first)), first)

	// The second join picks up where the first one stopped.
	second := runPairs(t, clock, "second")
	require.Len(t, second, len(first))
	assert.Equal(t, contiguous(int64(len(first))+1, len(second)), second)
	assert.Equal(t, int64(len(first)+len(second)), clock.Current())
}

func TestDeterministicClock_ResetReplaysSeqs(t *testing.T) {
	clock := NewDeterministicClock()

	before := runPairs(t, clock, "replay")
	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())

	after := runPairs(t, clock, "replay")
	assert.Equal(t, before, after)
}

func TestDeterministicClock_ConcurrentCoordinators(t *testing.T) {
	const joins = 20

	clock := NewDeterministicClock()
	rec := join.NewMemoryRecorder()

	var wg sync.WaitGroup
	for range joins {
		wg.Add(1)
		go func() {
			defer wg.Done()
			down := NewCollector[int]()
			h, err := join.Join(context.Background(), down, []*join.Plan[int]{
				join.Then(join.When(join.From(stream.Just(1, 2, 3)), join.From(stream.Just(4, 5, 6))), addPair),
			}, join.WithClock(clock), join.WithRecorder(rec), join.WithIDGenerator(NewFixedID("")))
			if !assert.NoError(t, err) {
				return
			}
			defer h.Dispose()
			assert.Equal(t, []int{5, 7, 9}, down.Values())
		}()
	}
	wg.Wait()

	events := rec.Events()
	require.NotEmpty(t, events)

	seen := make(map[int64]bool, len(events))
	for _, ev := range events {
		require.False(t, seen[ev.Seq], "duplicate seq %d", ev.Seq)
		seen[ev.Seq] = true
	}
	for i := int64(1); i <= int64(len(events)); i++ {
		assert.True(t, seen[i], "missing seq %d", i)
	}
	assert.Equal(t, int64(len(events)), clock.Current())
}
