package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice_EmitsThenCompletes(t *testing.T) {
	r := &recorder[int]{}
	Just(1, 2, 3).Subscribe(r)

	assert.Equal(t, []int{1, 2, 3}, r.values)
	assert.Equal(t, 1, r.completed)
	assert.Empty(t, r.errs)
}

func TestFromSlice_TerminalError(t *testing.T) {
	boom := errors.New("boom")
	r := &recorder[int]{}
	FromSlice([]int{5}, boom).Subscribe(r)

	assert.Equal(t, []int{5}, r.values)
	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], boom)
	assert.Zero(t, r.completed)
}

func TestFromSlice_IsCold(t *testing.T) {
	src := Just("a", "b")
	first, second := &recorder[string]{}, &recorder[string]{}

	src.Subscribe(first)
	src.Subscribe(second)

	assert.Equal(t, first.values, second.values)
}

func TestEmptyFailNever(t *testing.T) {
	r := &recorder[int]{}
	Empty[int]().Subscribe(r)
	assert.Equal(t, 1, r.completed)

	boom := errors.New("boom")
	f := &recorder[int]{}
	Fail[int](boom).Subscribe(f)
	require.Len(t, f.errs, 1)

	n := &recorder[int]{}
	sub := Never[int]().Subscribe(n)
	sub.Dispose()
	assert.Empty(t, n.values)
	assert.Zero(t, n.completed)
	assert.Empty(t, n.errs)
}

func TestFromChannel_CompletesOnClose(t *testing.T) {
	in := make(chan int, 3)
	in <- 1
	in <- 2
	in <- 3
	close(in)

	done := make(chan struct{})
	r := &recorder[int]{}
	FromChannel(context.Background(), in).Subscribe(ObserverFuncs[int]{
		Next:      r.OnNext,
		Completed: func() { r.OnCompleted(); close(done) },
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion")
	}
	assert.Equal(t, []int{1, 2, 3}, r.values)
}

func TestFromChannel_ContextCancelFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan int)

	errCh := make(chan error, 1)
	FromChannel(ctx, in).Subscribe(ObserverFuncs[int]{
		Error: func(err error) { errCh <- err },
	})
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestFromChannel_DisposeIsSilent(t *testing.T) {
	in := make(chan int)
	r := &recorder[int]{}
	sub := FromChannel(context.Background(), in).Subscribe(r)
	sub.Dispose()

	time.Sleep(20 * time.Millisecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Empty(t, r.errs)
	assert.Zero(t, r.completed)
}

func TestComposite_DisposesAll(t *testing.T) {
	var calls []int
	c := Composite{
		NewDisposable(func() { calls = append(calls, 1) }),
		nil,
		NewDisposable(func() { calls = append(calls, 2) }),
	}
	c.Dispose()
	c.Dispose()
	assert.Equal(t, []int{1, 2}, calls)
}
