package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_NewIsPending(t *testing.T) {
	f := New[int]()
	assert.False(t, f.IsDone())
	assert.False(t, f.IsSuccess())
	_, ok := f.GetNow()
	assert.False(t, ok)
	assert.NoError(t, f.Cause())
}

func TestFuture_SetSuccess(t *testing.T) {
	f := New[int]()
	f.SetSuccess(42)

	assert.True(t, f.IsDone())
	assert.True(t, f.IsSuccess())
	v, ok := f.GetNow()
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.NoError(t, f.Cause())
}

func TestFuture_SetFailure(t *testing.T) {
	wantErr := errors.New("dial refused")
	f := New[int]()
	f.SetFailure(wantErr)

	assert.True(t, f.IsDone())
	assert.False(t, f.IsSuccess())
	_, ok := f.GetNow()
	assert.False(t, ok)
	assert.ErrorIs(t, f.Cause(), wantErr)
}

func TestFuture_FirstResolutionWins(t *testing.T) {
	f := New[int]()
	f.SetSuccess(1)
	f.SetSuccess(2)
	f.SetFailure(errors.New("too late"))

	v, ok := f.GetNow()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.NoError(t, f.Cause())
}

func TestFuture_SucceededAndFailedConstructors(t *testing.T) {
	s := Succeeded("hello")
	v, ok := s.GetNow()
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	wantErr := errors.New("boom")
	fl := Failed[string](wantErr)
	assert.True(t, fl.IsDone())
	assert.False(t, fl.IsSuccess())
	assert.ErrorIs(t, fl.Cause(), wantErr)
}

func TestFuture_AddListenerFiresInlineWhenAlreadyDone(t *testing.T) {
	f := Succeeded(7)
	fired := false
	f.AddListener(func(got *Future[int]) {
		fired = true
		v, ok := got.GetNow()
		require.True(t, ok)
		assert.Equal(t, 7, v)
	})
	assert.True(t, fired, "listener added after resolution must run inline")
}

func TestFuture_AddListenerFiresOnResolution(t *testing.T) {
	f := New[int]()
	done := make(chan struct{})
	f.AddListener(func(got *Future[int]) {
		v, ok := got.GetNow()
		require.True(t, ok)
		assert.Equal(t, 9, v)
		close(done)
	})

	select {
	case <-done:
		t.Fatal("listener fired before resolution")
	case <-time.After(10 * time.Millisecond):
	}

	f.SetSuccess(9)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener never fired after resolution")
	}
}

func TestFuture_ListenersRunInRegistrationOrder(t *testing.T) {
	f := New[int]()
	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		f.AddListener(func(*Future[int]) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	f.SetSuccess(0)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFuture_Wait_ReturnsOnSuccess(t *testing.T) {
	f := Succeeded(5)
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestFuture_Wait_ReturnsCauseOnFailure(t *testing.T) {
	wantErr := errors.New("connect timeout")
	f := Failed[int](wantErr)
	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestFuture_Wait_UnblocksOnContextCancellation(t *testing.T) {
	f := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFuture_ConcurrentResolveAndAddListenerIsRaceFree(t *testing.T) {
	const n = 200
	var wg sync.WaitGroup
	wg.Add(n + 1)
	f := New[int]()
	counts := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			f.AddListener(func(*Future[int]) { counts <- struct{}{} })
		}()
	}
	go func() {
		defer wg.Done()
		f.SetSuccess(1)
	}()
	wg.Wait()
	close(counts)

	got := 0
	for range counts {
		got++
	}
	assert.Equal(t, n, got)
}
