package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGetReturnsErrDoneAfterProducersFinish(t *testing.T) {
	q := New[int](4, true)
	q.AddProducer()
	ctx := context.Background()
	if err := q.Put(ctx, 1); err != nil {
		t.Fatal(err)
	}
	q.Finish()

	v, err := q.Get(ctx)
	if err != nil || v != 1 {
		t.Fatalf("Get = (%d, %v), want (1, nil)", v, err)
	}
	_, err = q.Get(ctx)
	if !errors.Is(err, ErrDone) {
		t.Fatalf("Get after drain = %v, want ErrDone", err)
	}
	// ErrDone is observed repeatably.
	_, err = q.Get(ctx)
	if !errors.Is(err, ErrDone) {
		t.Fatalf("second Get after drain = %v, want ErrDone", err)
	}
}

func TestMultipleProducersOnlyDoneWhenAllFinish(t *testing.T) {
	q := New[int](4, true)
	q.AddProducer()
	q.AddProducer()
	ctx := context.Background()
	_ = q.Put(ctx, 1)
	q.Finish() // first producer done, second still active

	// one item is available, queue not done yet
	v, err := q.Get(ctx)
	if err != nil || v != 1 {
		t.Fatalf("Get = (%d, %v)", v, err)
	}

	done := make(chan struct{})
	go func() {
		_, err := q.Get(ctx)
		if errors.Is(err, ErrDone) {
			close(done)
		}
	}()

	select {
	case <-done:
		t.Fatal("queue reported done before second producer finished")
	case <-time.After(50 * time.Millisecond):
	}

	q.Finish()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queue never reported done after all producers finished")
	}
}

func TestPutBlocksUnderBackPressure(t *testing.T) {
	q := New[int](1, true)
	q.AddProducer()
	ctx := context.Background()
	if err := q.Put(ctx, 1); err != nil {
		t.Fatal(err)
	}

	putDone := make(chan error, 1)
	go func() { putDone <- q.Put(ctx, 2) }()

	select {
	case <-putDone:
		t.Fatal("second Put returned before capacity freed")
	case <-time.After(30 * time.Millisecond):
	}

	if _, err := q.Get(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-putDone:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("second Put never unblocked")
	}
	q.Finish()
}

func TestPutCancellable(t *testing.T) {
	q := New[int](1, true)
	q.AddProducer()
	ctx := context.Background()
	_ = q.Put(ctx, 1) // fill capacity

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Put(cctx, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("Put with cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestGetCancellable(t *testing.T) {
	q := New[int](1, true)
	q.AddProducer()
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Get(cctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Get with cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestCountItemsFalseSuppressesCount(t *testing.T) {
	q := New[int](4, false)
	q.AddProducer()
	ctx := context.Background()
	_ = q.Put(ctx, 1)
	_ = q.Put(ctx, 2)
	q.Finish()
	if got := q.Count(); got != 0 {
		t.Fatalf("Count = %d, want 0 with countItems=false", got)
	}
}

func TestFIFOPerProducer(t *testing.T) {
	q := New[int](10, true)
	q.AddProducer()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = q.Put(ctx, i)
	}
	q.Finish()
	for i := 0; i < 5; i++ {
		v, err := q.Get(ctx)
		if err != nil || v != i {
			t.Fatalf("Get() = (%d, %v), want (%d, nil)", v, err, i)
		}
	}
}

func TestJoinReturnsAfterAllTaskDone(t *testing.T) {
	q := New[int](10, true)
	q.AddProducer()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = q.Put(ctx, i)
	}
	q.Finish()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := q.Get(ctx)
			if err != nil {
				return
			}
			_ = v
			q.TaskDone()
		}()
	}
	wg.Wait()

	joined := make(chan struct{})
	go func() { q.Join(); close(joined) }()
	select {
	case <-joined:
	case <-time.After(time.Second):
		t.Fatal("Join never returned after all TaskDone calls")
	}
}

func TestJoinReturnsAfterCancelledWorkerStillCallsTaskDone(t *testing.T) {
	q := New[int](10, true)
	q.AddProducer()
	ctx := context.Background()
	_ = q.Put(ctx, 1)
	q.Finish()

	v, err := q.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	_ = v
	// Simulate a cancelled worker that still honors task_done via defer.
	func() {
		defer q.TaskDone()
	}()

	joined := make(chan struct{})
	go func() { q.Join(); close(joined) }()
	select {
	case <-joined:
	case <-time.After(time.Second):
		t.Fatal("Join never returned")
	}
}

func TestConcurrentPutGetManyProducers(t *testing.T) {
	q := New[int](8, true)
	const producers = 4
	const perProducer = 50
	for i := 0; i < producers; i++ {
		q.AddProducer()
	}
	ctx := context.Background()
	var pwg sync.WaitGroup
	for p := 0; p < producers; p++ {
		pwg.Add(1)
		go func(p int) {
			defer pwg.Done()
			defer q.Finish()
			for i := 0; i < perProducer; i++ {
				_ = q.Put(ctx, p*perProducer+i)
			}
		}(p)
	}

	seen := map[int]bool{}
	var mu sync.Mutex
	var cwg sync.WaitGroup
	for c := 0; c < 3; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				v, err := q.Get(ctx)
				if errors.Is(err, ErrDone) {
					return
				}
				if err != nil {
					return
				}
				mu.Lock()
				seen[v] = true
				mu.Unlock()
				q.TaskDone()
			}
		}()
	}

	pwg.Wait()
	cwg.Wait()
	q.Join()

	if got := len(seen); got != producers*perProducer {
		t.Fatalf("saw %d unique items, want %d", got, producers*perProducer)
	}
	if got := q.Count(); got != int64(producers*perProducer) {
		t.Fatalf("Count() = %d, want %d", got, producers*perProducer)
	}
}
