package dab_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"datarecv/internal/dab"
)

func TestQueuePreservesOrder(t *testing.T) {
	q := dab.NewQueue[int](4)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := q.Push(ctx, i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	for want := 1; want <= 3; want++ {
		got, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if got != want {
			t.Fatalf("Pop = %d, want %d", got, want)
		}
	}
}

func TestQueuePushBlocksWhenFull(t *testing.T) {
	q := dab.NewQueue[int](1)
	if err := q.Push(context.Background(), 1); err != nil {
		t.Fatalf("Push: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Push(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded on full queue, got %v", err)
	}
}

func TestQueuePopHonoursCancellation(t *testing.T) {
	q := dab.NewQueue[string](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Pop(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestQueueDrainsBeforeReportingClosed(t *testing.T) {
	q := dab.NewQueue[int](2)
	ctx := context.Background()
	if err := q.Push(ctx, 7); err != nil {
		t.Fatalf("Push: %v", err)
	}
	q.Close()
	q.Close()

	got, err := q.Pop(ctx)
	if err != nil || got != 7 {
		t.Fatalf("Pop = %d, %v; want 7, nil", got, err)
	}
	if _, err := q.Pop(ctx); !errors.Is(err, dab.ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestNewQueueClampsSize(t *testing.T) {
	if got := dab.NewQueue[int](0).Cap(); got != 1 {
		t.Fatalf("Cap = %d, want 1", got)
	}
}
