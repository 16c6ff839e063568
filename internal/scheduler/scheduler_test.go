package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEveryRejectsShortInterval(t *testing.T) {
	s := New(nil)
	err := s.Every(context.Background(), "snapshot", 10*time.Millisecond, func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for interval below minimum")
	}
}

func TestRunExecutesJobUntilCancelled(t *testing.T) {
	s := New(nil)
	s.minEvery = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	err := s.Every(ctx, "snapshot", 20*time.Millisecond, func(context.Context) error {
		if runs.Add(1) >= 2 {
			cancel()
		}
		return errors.New("ignored")
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	if runs.Load() < 2 {
		t.Fatalf("expected at least 2 runs, got %d", runs.Load())
	}
}
