package triviad

import (
	"context"
	"testing"
	"time"

	"pkt.systems/pslog"

	"github.com/unicitynetwork/triviad/internal/clock"
)

func TestSweeperRemovesStaleQuestions(t *testing.T) {
	t.Parallel()
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := NewSessionStore(15*time.Minute, clk)
	store.SetActiveQuestion("alice", testQuestions()[0], nil)

	sweeper := NewSweeper(store, 5*time.Minute, clk, pslog.NoopLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	// Advance in a loop: the sweeper registers its timer asynchronously, so a
	// single advance could land before the first tick is armed.
	deadline := time.Now().Add(2 * time.Second)
	for {
		clk.Advance(20 * time.Minute)
		questions, _ := store.Sizes()
		if questions == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not remove the stale question")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}
