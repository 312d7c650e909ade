package triviad

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pkt.systems/pslog"

	"github.com/unicitynetwork/triviad/internal/clock"
)

func TestOutcomeFirstResolveWins(t *testing.T) {
	t.Parallel()
	outcome := NewOutcome()
	outcome.Resolve(true)
	outcome.Resolve(false)

	paid, err := outcome.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !paid {
		t.Fatal("second Resolve overrode the first")
	}
}

func TestOutcomeBroadcastsToAllWaiters(t *testing.T) {
	t.Parallel()
	outcome := NewOutcome()

	const waiters = 4
	results := make([]bool, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paid, err := outcome.Wait(context.Background())
			if err != nil {
				t.Errorf("waiter %d: %v", i, err)
				return
			}
			results[i] = paid
		}(i)
	}
	outcome.Resolve(true)
	wg.Wait()
	for i, paid := range results {
		if !paid {
			t.Fatalf("waiter %d observed paid=false", i)
		}
	}

	// Late observers converge on the same value.
	paid, err := outcome.Wait(context.Background())
	if err != nil || !paid {
		t.Fatalf("late Wait = (%v, %v), want (true, nil)", paid, err)
	}
}

func TestOutcomeWaitHonorsContext(t *testing.T) {
	t.Parallel()
	outcome := NewOutcome()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	paid, err := outcome.Wait(ctx)
	if paid {
		t.Fatal("unresolved outcome reported paid")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait error = %v, want context.DeadlineExceeded", err)
	}
}

func TestLocalBridgeResolvePubkey(t *testing.T) {
	t.Parallel()
	bridge := NewLocalBridge(time.Second, clock.NewManual(time.Now()), pslog.NoopLogger())

	first, err := bridge.ResolvePubkey(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ResolvePubkey: %v", err)
	}
	second, err := bridge.ResolvePubkey(context.Background(), "@Alice")
	if err != nil {
		t.Fatalf("ResolvePubkey: %v", err)
	}
	if first != second {
		t.Fatal("pubkey derivation is not stable across handle spellings")
	}

	if _, err := bridge.ResolvePubkey(context.Background(), "  "); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("blank handle error = %v, want ErrIdentityNotFound", err)
	}
}

func TestLocalBridgeAutoApproves(t *testing.T) {
	t.Parallel()
	clk := clock.NewManual(time.Now())
	bridge := NewLocalBridge(5*time.Second, clk, pslog.NoopLogger())

	request, err := bridge.SendPaymentRequest(context.Background(), "alice", "pubkey")
	if err != nil {
		t.Fatalf("SendPaymentRequest: %v", err)
	}
	if request.CorrelationID == "" {
		t.Fatal("empty correlation id")
	}

	// Advance in a loop; the approval goroutine arms its timer asynchronously.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				clk.Advance(5 * time.Second)
				time.Sleep(time.Millisecond)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	paid, err := request.Outcome.Wait(ctx)
	close(stop)
	wg.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !paid {
		t.Fatal("local bridge did not approve the payment")
	}
}
