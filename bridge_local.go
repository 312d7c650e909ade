package triviad

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/unicitynetwork/triviad/internal/clock"
)

// LocalBridge simulates the payment network in-process so the full
// request/confirm flow can be exercised without external infrastructure.
// Pubkeys are derived deterministically from the handle and every payment
// request auto-approves after a fixed delay.
type LocalBridge struct {
	delay  time.Duration
	clock  clock.Clock
	logger pslog.Logger
}

// NewLocalBridge constructs a local bridge approving payments after delay.
func NewLocalBridge(delay time.Duration, clk clock.Clock, logger pslog.Logger) *LocalBridge {
	if delay <= 0 {
		delay = DefaultLocalPaymentDelay
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &LocalBridge{delay: delay, clock: clk, logger: logger}
}

// ResolvePubkey derives a stable fake pubkey from the handle.
func (b *LocalBridge) ResolvePubkey(_ context.Context, handle string) (string, error) {
	handle = NormalizeID(handle)
	if handle == "" {
		return "", ErrIdentityNotFound
	}
	sum := sha256.Sum256([]byte(handle))
	return hex.EncodeToString(sum[:]), nil
}

// SendPaymentRequest issues a correlation id and schedules auto-approval.
func (b *LocalBridge) SendPaymentRequest(_ context.Context, identity, pubkey string) (PaymentRequest, error) {
	correlationID := uuid.NewString()
	outcome := NewOutcome()
	b.logger.Info("simulated payment request dispatched",
		"identity", identity,
		"pubkey", pubkey,
		"correlation_id", correlationID,
		"approve_after", b.delay,
	)
	go func() {
		<-b.clock.After(b.delay)
		outcome.Resolve(true)
	}()
	return PaymentRequest{CorrelationID: correlationID, Outcome: outcome}, nil
}
