package triviad

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/unicitynetwork/triviad/internal/clock"
)

// ErrUnknownRequest is returned by ConfirmAccess when no pending payment
// waiter exists for the correlation id.
var ErrUnknownRequest = errors.New("no pending payment found for this correlation id")

// DayPass is a time-bound access grant for one identity. Valid while the
// clock has not reached ExpiresAt; never swept, only checked on read.
type DayPass struct {
	Identity  string
	ExpiresAt time.Time
}

// pendingWaiter links a dispatched payment request to its identity. The once
// guard makes registry removal happen exactly once, no matter whether the
// detached settle goroutine or an explicit confirm observes resolution first.
type pendingWaiter struct {
	identity string
	outcome  *Outcome
	removed  sync.Once
}

// AccessGateConfig wraps AccessGate constructor inputs.
type AccessGateConfig struct {
	Bridge         PaymentBridge
	PassDuration   time.Duration
	PaymentTimeout time.Duration
	Clock          clock.Clock
	Logger         pslog.Logger
	Metrics        *Metrics
}

// AccessGate tracks day passes and in-flight payment requests for one
// process. RequestAccess never blocks on a payment outcome; settlement is
// observed by a detached goroutine and, optionally, by a later
// ConfirmAccess call sharing the same one-shot outcome.
type AccessGate struct {
	mu      sync.Mutex
	passes  map[string]DayPass
	waiters map[string]*pendingWaiter

	bridge         PaymentBridge
	passDuration   time.Duration
	paymentTimeout time.Duration
	clock          clock.Clock
	logger         pslog.Logger
	metrics        *Metrics
}

// Decision is the result of RequestAccess: either access is already granted,
// or a payment request was dispatched and must be confirmed.
type Decision struct {
	Granted       bool
	CorrelationID string
	Timeout       time.Duration
}

// ConfirmResult reports the observed payment outcome. ExpiresAt is only
// meaningful when Paid is true.
type ConfirmResult struct {
	Paid      bool
	ExpiresAt time.Time
}

// NewAccessGate constructs a gate around the supplied payment bridge.
func NewAccessGate(cfg AccessGateConfig) (*AccessGate, error) {
	if cfg.Bridge == nil {
		return nil, errors.New("access gate requires a payment bridge")
	}
	if cfg.PassDuration <= 0 {
		cfg.PassDuration = DefaultDayPassHours * time.Hour
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = DefaultPaymentTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = pslog.NoopLogger()
	}
	return &AccessGate{
		passes:         make(map[string]DayPass),
		waiters:        make(map[string]*pendingWaiter),
		bridge:         cfg.Bridge,
		passDuration:   cfg.PassDuration,
		paymentTimeout: cfg.PaymentTimeout,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}, nil
}

// PaymentTimeout reports the bound applied to payment confirmation waits.
func (g *AccessGate) PaymentTimeout() time.Duration {
	return g.paymentTimeout
}

// HasValidPass reports whether the identity holds an unexpired day pass.
func (g *AccessGate) HasValidPass(identity string) bool {
	key := NormalizeID(identity)
	now := g.clock.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	pass, ok := g.passes[key]
	return ok && now.Before(pass.ExpiresAt)
}

// Pass returns the identity's day pass entry, expired or not.
func (g *AccessGate) Pass(identity string) (DayPass, bool) {
	key := NormalizeID(identity)
	g.mu.Lock()
	defer g.mu.Unlock()
	pass, ok := g.passes[key]
	return pass, ok
}

// GrantPass grants or extends the identity's day pass to now+passDuration.
// Granting twice for the same confirmed payment is harmless; the later grant
// simply overwrites the expiry.
func (g *AccessGate) GrantPass(identity string) DayPass {
	key := NormalizeID(identity)
	pass := DayPass{Identity: key, ExpiresAt: g.clock.Now().Add(g.passDuration)}
	g.mu.Lock()
	g.passes[key] = pass
	g.mu.Unlock()
	g.metrics.RecordPassGranted()
	return pass
}

// RequestAccess checks for a valid pass and, when absent, dispatches a
// payment request. It returns as soon as the request is on the wire: the
// payment outcome is settled by a detached goroutine that grants the pass on
// success, and can additionally be awaited through ConfirmAccess.
func (g *AccessGate) RequestAccess(ctx context.Context, identity string) (Decision, error) {
	id := NormalizeID(identity)
	if id == "" {
		return Decision{}, errors.New("identity is required")
	}
	if g.HasValidPass(id) {
		return Decision{Granted: true}, nil
	}

	pubkey, err := g.bridge.ResolvePubkey(ctx, ResolutionHandle(identity))
	if err != nil {
		return Decision{}, fmt.Errorf("resolve identity %q: %w", id, err)
	}
	request, err := g.bridge.SendPaymentRequest(ctx, identity, pubkey)
	if err != nil {
		return Decision{}, fmt.Errorf("send payment request for %q: %w", id, err)
	}
	g.metrics.RecordPaymentRequest()

	waiter := &pendingWaiter{identity: id, outcome: request.Outcome}
	g.mu.Lock()
	g.waiters[request.CorrelationID] = waiter
	g.mu.Unlock()

	go g.settle(request.CorrelationID, waiter)

	g.logger.Info("payment required",
		"identity", id,
		"correlation_id", request.CorrelationID,
		"timeout", g.paymentTimeout,
	)
	return Decision{CorrelationID: request.CorrelationID, Timeout: g.paymentTimeout}, nil
}

// settle outlives the originating request: it waits for the shared outcome,
// grants the pass on a paid result, and removes the waiter on first
// resolution regardless of which path observed it.
func (g *AccessGate) settle(correlationID string, waiter *pendingWaiter) {
	ctx, cancel := context.WithTimeout(context.Background(), g.paymentTimeout)
	defer cancel()
	paid, err := waiter.outcome.Wait(ctx)
	g.removeWaiter(correlationID, waiter)
	if paid {
		pass := g.GrantPass(waiter.identity)
		g.logger.Info("payment received, day pass granted",
			"identity", waiter.identity,
			"correlation_id", correlationID,
			"expires_at", pass.ExpiresAt,
		)
		return
	}
	g.logger.Debug("payment not received",
		"identity", waiter.identity,
		"correlation_id", correlationID,
		"error", err,
	)
}

func (g *AccessGate) removeWaiter(correlationID string, waiter *pendingWaiter) {
	waiter.removed.Do(func() {
		g.mu.Lock()
		delete(g.waiters, correlationID)
		g.mu.Unlock()
	})
}

// ConfirmAccess waits for the payment outcome registered under the
// correlation id. It shares the one-shot outcome with the settle goroutine,
// so both observe the identical result; whichever resolves first removes the
// waiter. The wait is bounded by the payment timeout.
func (g *AccessGate) ConfirmAccess(ctx context.Context, correlationID string) (ConfirmResult, error) {
	g.mu.Lock()
	waiter, ok := g.waiters[correlationID]
	g.mu.Unlock()
	if !ok {
		return ConfirmResult{}, ErrUnknownRequest
	}

	waitCtx, cancel := context.WithTimeout(ctx, g.paymentTimeout)
	defer cancel()
	paid, _ := waiter.outcome.Wait(waitCtx)
	g.removeWaiter(correlationID, waiter)

	if !paid {
		return ConfirmResult{Paid: false}, nil
	}
	// Idempotent with the settle goroutine's grant.
	pass := g.GrantPass(waiter.identity)
	return ConfirmResult{Paid: true, ExpiresAt: pass.ExpiresAt}, nil
}

// PendingWaiters reports the number of in-flight payment requests.
func (g *AccessGate) PendingWaiters() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}
