package triviad

import (
	"context"
	"errors"
	"sync"
)

// ErrIdentityNotFound is returned when an external handle has no resolvable
// pubkey on the messaging network.
var ErrIdentityNotFound = errors.New("could not resolve identity to a pubkey")

// IdentityResolver resolves an external handle to a messaging-network pubkey.
type IdentityResolver interface {
	ResolvePubkey(ctx context.Context, handle string) (string, error)
}

// PaymentRequest couples a dispatched payment request with the one-shot
// outcome it will settle into.
type PaymentRequest struct {
	CorrelationID string
	Outcome       *Outcome
}

// PaymentSender dispatches a payment request to an identity over the
// messaging network. The returned outcome resolves when the payment is
// confirmed or the bridge gives up.
type PaymentSender interface {
	SendPaymentRequest(ctx context.Context, identity, pubkey string) (PaymentRequest, error)
}

// PaymentBridge is the full collaborator surface the access gate depends on.
// Implementations talk to the external identity and messaging subsystems;
// the gate treats them as opaque.
type PaymentBridge interface {
	IdentityResolver
	PaymentSender
}

// Outcome is a one-shot broadcast payment result. The first Resolve wins and
// every Wait observer, before or after resolution, converges on that same
// value. This is what lets the gate's detached settle goroutine and a later
// confirm call share one resolution without racing to consume it.
type Outcome struct {
	once sync.Once
	done chan struct{}
	paid bool
}

// NewOutcome returns an unresolved outcome.
func NewOutcome() *Outcome {
	return &Outcome{done: make(chan struct{})}
}

// Resolve records the payment result. Only the first call has any effect.
func (o *Outcome) Resolve(paid bool) {
	o.once.Do(func() {
		o.paid = paid
		close(o.done)
	})
}

// Wait blocks until the outcome resolves or the context ends. A context
// error is reported as not paid alongside the error.
func (o *Outcome) Wait(ctx context.Context) (bool, error) {
	select {
	case <-o.done:
		return o.paid, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
