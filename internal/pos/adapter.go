package pos

import (
	"context"
	"net/url"
)

// Adapter is the canonical operation contract every bank integration
// implements. Implementations are safe for concurrent use: they hold only
// read-only configuration and per-call state lives on the stack.
type Adapter interface {
	Name() Bank
	Capabilities() Capabilities

	// Payment initiates a sale and returns how the caller must continue
	// (redirect, form post or already completed).
	Payment(ctx context.Context, p *PaymentPayload) (*PaymentResult, error)

	// Cancel voids an unsettled sale in full.
	Cancel(ctx context.Context, p *CancelPayload) (*Result, error)

	// RefundFull returns the whole settled amount.
	RefundFull(ctx context.Context, p *RefundPayload) (*Result, error)

	// RefundPartial returns part of the settled amount.
	RefundPartial(ctx context.Context, p *RefundPayload) (*Result, error)

	// VerifyCallback authenticates a bank callback. It recomputes the
	// signature when the bank provides enough fields; shape-only checks are
	// the documented fallback for banks that do not.
	VerifyCallback(data url.Values) (bool, error)
}

// Factory constructs a configured adapter for one environment, validating
// that every required credential is present and failing fast with a named
// missing-field error otherwise.
type Factory func(env Environment, cfg Config) (Adapter, error)
