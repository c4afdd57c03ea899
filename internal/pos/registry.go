package pos

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/odakpay/posbridge/internal/obs"
)

// Registry resolves a bank and environment to a configured adapter and
// dispatches canonical operations. Every failure leaving the registry carries
// a correlation id and a redacted input snapshot; raw secrets never escape.
type Registry struct {
	logger    zerolog.Logger
	factories map[Bank]Factory
}

// NewRegistry builds an empty registry. Factories are registered at startup;
// the registry is read-only afterwards and safe for concurrent dispatch.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[Bank]Factory),
	}
}

// Register binds a bank to its adapter factory.
func (r *Registry) Register(bank Bank, f Factory) {
	r.factories[bank] = f
}

// Banks lists the registered bank identifiers.
func (r *Registry) Banks() []Bank {
	out := make([]Bank, 0, len(r.factories))
	for b := range r.factories {
		out = append(out, b)
	}
	return out
}

// Resolve constructs a configured adapter for bank+env. Construction
// validates credentials and fails fast with a named missing-field error.
func (r *Registry) Resolve(bank Bank, env Environment, cfg Config) (Adapter, error) {
	if !env.Valid() {
		return nil, NewValidation("invalid environment: " + string(env))
	}
	factory, ok := r.factories[bank]
	if !ok {
		return nil, &Error{Kind: KindValidation, Code: "UNKNOWN_BANK", Message: "unsupported bank: " + string(bank)}
	}
	return factory(env, cfg)
}

// Payment dispatches a payment initiation.
func (r *Registry) Payment(ctx context.Context, bank Bank, env Environment, cfg Config, p *PaymentPayload) (*PaymentResult, error) {
	var result *PaymentResult
	err := r.dispatch(ctx, bank, env, cfg, OpPayment, RedactPayment(p), func(ctx context.Context, a Adapter) error {
		if err := p.Validate(); err != nil {
			return err
		}
		res, err := a.Payment(ctx, p)
		result = res
		return err
	})
	return result, err
}

// Cancel dispatches a full void of an unsettled sale.
func (r *Registry) Cancel(ctx context.Context, bank Bank, env Environment, cfg Config, p *CancelPayload) (*Result, error) {
	var result *Result
	snapshot := map[string]string{"orderId": p.OrderID, "merchantOrderId": p.MerchantOrderID}
	err := r.dispatch(ctx, bank, env, cfg, OpCancel, snapshot, func(ctx context.Context, a Adapter) error {
		if err := p.Validate(); err != nil {
			return err
		}
		res, err := a.Cancel(ctx, p)
		result = res
		return err
	})
	return result, err
}

// RefundFull dispatches a full refund.
func (r *Registry) RefundFull(ctx context.Context, bank Bank, env Environment, cfg Config, p *RefundPayload) (*Result, error) {
	return r.refund(ctx, bank, env, cfg, OpRefund, p)
}

// RefundPartial dispatches a partial refund.
func (r *Registry) RefundPartial(ctx context.Context, bank Bank, env Environment, cfg Config, p *RefundPayload) (*Result, error) {
	return r.refund(ctx, bank, env, cfg, OpRefundPartial, p)
}

func (r *Registry) refund(ctx context.Context, bank Bank, env Environment, cfg Config, op Operation, p *RefundPayload) (*Result, error) {
	var result *Result
	snapshot := map[string]string{
		"orderId":         p.OrderID,
		"merchantOrderId": p.MerchantOrderID,
		"amount":          MinorString(p.Amount),
	}
	err := r.dispatch(ctx, bank, env, cfg, op, snapshot, func(ctx context.Context, a Adapter) error {
		if err := p.Validate(); err != nil {
			return err
		}
		var res *Result
		var err error
		if op == OpRefundPartial {
			res, err = a.RefundPartial(ctx, p)
		} else {
			res, err = a.RefundFull(ctx, p)
		}
		result = res
		return err
	})
	return result, err
}

// VerifyCallback authenticates a bank callback through the resolved adapter.
func (r *Registry) VerifyCallback(bank Bank, env Environment, cfg Config, data url.Values) (bool, error) {
	adapter, err := r.Resolve(bank, env, cfg)
	if err != nil {
		return false, err
	}
	ok, err := adapter.VerifyCallback(data)
	result := "ok"
	if err != nil || !ok {
		result = "rejected"
	}
	if obs.CallbackVerifyTotal != nil {
		obs.CallbackVerifyTotal.WithLabelValues(string(bank), result).Inc()
	}
	if err != nil {
		return false, r.wrap(err, string(bank), OpCallback, nil)
	}
	return ok, nil
}

func (r *Registry) dispatch(ctx context.Context, bank Bank, env Environment, cfg Config, op Operation, snapshot map[string]string, fn func(context.Context, Adapter) error) error {
	ctx, span := otel.Tracer("pos.Registry").Start(ctx, "Registry."+string(op))
	defer span.End()
	span.SetAttributes(
		attribute.String("pos.bank", string(bank)),
		attribute.String("pos.env", string(env)),
		attribute.String("pos.operation", string(op)),
	)

	start := time.Now()
	outcome := "ok"
	defer func() {
		if obs.PosOperationTotal != nil {
			obs.PosOperationTotal.WithLabelValues(string(bank), string(op), outcome).Inc()
		}
		if obs.PosOperationDuration != nil {
			obs.PosOperationDuration.WithLabelValues(string(bank), string(op)).Observe(float64(time.Since(start).Milliseconds()))
		}
	}()

	adapter, err := r.Resolve(bank, env, cfg)
	if err != nil {
		outcome = KindOf(err).String()
		return r.wrap(err, string(bank), op, snapshot)
	}
	if !adapter.Capabilities().Supports(op) {
		outcome = KindValidation.String()
		err := &Error{Kind: KindValidation, Code: "UNSUPPORTED_OPERATION", Message: string(bank) + " does not support " + string(op)}
		return r.wrap(err, string(bank), op, snapshot)
	}

	if err := fn(ctx, adapter); err != nil {
		outcome = KindOf(err).String()
		span.RecordError(err)
		wrapped := r.wrap(err, string(bank), op, snapshot)
		var posErr *Error
		errors.As(wrapped, &posErr)
		r.logger.Error().
			Str("bank", string(bank)).
			Str("operation", string(op)).
			Str("kind", posErr.Kind.String()).
			Str("code", posErr.Code).
			Str("correlation_id", posErr.CorrelationID).
			Fields(map[string]any{"payload": posErr.Payload}).
			Msg("pos_operation_failed")
		return wrapped
	}

	r.logger.Info().
		Str("bank", string(bank)).
		Str("operation", string(op)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("pos_operation_ok")
	return nil
}

// wrap guarantees the error is a *Error carrying a correlation id and the
// redacted snapshot. Foreign errors become transport failures: an unknown
// cause must read as indeterminate, never as a confirmed business outcome.
func (r *Registry) wrap(err error, bank string, op Operation, snapshot map[string]string) error {
	var posErr *Error
	if !errors.As(err, &posErr) {
		posErr = NewTransport(err)
	}
	if posErr.CorrelationID == "" {
		posErr.CorrelationID = uuid.NewString()
	}
	if posErr.Payload == nil && snapshot != nil {
		posErr.Payload = Redact(snapshot)
	}
	return posErr
}
