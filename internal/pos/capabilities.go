package pos

// Operation names a canonical adapter operation for capability checks and
// telemetry labels.
type Operation string

const (
	OpPayment       Operation = "payment"
	OpCancel        Operation = "cancel"
	OpRefund        Operation = "refund"
	OpRefundPartial Operation = "refund_partial"
	OpCallback      Operation = "callback"
)

// Capabilities declares which operations a bank supports. It is static per
// adapter and consulted before dispatch so unsupported operations fail fast
// instead of producing an opaque bank error.
type Capabilities struct {
	MerchantForm  bool
	HostedForm    bool
	Cancel        bool
	Refund        bool
	PartialRefund bool
}

// Supports reports whether the given operation is available.
func (c Capabilities) Supports(op Operation) bool {
	switch op {
	case OpPayment:
		return c.MerchantForm || c.HostedForm
	case OpCancel:
		return c.Cancel
	case OpRefund:
		return c.Refund
	case OpRefundPartial:
		return c.PartialRefund
	case OpCallback:
		return true
	default:
		return false
	}
}
