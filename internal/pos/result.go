package pos

// PaymentResultKind discriminates how the caller must continue a payment.
type PaymentResultKind string

const (
	// RedirectRequired instructs the caller to send the cardholder's browser
	// to RedirectURL (hosted-page flows) or to auto-submit Form
	// (merchant-form flows).
	RedirectRequired PaymentResultKind = "redirect"
	// HTMLResult carries a raw HTML challenge the caller must render.
	HTMLResult PaymentResultKind = "html"
	// Completed means the sale finished server-to-server with no redirect.
	Completed PaymentResultKind = "completed"
)

// Form describes a browser-level POST the cardholder's user agent must
// perform against the bank, including any hidden fields the bank validates.
type Form struct {
	Action string            `json:"action"`
	Method string            `json:"method"`
	Fields map[string]string `json:"fields"`
	// CardFields lists input names the card-entry UI must append; the
	// server never sees their values in merchant-form flows.
	CardFields []string `json:"cardFields,omitempty"`
}

// PaymentResult is the normalized outcome of a payment initiation. Raw always
// carries the bank's response bytes for audit.
type PaymentResult struct {
	Kind          PaymentResultKind `json:"kind"`
	RedirectURL   string            `json:"redirectUrl,omitempty"`
	Form          *Form             `json:"form,omitempty"`
	HTML          string            `json:"html,omitempty"`
	TransactionID string            `json:"transactionId,omitempty"`
	Token         string            `json:"token,omitempty"`
	Raw           []byte            `json:"-"`
}

// Result is the normalized outcome of a cancel or refund operation.
type Result struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Raw     []byte `json:"-"`
}
