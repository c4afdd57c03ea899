package pos

import (
	"strings"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Card carries optional cardholder data for merchant-entered flows. The card
// number, expiry and CVV never survive redaction.
type Card struct {
	Number      string `validate:"omitempty,numeric,min=12,max=19"`
	ExpiryMonth string `validate:"omitempty,len=2,numeric"`
	ExpiryYear  string `validate:"omitempty,min=2,max=4,numeric"`
	CVV         string `validate:"omitempty,min=3,max=4,numeric"`
	Holder      string
}

// PaymentPayload is the canonical payment intent handed to an adapter. It is
// validated at construction and never mutated afterwards.
type PaymentPayload struct {
	OrderID    string `validate:"required"`
	Amount     int64  `validate:"required,gt=0"`
	Currency   string
	SuccessURL string `validate:"required,url"`
	FailURL    string `validate:"required,url"`
	Email      string `validate:"omitempty,email"`
	Phone      string
	IP         string `validate:"omitempty,ip"`
	Language   string

	Card *Card

	// NonSecure selects the server-to-server flow that completes without a
	// 3-D Secure redirect, for banks that offer it.
	NonSecure bool

	// InstallmentCount and DeferringCount are mutually exclusive; setting
	// both is a caller error, never silently resolved.
	InstallmentCount *int
	DeferringCount   *int
}

// Validate checks the payload before any signing or network activity.
func (p *PaymentPayload) Validate() error {
	if p == nil {
		return NewValidation("payment payload is nil")
	}
	if strings.TrimSpace(p.OrderID) == "" {
		return MissingField("orderId")
	}
	if p.Amount <= 0 {
		return NewValidation("amount must be a positive minor-unit value")
	}
	if p.InstallmentCount != nil && p.DeferringCount != nil {
		return NewValidation("installmentCount and deferringCount are mutually exclusive")
	}
	if err := validate.Struct(p); err != nil {
		return &Error{Kind: KindValidation, Code: "INVALID_PAYLOAD", Message: err.Error(), Err: err}
	}
	if p.Card != nil {
		if err := validate.Struct(p.Card); err != nil {
			return &Error{Kind: KindValidation, Code: "INVALID_CARD", Message: "card fields failed validation", Err: err}
		}
	}
	return nil
}

// CurrencyOrDefault returns the payload currency or TRY.
func (p *PaymentPayload) CurrencyOrDefault() string {
	if strings.TrimSpace(p.Currency) == "" {
		return "TRY"
	}
	return p.Currency
}

// LanguageOrDefault returns the payload language or TR.
func (p *PaymentPayload) LanguageOrDefault() string {
	if strings.TrimSpace(p.Language) == "" {
		return "TR"
	}
	return p.Language
}

// CancelPayload identifies a sale to void. TransactionID, RRN and AuthCode
// are required by banks whose reversal service addresses the original
// authorisation rather than the merchant order.
type CancelPayload struct {
	OrderID         string
	MerchantOrderID string
	TransactionID   string
	RRN             string
	AuthCode        string
}

// Validate checks the cancel payload.
func (p *CancelPayload) Validate() error {
	if p == nil {
		return NewValidation("cancel payload is nil")
	}
	if strings.TrimSpace(p.MerchantOrderID) == "" {
		return MissingField("merchantOrderId")
	}
	return nil
}

// RefundPayload identifies a sale to refund. A zero Amount requests a full
// refund; a positive Amount requests a partial one. OriginalAmount, when
// known to the caller, lets adapters reject over-refunds locally before any
// network call.
type RefundPayload struct {
	OrderID         string
	MerchantOrderID string
	TransactionID   string
	RRN             string
	AuthCode        string
	Amount          int64
	OriginalAmount  int64
}

// Validate checks the refund payload.
func (p *RefundPayload) Validate() error {
	if p == nil {
		return NewValidation("refund payload is nil")
	}
	if strings.TrimSpace(p.MerchantOrderID) == "" {
		return MissingField("merchantOrderId")
	}
	if p.Amount < 0 {
		return NewValidation("refund amount cannot be negative")
	}
	if p.OriginalAmount > 0 && p.Amount > p.OriginalAmount {
		return NewValidation("refund amount exceeds the original sale amount")
	}
	return nil
}
