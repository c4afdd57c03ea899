// Package vakifkatilim integrates the VakıfKatılım virtual POS. The bank
// exposes a single merchant-form flow: the cardholder's browser POSTs signed
// hidden fields to the pay gate and card inputs are appended by the UI.
// Reversal operations are not part of this integration.
package vakifkatilim

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"

	"github.com/odakpay/posbridge/internal/pos"
	"github.com/odakpay/posbridge/internal/pos/textenc"
)

const (
	gatewayURL  = "https://boa.vakifkatilim.com.tr/VirtualPOS.Gateway/Home/ThreeDModelPayGate"
	currencyTRY = "0949"
	successCode = "00"
)

// Adapter implements pos.Adapter for VakıfKatılım.
type Adapter struct {
	env pos.Environment
	cfg pos.Config
}

// New validates the credential bundle and returns a configured adapter.
func New(env pos.Environment, cfg pos.Config) (pos.Adapter, error) {
	for name, value := range map[string]string{
		"merchantId": cfg.MerchantID,
		"customerId": cfg.CustomerID,
		"username":   cfg.Username,
		"password":   cfg.Password,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, pos.MissingConfig(name)
		}
	}
	return &Adapter{env: env, cfg: cfg}, nil
}

// Name implements pos.Adapter.
func (a *Adapter) Name() pos.Bank { return pos.BankVakifKatilim }

// Capabilities implements pos.Adapter. The bank supports only merchant-form
// payment initiation; reversals are handled out of band.
func (a *Adapter) Capabilities() pos.Capabilities {
	return pos.Capabilities{MerchantForm: true}
}

// Payment builds the signed browser form for the pay gate.
func (a *Adapter) Payment(_ context.Context, p *pos.PaymentPayload) (*pos.PaymentResult, error) {
	amount := pos.MinorString(p.Amount)
	installments := "0"
	if p.InstallmentCount != nil {
		installments = strconv.Itoa(*p.InstallmentCount)
	}

	fields := map[string]string{
		"MerchantId":          a.cfg.MerchantID,
		"CustomerId":          a.cfg.CustomerID,
		"UserName":            a.cfg.Username,
		"MerchantOrderId":     p.OrderID,
		"Amount":              amount,
		"CurrencyCode":        currencyTRY,
		"OkUrl":               p.SuccessURL,
		"FailUrl":             p.FailURL,
		"TransactionSecurity": "3",
		"InstallmentCount":    installments,
		"HashData":            signForm(a.cfg, p.OrderID, amount, p.SuccessURL, p.FailURL),
	}
	return &pos.PaymentResult{
		Kind: pos.RedirectRequired,
		Form: &pos.Form{
			Action: a.cfg.Endpoint("paygate", gatewayURL),
			Method: "POST",
			Fields: fields,
			CardFields: []string{
				"CardNumber",
				"CardExpireDateMonth",
				"CardExpireDateYear",
				"CardCVV2",
				"CardHolderName",
			},
		},
	}, nil
}

// Cancel is not offered by this integration.
func (a *Adapter) Cancel(context.Context, *pos.CancelPayload) (*pos.Result, error) {
	return nil, unsupported(pos.OpCancel)
}

// RefundFull is not offered by this integration.
func (a *Adapter) RefundFull(context.Context, *pos.RefundPayload) (*pos.Result, error) {
	return nil, unsupported(pos.OpRefund)
}

// RefundPartial is not offered by this integration.
func (a *Adapter) RefundPartial(context.Context, *pos.RefundPayload) (*pos.Result, error) {
	return nil, unsupported(pos.OpRefundPartial)
}

// VerifyCallback checks the pay-gate callback: response code "00" plus the
// presence of the HashData field. The bank provides no recipe to recompute
// the callback hash.
func (a *Adapter) VerifyCallback(data url.Values) (bool, error) {
	if strings.TrimSpace(data.Get("ResponseCode")) != successCode {
		return false, nil
	}
	if strings.TrimSpace(data.Get("HashData")) == "" {
		return false, pos.NewSignature("callback missing HashData")
	}
	return true, nil
}

// signForm computes HashData per the bank's integration guide: SHA-1 over the
// ISO-8859-9 transliteration, base64-encoded, with the password itself
// pre-hashed the same way. Field order is fixed and separator-free.
func signForm(cfg pos.Config, merchantOrderID, amount, okURL, failURL string) string {
	hp := sha1ISOBase64(cfg.Password)
	return sha1ISOBase64(cfg.MerchantID + merchantOrderID + amount + okURL + failURL + cfg.Username + hp)
}

func sha1ISOBase64(data string) string {
	sum := sha1.Sum(textenc.ToISO8859_9(data))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func unsupported(op pos.Operation) *pos.Error {
	return &pos.Error{
		Kind:    pos.KindValidation,
		Code:    "UNSUPPORTED_OPERATION",
		Message: "vakifkatilim does not support " + string(op),
	}
}
