// Package parampos integrates the ParamPOS (TurkPos) virtual POS: a SOAP
// service that runs 3D initiation, 3D completion and combined
// cancel/refund operations, with comma-decimal amounts and SHA-256 request
// hashes.
package parampos

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/odakpay/posbridge/internal/pos"
)

const (
	endpointTest = "https://test-dmz.param.com.tr:4443/turkpos.ws/service_turkpos_test.asmx"
	endpointProd = "https://posws.param.com.tr/turkpos.ws/service_turkpos_prod.asmx"
)

// Adapter implements pos.Adapter for ParamPOS.
type Adapter struct {
	env    pos.Environment
	cfg    pos.Config
	client *client
}

// New validates the dealer credential bundle and returns a configured
// adapter.
func New(env pos.Environment, cfg pos.Config) (pos.Adapter, error) {
	for name, value := range map[string]string{
		"clientCode": cfg.ClientCode,
		"guid":       cfg.GUID,
		"username":   cfg.Username,
		"password":   cfg.Password,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, pos.MissingConfig(name)
		}
	}
	return &Adapter{
		env:    env,
		cfg:    cfg,
		client: newClient(cfg.TimeoutOrDefault(defaultTimeout)),
	}, nil
}

// Name implements pos.Adapter.
func (a *Adapter) Name() pos.Bank { return pos.BankParamPos }

// Capabilities implements pos.Adapter.
func (a *Adapter) Capabilities() pos.Capabilities {
	return pos.Capabilities{
		MerchantForm:  true,
		Cancel:        true,
		Refund:        true,
		PartialRefund: true,
	}
}

// Payment runs TP_WMD_UCD. A 3D flow answers with either a challenge HTML
// fragment or a redirect URL; the NonSecure flow completes immediately.
func (a *Adapter) Payment(ctx context.Context, p *pos.PaymentPayload) (*pos.PaymentResult, error) {
	if p.Card == nil {
		return nil, pos.MissingField("card")
	}
	raw, err := a.client.call(ctx, a.endpoint(), "TP_WMD_UCD", map3DInit(p, a.cfg))
	if err != nil {
		return nil, err
	}
	out, err := parseInit(raw, "TP_WMD_UCD")
	if err != nil {
		return nil, err
	}
	if out.Sonuc <= 0 {
		return nil, pos.NewBusiness(sonucCode(out), out.SonucStr)
	}

	switch {
	case p.NonSecure:
		return &pos.PaymentResult{
			Kind:          pos.Completed,
			TransactionID: out.IslemID,
			Raw:           raw,
		}, nil
	case out.UCDURL != "":
		return &pos.PaymentResult{
			Kind:          pos.RedirectRequired,
			RedirectURL:   out.UCDURL,
			TransactionID: out.IslemGUID,
			Raw:           raw,
		}, nil
	case out.UCDHTML != "":
		return &pos.PaymentResult{
			Kind:          pos.HTMLResult,
			HTML:          out.UCDHTML,
			TransactionID: out.IslemGUID,
			Raw:           raw,
		}, nil
	default:
		return nil, pos.ResponseNotFound("TP_WMD_UCD response carries neither challenge html nor redirect url")
	}
}

// Complete3D runs TP_WMD_Pay after VerifyCallback accepted the 3D callback.
// Not part of the canonical contract; callers finishing a 3D flow use it
// directly.
func (a *Adapter) Complete3D(ctx context.Context, ucdMD, islemGUID, orderID string) (*pos.PaymentResult, error) {
	for name, value := range map[string]string{"ucdMD": ucdMD, "islemGUID": islemGUID, "orderId": orderID} {
		if strings.TrimSpace(value) == "" {
			return nil, pos.MissingField(name)
		}
	}
	raw, err := a.client.call(ctx, a.endpoint(), "TP_WMD_Pay", mapComplete3D(a.cfg, ucdMD, islemGUID, orderID))
	if err != nil {
		return nil, err
	}
	out, err := parseInit(raw, "TP_WMD_Pay")
	if err != nil {
		return nil, err
	}
	if out.Sonuc <= 0 {
		return nil, pos.NewBusiness(sonucCode(out), out.SonucStr)
	}
	return &pos.PaymentResult{
		Kind:          pos.Completed,
		TransactionID: out.IslemID,
		Raw:           raw,
	}, nil
}

// Cancel voids a same-day sale (Durum IPTAL). The full original amount must
// be supplied because the service validates it.
func (a *Adapter) Cancel(ctx context.Context, p *pos.CancelPayload) (*pos.Result, error) {
	// the service voids by order id; the canonical transaction fields are
	// not used here
	return a.cancelRefund(ctx, "IPTAL", p.MerchantOrderID, 0)
}

// RefundFull refunds the whole amount (Durum IADE with the original amount).
func (a *Adapter) RefundFull(ctx context.Context, p *pos.RefundPayload) (*pos.Result, error) {
	amount := p.Amount
	if amount == 0 {
		amount = p.OriginalAmount
	}
	if amount <= 0 {
		return nil, pos.MissingField("amount")
	}
	return a.cancelRefund(ctx, "IADE", p.MerchantOrderID, amount)
}

// RefundPartial refunds part of the amount; the service uses the same IADE
// operation with the partial value.
func (a *Adapter) RefundPartial(ctx context.Context, p *pos.RefundPayload) (*pos.Result, error) {
	if p.Amount <= 0 {
		return nil, pos.NewValidation("partial refund requires a positive amount")
	}
	return a.cancelRefund(ctx, "IADE", p.MerchantOrderID, p.Amount)
}

// VerifyCallback recomputes the 3D callback hash over islemGUID, md,
// mdStatus and the order id, and checks mdStatus is a documented success
// value. A hash mismatch is a security event, not a declined payment.
func (a *Adapter) VerifyCallback(data url.Values) (bool, error) {
	provided := strings.TrimSpace(data.Get("islemHash"))
	if provided == "" {
		return false, pos.NewSignature("callback missing islemHash")
	}
	if !verifyCallbackHash(a.cfg.GUID, data.Get("islemGUID"), data.Get("md"), data.Get("mdStatus"), data.Get("orderId"), provided) {
		return false, pos.NewSignature("callback hash mismatch")
	}
	if !mdStatusOK(data.Get("mdStatus")) {
		return false, nil
	}
	return true, nil
}

func (a *Adapter) cancelRefund(ctx context.Context, durum, orderID string, amountMinor int64) (*pos.Result, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pos.MissingField("merchantOrderId")
	}
	raw, err := a.client.call(ctx, a.endpoint(), "TP_Islem_Iptal_Iade_Kismi2", mapCancelRefund(a.cfg, durum, orderID, amountMinor))
	if err != nil {
		return nil, err
	}
	return parseCancelRefund(raw)
}

func (a *Adapter) endpoint() string {
	fallback := endpointProd
	if a.env == pos.EnvTest {
		fallback = endpointTest
	}
	return a.cfg.Endpoint("service", fallback)
}

// sonucCode renders the negative Sonuc value as the failure code; the
// service has no separate error-code field on init operations.
func sonucCode(out *initOutcome) string {
	return strconv.FormatInt(out.Sonuc, 10)
}
