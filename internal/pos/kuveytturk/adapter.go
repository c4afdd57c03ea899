// Package kuveytturk integrates the KuveytTürk virtual POS: a JSON token
// service for hosted payments, a browser-form gateway for merchant-UI
// payments and BOA SOAP services for reversal-class operations.
package kuveytturk

import (
	"context"
	"net/url"
	"strings"

	"github.com/odakpay/posbridge/internal/pos"
)

const (
	endpointRegisterTest = "https://boatest.kuveytturk.com.tr/boa.virtualpos.services/KTPay/SecurePaymentRegister"
	endpointRegisterProd = "https://sanalpos.kuveytturk.com.tr/ServiceGateWay/KTPay/SecurePaymentRegister"
	endpointUITest       = "https://boatest.kuveytturk.com.tr/boa.virtualpos.services/KTPay/SecurePayment"
	endpointUIProd       = "https://sanalpos.kuveytturk.com.tr/ServiceGateWay/KTPay/SecurePayment"
	endpointPayGateTest  = "https://boatest.kuveytturk.com.tr/boa.virtualpos.services/Home/ThreeDModelPayGate"
	endpointPayGateProd  = "https://sanalpos.kuveytturk.com.tr/ServiceGateWay/Home/ThreeDModelPayGate"
	endpointSOAPTest     = "https://boatest.kuveytturk.com.tr/BOA.Integration.WCFService/BOA.Integration.VirtualPos/VirtualPosService.svc/Basic"
	endpointSOAPProd     = "https://boa.kuveytturk.com.tr/BOA.Integration.WCFService/BOA.Integration.VirtualPos/VirtualPosService.svc/Basic"
)

// Adapter implements pos.Adapter for KuveytTürk.
type Adapter struct {
	env    pos.Environment
	cfg    pos.Config
	client *client
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
	return &Adapter{
		env:    env,
		cfg:    cfg,
		client: newClient(cfg.TimeoutOrDefault(defaultTimeout)),
	}, nil
}

// Name implements pos.Adapter.
func (a *Adapter) Name() pos.Bank { return pos.BankKuveytTurk }

// Capabilities implements pos.Adapter.
func (a *Adapter) Capabilities() pos.Capabilities {
	return pos.Capabilities{
		MerchantForm:  true,
		HostedForm:    true,
		Cancel:        true,
		Refund:        true,
		PartialRefund: true,
	}
}

// Payment initiates a sale. With card fields present the merchant-form flow
// is used: the cardholder's browser POSTs the signed hidden fields plus the
// card inputs straight to the pay gate. Without card fields the hosted flow
// registers a token and redirects via GET.
func (a *Adapter) Payment(ctx context.Context, p *pos.PaymentPayload) (*pos.PaymentResult, error) {
	if p.Card != nil {
		fields, cardFields := formFields(p, a.cfg)
		return &pos.PaymentResult{
			Kind: pos.RedirectRequired,
			Form: &pos.Form{
				Action:     a.endpoint("paygate", endpointPayGateTest, endpointPayGateProd),
				Method:     "POST",
				Fields:     fields,
				CardFields: cardFields,
			},
		}, nil
	}

	resp, raw, err := a.client.postJSON(ctx, a.endpoint("register", endpointRegisterTest, endpointRegisterProd), registerPayload(p, a.cfg))
	if err != nil {
		return nil, err
	}
	if code, message := registerOutcome(resp); code != "" && code != successCode {
		return nil, pos.NewBusiness(code, message)
	}
	token := pickToken(resp)
	if token == "" {
		return nil, pos.ResponseNotFound("register response carries no token")
	}
	return &pos.PaymentResult{
		Kind:        pos.RedirectRequired,
		RedirectURL: a.endpoint("ui", endpointUITest, endpointUIProd) + "?Token=" + url.QueryEscape(token),
		Token:       token,
		Raw:         raw,
	}, nil
}

// Cancel voids an unsettled sale. The reversal always signs and sends amount
// "0" regardless of the original sale amount.
func (a *Adapter) Cancel(ctx context.Context, p *pos.CancelPayload) (*pos.Result, error) {
	if err := requireReversalFields(p.OrderID, p.RRN, p.AuthCode, p.TransactionID); err != nil {
		return nil, err
	}
	return a.reversal(ctx, reversalRequest{
		Operation:       "SaleReversal",
		OrderID:         p.OrderID,
		MerchantOrderID: p.MerchantOrderID,
		RRN:             p.RRN,
		Stan:            p.TransactionID,
		AuthCode:        p.AuthCode,
		Amount:          "0",
	})
}

// RefundFull returns the whole settled amount via DrawBack, signed over
// amount "0" like every non-partial reversal.
func (a *Adapter) RefundFull(ctx context.Context, p *pos.RefundPayload) (*pos.Result, error) {
	if err := requireReversalFields(p.OrderID, p.RRN, p.AuthCode, p.TransactionID); err != nil {
		return nil, err
	}
	return a.reversal(ctx, reversalRequest{
		Operation:       "DrawBack",
		OrderID:         p.OrderID,
		MerchantOrderID: p.MerchantOrderID,
		RRN:             p.RRN,
		Stan:            p.TransactionID,
		AuthCode:        p.AuthCode,
		Amount:          "0",
	})
}

// RefundPartial returns part of the settled amount via PartialDrawback.
// The wire amount is one minor unit below the requested amount: the bank's
// production behaviour matches the historical (amount - 0.01) * 100 formula
// and rejects the unadjusted value. This rule is specific to this provider.
func (a *Adapter) RefundPartial(ctx context.Context, p *pos.RefundPayload) (*pos.Result, error) {
	if err := requireReversalFields(p.OrderID, p.RRN, p.AuthCode, p.TransactionID); err != nil {
		return nil, err
	}
	if p.Amount <= 0 {
		return nil, pos.NewValidation("partial refund requires a positive amount")
	}
	return a.reversal(ctx, reversalRequest{
		Operation:       "PartialDrawback",
		OrderID:         p.OrderID,
		MerchantOrderID: p.MerchantOrderID,
		RRN:             p.RRN,
		Stan:            p.TransactionID,
		AuthCode:        p.AuthCode,
		Amount:          pos.MinorString(p.Amount - 1),
	})
}

// VerifyCallback checks the pay-gate callback. The bank does not publish the
// callback hash recipe for this flow, so verification is response code "00"
// plus presence of the HashData field; an accepted code without a hash is
// rejected as a signature failure.
func (a *Adapter) VerifyCallback(data url.Values) (bool, error) {
	code := strings.TrimSpace(data.Get("ResponseCode"))
	if code != successCode {
		return false, nil
	}
	if strings.TrimSpace(data.Get("HashData")) == "" {
		return false, pos.NewSignature("callback missing HashData")
	}
	return true, nil
}

func (a *Adapter) reversal(ctx context.Context, req reversalRequest) (*pos.Result, error) {
	raw, err := a.client.postSOAP(ctx, a.endpoint("soap", endpointSOAPTest, endpointSOAPProd), req.Operation, reversalEnvelope(req, a.cfg))
	if err != nil {
		return nil, err
	}
	return parseReversal(raw, req.Operation)
}

func (a *Adapter) endpoint(key, test, prod string) string {
	fallback := prod
	if a.env == pos.EnvTest {
		fallback = test
	}
	return a.cfg.Endpoint(key, fallback)
}

func requireReversalFields(orderID, rrn, authCode, transactionID string) error {
	for name, value := range map[string]string{
		"orderId":       orderID,
		"rrn":           rrn,
		"authCode":      authCode,
		"transactionId": transactionID,
	} {
		if strings.TrimSpace(value) == "" {
			return pos.MissingField(name)
		}
	}
	return nil
}
