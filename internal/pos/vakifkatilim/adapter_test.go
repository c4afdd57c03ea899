package vakifkatilim

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odakpay/posbridge/internal/pos"
)

const (
	testMerchantID = "496"
	testCustomerID = "400235"
	testUsername   = "apiuser"
	testPassword   = "api123"
	testOrderID    = "ORD-1001"
	testOkURL      = "https://ok.example/cb"
	testFailURL    = "https://fail.example/cb"
)

func testConfig() pos.Config {
	return pos.Config{
		MerchantID: testMerchantID,
		CustomerID: testCustomerID,
		Username:   testUsername,
		Password:   testPassword,
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(pos.EnvTest, pos.Config{MerchantID: testMerchantID, Username: testUsername})
	require.Error(t, err)
	require.True(t, pos.IsKind(err, pos.KindConfig))
}

func TestCapabilitiesMerchantFormOnly(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	caps := a.Capabilities()
	require.True(t, caps.MerchantForm)
	require.False(t, caps.HostedForm)
	require.False(t, caps.Cancel)
	require.False(t, caps.Refund)
	require.False(t, caps.PartialRefund)
}

func TestPaymentBuildsSignedForm(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	res, err := a.Payment(context.Background(), &pos.PaymentPayload{
		OrderID:    testOrderID,
		Amount:     10000,
		SuccessURL: testOkURL,
		FailURL:    testFailURL,
	})
	require.NoError(t, err)
	require.Equal(t, pos.RedirectRequired, res.Kind)
	require.NotNil(t, res.Form)
	require.Equal(t, "POST", res.Form.Method)
	require.Equal(t, gatewayURL, res.Form.Action)

	fields := res.Form.Fields
	require.Equal(t, "10000", fields["Amount"])
	require.Equal(t, "0949", fields["CurrencyCode"])
	require.Equal(t, "3", fields["TransactionSecurity"])
	require.Equal(t, "0", fields["InstallmentCount"])
	// same recipe and credential set as the sandbox golden
	require.Equal(t, "G3IpZ5KcZdAscUhw+YBaREtjYlc=", fields["HashData"])

	require.Contains(t, res.Form.CardFields, "CardNumber")
	require.Contains(t, res.Form.CardFields, "CardCVV2")
	require.NotContains(t, fields, "CardNumber")
}

func TestPaymentEndpointOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoints = map[string]string{"paygate": "https://sandbox.example/gate"}
	a, err := New(pos.EnvTest, cfg)
	require.NoError(t, err)

	res, err := a.Payment(context.Background(), &pos.PaymentPayload{
		OrderID:    testOrderID,
		Amount:     10000,
		SuccessURL: testOkURL,
		FailURL:    testFailURL,
	})
	require.NoError(t, err)
	require.Equal(t, "https://sandbox.example/gate", res.Form.Action)
}

func TestInstallmentsPassedThrough(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	n := 6
	res, err := a.Payment(context.Background(), &pos.PaymentPayload{
		OrderID:          testOrderID,
		Amount:           10000,
		SuccessURL:       testOkURL,
		FailURL:          testFailURL,
		InstallmentCount: &n,
	})
	require.NoError(t, err)
	require.Equal(t, "6", res.Form.Fields["InstallmentCount"])
}

func TestReversalsUnsupported(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	var posErr *pos.Error

	_, err = a.Cancel(context.Background(), &pos.CancelPayload{OrderID: "1"})
	require.ErrorAs(t, err, &posErr)
	require.Equal(t, "UNSUPPORTED_OPERATION", posErr.Code)
	require.Equal(t, pos.KindValidation, posErr.Kind)

	_, err = a.RefundFull(context.Background(), &pos.RefundPayload{OrderID: "1"})
	require.ErrorAs(t, err, &posErr)
	require.Equal(t, "UNSUPPORTED_OPERATION", posErr.Code)

	_, err = a.RefundPartial(context.Background(), &pos.RefundPayload{OrderID: "1", Amount: 100})
	require.ErrorAs(t, err, &posErr)
	require.Equal(t, "UNSUPPORTED_OPERATION", posErr.Code)
}

func TestVerifyCallback(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	ok, err := a.VerifyCallback(url.Values{"ResponseCode": {"00"}, "HashData": {"h=="}})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.VerifyCallback(url.Values{"ResponseCode": {"05"}})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = a.VerifyCallback(url.Values{"ResponseCode": {"00"}})
	require.False(t, ok)
	require.True(t, pos.IsKind(err, pos.KindSignature))
}
