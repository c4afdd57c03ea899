package parampos

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odakpay/posbridge/internal/pos"
)

func soapResponse(operation, inner string) string {
	return `<?xml version="1.0" encoding="utf-8"?>` +
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<` + operation + `Response xmlns="https://turkpos.com.tr/">` +
		`<` + operation + `Result>` + inner + `</` + operation + `Result>` +
		`</` + operation + `Response>` +
		`</soap:Body></soap:Envelope>`
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) pos.Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.Endpoints = map[string]string{"service": srv.URL}
	a, err := New(pos.EnvTest, cfg)
	require.NoError(t, err)
	return a
}

func testPayment() *pos.PaymentPayload {
	return &pos.PaymentPayload{
		OrderID:    "SIP-77",
		Amount:     150000,
		SuccessURL: "https://ok.example/cb",
		FailURL:    "https://fail.example/cb",
		IP:         "10.0.0.1",
		Card: &pos.Card{
			Number:      "4446763125813623",
			ExpiryMonth: "12",
			ExpiryYear:  "2026",
			CVV:         "000",
			Holder:      "AD SOYAD",
		},
	}
}

func TestNewRequiresDealerCredentials(t *testing.T) {
	_, err := New(pos.EnvTest, pos.Config{ClientCode: testClientCode, Username: testUsername})
	require.Error(t, err)
	require.True(t, pos.IsKind(err, pos.KindConfig))
}

func TestPaymentRequiresCard(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	p := testPayment()
	p.Card = nil
	_, err = a.Payment(context.Background(), p)
	var posErr *pos.Error
	require.ErrorAs(t, err, &posErr)
	require.Equal(t, "MISSING_FIELD", posErr.Code)
}

func TestPaymentRedirect(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, `"https://turkpos.com.tr/TP_WMD_UCD"`, r.Header.Get("SOAPAction"))
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), "<Islem_Hash>73WOilETnvffjPE/tF9hWRtnfJlz8/FRu+DoEv94svY=</Islem_Hash>")
		require.Contains(t, string(body), "<KK_No>4446763125813623</KK_No>")
		_, _ = io.WriteString(w, soapResponse("TP_WMD_UCD",
			`<Sonuc>1</Sonuc><Islem_GUID>g-1</Islem_GUID><UCD_URL>https://3d.example/challenge</UCD_URL>`))
	})

	res, err := a.Payment(context.Background(), testPayment())
	require.NoError(t, err)
	require.Equal(t, pos.RedirectRequired, res.Kind)
	require.Equal(t, "https://3d.example/challenge", res.RedirectURL)
	require.Equal(t, "g-1", res.TransactionID)
}

func TestPaymentChallengeHTML(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		// the service double-encodes the fragment and pads it with stray
		// whitespace and quote characters
		_, _ = io.WriteString(w, soapResponse("TP_WMD_UCD",
			`<Sonuc>1</Sonuc><Islem_GUID>g-2</Islem_GUID>`+
				`<UCD_HTML> &amp;lt;form action=&amp;quot;https://3d.example&amp;quot;&amp;gt;&amp;lt;/form&amp;gt; '</UCD_HTML>`))
	})

	res, err := a.Payment(context.Background(), testPayment())
	require.NoError(t, err)
	require.Equal(t, pos.HTMLResult, res.Kind)
	require.Equal(t, `<form action="https://3d.example"></form>`, res.HTML)
	require.Equal(t, "g-2", res.TransactionID)
}

func TestPaymentNonSecureCompletes(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), "<Islem_Guvenlik_Tip>NS</Islem_Guvenlik_Tip>")
		_, _ = io.WriteString(w, soapResponse("TP_WMD_UCD",
			`<Sonuc>1</Sonuc><Islem_ID>4021</Islem_ID><UCD_HTML>NONSECURE</UCD_HTML>`))
	})

	p := testPayment()
	p.NonSecure = true
	res, err := a.Payment(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, pos.Completed, res.Kind)
	require.Equal(t, "4021", res.TransactionID)
}

func TestPaymentBusinessRejection(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, soapResponse("TP_WMD_UCD",
			`<Sonuc>-101</Sonuc><Sonuc_Str>Gecersiz kart</Sonuc_Str>`))
	})

	_, err := a.Payment(context.Background(), testPayment())
	var posErr *pos.Error
	require.ErrorAs(t, err, &posErr)
	require.Equal(t, pos.KindBusiness, posErr.Kind)
	require.Equal(t, "-101", posErr.Code)
	require.Equal(t, "Gecersiz kart", posErr.Message)
}

func TestPaymentResponseWithoutChallenge(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, soapResponse("TP_WMD_UCD", `<Sonuc>1</Sonuc>`))
	})

	_, err := a.Payment(context.Background(), testPayment())
	require.True(t, pos.IsKind(err, pos.KindResponse))
}

func TestComplete3D(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, `"https://turkpos.com.tr/TP_WMD_Pay"`, r.Header.Get("SOAPAction"))
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), "<UCD_MD>md-token</UCD_MD>")
		require.Contains(t, string(body), "<Islem_GUID>g-1</Islem_GUID>")
		_, _ = io.WriteString(w, soapResponse("TP_WMD_Pay",
			`<Sonuc>1</Sonuc><Islem_ID>5001</Islem_ID>`))
	})

	res, err := a.(*Adapter).Complete3D(context.Background(), "md-token", "g-1", "SIP-77")
	require.NoError(t, err)
	require.Equal(t, pos.Completed, res.Kind)
	require.Equal(t, "5001", res.TransactionID)
}

func TestComplete3DRequiresFields(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	_, err = a.(*Adapter).Complete3D(context.Background(), "", "g-1", "SIP-77")
	require.True(t, pos.IsKind(err, pos.KindValidation))
}

func TestCancelVoidsWithZeroAmount(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), "<Durum>IPTAL</Durum>")
		require.Contains(t, string(body), "<Tutar>0,00</Tutar>")
		_, _ = io.WriteString(w, soapResponse("TP_Islem_Iptal_Iade_Kismi2",
			`<Sonuc>1</Sonuc><Sonuc_Str>Islem iptal edildi</Sonuc_Str>`))
	})

	res, err := a.Cancel(context.Background(), &pos.CancelPayload{MerchantOrderID: "SIP-77"})
	require.NoError(t, err)
	require.True(t, res.OK)
}

func TestCancelRequiresOrderID(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	_, err = a.Cancel(context.Background(), &pos.CancelPayload{})
	require.True(t, pos.IsKind(err, pos.KindValidation))
}

func TestRefundFullUsesOriginalAmount(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), "<Durum>IADE</Durum>")
		require.Contains(t, string(body), "<Tutar>1500,00</Tutar>")
		_, _ = io.WriteString(w, soapResponse("TP_Islem_Iptal_Iade_Kismi2", `<Sonuc>1</Sonuc>`))
	})

	res, err := a.RefundFull(context.Background(), &pos.RefundPayload{
		MerchantOrderID: "SIP-77",
		OriginalAmount:  150000,
	})
	require.NoError(t, err)
	require.True(t, res.OK)
}

func TestRefundFullRequiresAmount(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	_, err = a.RefundFull(context.Background(), &pos.RefundPayload{MerchantOrderID: "SIP-77"})
	require.True(t, pos.IsKind(err, pos.KindValidation))
}

func TestRefundPartialRejection(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, soapResponse("TP_Islem_Iptal_Iade_Kismi2",
			`<Sonuc>0</Sonuc><Sonuc_Str>Islem bulunamadi</Sonuc_Str><Banka_Sonuc_Kod>21</Banka_Sonuc_Kod>`))
	})

	res, err := a.RefundPartial(context.Background(), &pos.RefundPayload{
		MerchantOrderID: "SIP-77",
		Amount:          7550,
	})
	require.NoError(t, err, "a bank rejection is a result, not an error")
	require.False(t, res.OK)
	require.Equal(t, "21", res.Code)
	require.Equal(t, "Islem bulunamadi", res.Message)
}

func TestVerifyCallback(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	values := url.Values{
		"islemGUID": {"abc-def"},
		"md":        {"md-token"},
		"mdStatus":  {"1"},
		"orderId":   {"SIP-77"},
		"islemHash": {"Q2dj4arn8u6lLhzRW184x4P4Pv4="},
	}

	ok, err := a.VerifyCallback(values)
	require.NoError(t, err)
	require.True(t, ok)

	tampered := url.Values{}
	for k, v := range values {
		tampered[k] = v
	}
	tampered.Set("md", "other")
	ok, err = a.VerifyCallback(tampered)
	require.False(t, ok)
	require.True(t, pos.IsKind(err, pos.KindSignature))

	missing := url.Values{"mdStatus": {"1"}}
	ok, err = a.VerifyCallback(missing)
	require.False(t, ok)
	require.True(t, pos.IsKind(err, pos.KindSignature))
}

func TestVerifyCallbackFailedAuthentication(t *testing.T) {
	a, err := New(pos.EnvTest, testConfig())
	require.NoError(t, err)

	// a correctly signed callback for a failed mdStatus is a decline, not a
	// security event
	sum := sha1.Sum([]byte("abc-def" + "md-token" + "0" + "SIP-77" + testGUID))
	values := url.Values{
		"islemGUID": {"abc-def"},
		"md":        {"md-token"},
		"mdStatus":  {"0"},
		"orderId":   {"SIP-77"},
		"islemHash": {base64.StdEncoding.EncodeToString(sum[:])},
	}

	ok, err := a.VerifyCallback(values)
	require.NoError(t, err)
	require.False(t, ok)
}
