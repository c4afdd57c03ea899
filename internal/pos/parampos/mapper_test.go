package parampos

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odakpay/posbridge/internal/pos"
)

// Golden hash values were produced with the service's documented recipes
// against the sandbox dealer credentials.
const (
	testClientCode = "10738"
	testGUID       = "0c13d406-873b-403b-9c09-a5766840d98c"
	testUsername   = "Test"
	testPassword   = "Test"
)

func testConfig() pos.Config {
	return pos.Config{
		ClientCode: testClientCode,
		GUID:       testGUID,
		Username:   testUsername,
		Password:   testPassword,
	}
}

func TestSignInit(t *testing.T) {
	got := signInit(testClientCode, testGUID, "1", "1500,00", "1500,00", "SIP-77")
	require.Equal(t, "73WOilETnvffjPE/tF9hWRtnfJlz8/FRu+DoEv94svY=", got)
}

func TestVerifyCallbackHash(t *testing.T) {
	const golden = "Q2dj4arn8u6lLhzRW184x4P4Pv4="
	require.True(t, verifyCallbackHash(testGUID, "abc-def", "md-token", "1", "SIP-77", golden))
	// the recipe lower-cases the dealer GUID before hashing
	require.True(t, verifyCallbackHash("0C13D406-873B-403B-9C09-A5766840D98C", "abc-def", "md-token", "1", "SIP-77", golden))
	require.False(t, verifyCallbackHash(testGUID, "abc-def", "md-token", "2", "SIP-77", golden))
	require.False(t, verifyCallbackHash(testGUID, "abc-def", "tampered", "1", "SIP-77", golden))
}

func TestMDStatusOK(t *testing.T) {
	for _, s := range []string{"1", "2", "3", "4", " 1 "} {
		require.True(t, mdStatusOK(s), s)
	}
	for _, s := range []string{"0", "5", "7", "", "ok"} {
		require.False(t, mdStatusOK(s), s)
	}
}

func TestMap3DInitOrderAndHash(t *testing.T) {
	n := 1
	p := &pos.PaymentPayload{
		OrderID:          "SIP-77",
		Amount:           150000,
		SuccessURL:       "https://ok.example/cb",
		FailURL:          "https://fail.example/cb",
		IP:               "10.0.0.1",
		InstallmentCount: &n,
		Card: &pos.Card{
			Number:      "4446763125813623",
			ExpiryMonth: "12",
			ExpiryYear:  "2026",
			CVV:         "000",
			Holder:      "AD SOYAD",
		},
	}

	fields := map3DInit(p, testConfig())

	require.Equal(t, "G", fields[0].Name)
	require.Equal(t, testClientCode, fields[0].Children[0].Value)

	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}
	require.Equal(t, "3D", byName["Islem_Guvenlik_Tip"])
	require.Equal(t, "1500,00", byName["Islem_Tutar"])
	require.Equal(t, "1500,00", byName["Toplam_Tutar"])
	require.Equal(t, "1", byName["Taksit"])
	require.Equal(t, "4446763125813623", byName["KK_No"])
	require.Equal(t, "73WOilETnvffjPE/tF9hWRtnfJlz8/FRu+DoEv94svY=", byName["Islem_Hash"])

	// Islem_Hash is the final element
	require.Equal(t, "Islem_Hash", fields[len(fields)-1].Name)
}

func TestMap3DInitNonSecure(t *testing.T) {
	p := &pos.PaymentPayload{OrderID: "SIP-1", Amount: 100, NonSecure: true}
	fields := map3DInit(p, testConfig())
	for _, f := range fields {
		if f.Name == "Islem_Guvenlik_Tip" {
			require.Equal(t, "NS", f.Value)
			return
		}
	}
	t.Fatal("Islem_Guvenlik_Tip not rendered")
}

func TestMapCancelRefundAmounts(t *testing.T) {
	fields := mapCancelRefund(testConfig(), "IPTAL", "SIP-77", 0)
	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}
	require.Equal(t, "IPTAL", byName["Durum"])
	require.Equal(t, "0,00", byName["Tutar"])

	fields = mapCancelRefund(testConfig(), "IADE", "SIP-77", 7550)
	for _, f := range fields {
		if f.Name == "Tutar" {
			require.Equal(t, "75,50", f.Value)
		}
	}
}
