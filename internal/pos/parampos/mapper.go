package parampos

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/odakpay/posbridge/internal/pos"
)

// field is one element of a SOAP operation body. Order is preserved because
// the service validates document shape strictly; maps would randomise it.
type field struct {
	Name     string
	Value    string
	Children []field
}

func credentialBlock(cfg pos.Config) field {
	return field{Name: "G", Children: []field{
		{Name: "CLIENT_CODE", Value: cfg.ClientCode},
		{Name: "CLIENT_USERNAME", Value: cfg.Username},
		{Name: "CLIENT_PASSWORD", Value: cfg.Password},
	}}
}

// map3DInit builds the TP_WMD_UCD request. Islem_Hash binds dealer code,
// GUID, installment count, both amounts and the order id, in that exact
// order with no separators.
func map3DInit(p *pos.PaymentPayload, cfg pos.Config) []field {
	taksit := "1"
	if p.InstallmentCount != nil {
		taksit = strconv.Itoa(*p.InstallmentCount)
	}
	tutar := pos.CommaDecimal(p.Amount)

	securityType := "3D"
	if p.NonSecure {
		securityType = "NS"
	}

	fields := []field{
		credentialBlock(cfg),
		{Name: "GUID", Value: cfg.GUID},
		{Name: "Islem_Guvenlik_Tip", Value: securityType},
		{Name: "Siparis_ID", Value: p.OrderID},
		{Name: "Islem_Tutar", Value: tutar},
		{Name: "Toplam_Tutar", Value: tutar},
		{Name: "Taksit", Value: taksit},
		{Name: "Basarili_URL", Value: p.SuccessURL},
		{Name: "Hata_URL", Value: p.FailURL},
		{Name: "IPAdr", Value: p.IP},
	}
	if p.Card != nil {
		fields = append(fields,
			field{Name: "KK_Sahibi", Value: p.Card.Holder},
			field{Name: "KK_No", Value: p.Card.Number},
			field{Name: "KK_SK_Ay", Value: p.Card.ExpiryMonth},
			field{Name: "KK_SK_Yil", Value: p.Card.ExpiryYear},
			field{Name: "KK_CVC", Value: p.Card.CVV},
		)
	}
	fields = append(fields, field{
		Name:  "Islem_Hash",
		Value: signInit(cfg.ClientCode, cfg.GUID, taksit, tutar, tutar, p.OrderID),
	})
	return fields
}

// mapComplete3D builds the TP_WMD_Pay request that finalises a 3D payment
// after the callback has been verified.
func mapComplete3D(cfg pos.Config, ucdMD, islemGUID, orderID string) []field {
	return []field{
		credentialBlock(cfg),
		{Name: "GUID", Value: cfg.GUID},
		{Name: "UCD_MD", Value: ucdMD},
		{Name: "Islem_GUID", Value: islemGUID},
		{Name: "Siparis_ID", Value: orderID},
	}
}

// mapCancelRefund builds the TP_Islem_Iptal_Iade_Kismi2 request. Durum is
// IPTAL for a same-day void and IADE for a refund; partial refunds use IADE
// with the partial amount.
func mapCancelRefund(cfg pos.Config, durum, orderID string, amountMinor int64) []field {
	return []field{
		credentialBlock(cfg),
		{Name: "GUID", Value: cfg.GUID},
		{Name: "Durum", Value: durum},
		{Name: "Siparis_ID", Value: orderID},
		{Name: "Tutar", Value: pos.CommaDecimal(amountMinor)},
	}
}

// signInit computes Islem_Hash: base64(sha256(...)), UTF-8, no separators.
func signInit(clientCode, guid, taksit, islemTutar, toplamTutar, orderID string) string {
	sum := sha256.Sum256([]byte(clientCode + guid + taksit + islemTutar + toplamTutar + orderID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// verifyCallbackHash recomputes the 3D callback hash and compares it in
// constant time. The GUID is lower-cased per the bank's recipe.
func verifyCallbackHash(guid, islemGUID, md, mdStatus, orderID, providedHash string) bool {
	sum := sha1.Sum([]byte(islemGUID + md + mdStatus + orderID + strings.ToLower(guid)))
	expected := base64.StdEncoding.EncodeToString(sum[:])
	return hmac.Equal([]byte(expected), []byte(providedHash))
}

// mdStatusOK reports whether the 3D authentication status is one of the
// documented success values.
func mdStatusOK(mdStatus string) bool {
	switch strings.TrimSpace(mdStatus) {
	case "1", "2", "3", "4":
		return true
	default:
		return false
	}
}
