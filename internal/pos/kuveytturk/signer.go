package kuveytturk

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/base64"

	"github.com/odakpay/posbridge/internal/pos/textenc"
)

// Two hash constructions coexist in the bank's documentation: the KTPay
// register service signs with HMAC-SHA-512 keyed by the SHA-1-hashed
// password, while the merchant form and the BOA SOAP services sign with plain
// SHA-1 over an ISO-8859-9 transliteration. Field order is mandated by the
// bank and concatenation uses no separators; both are load-bearing.

func hashedPassword(password string) string {
	sum := sha1.Sum([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func hashedPasswordISO(password string) string {
	sum := sha1.Sum(textenc.ToISO8859_9(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func sha1ISOBase64(data string) string {
	sum := sha1.Sum(textenc.ToISO8859_9(data))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// signRegister computes the KTPay SecurePaymentRegister hash.
func signRegister(merchantID, merchantOrderID, amount, okURL, failURL, username, password string) string {
	hp := hashedPassword(password)
	data := merchantID + merchantOrderID + amount + okURL + failURL + username + hp
	mac := hmac.New(sha512.New, []byte(hp))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signForm computes the ThreeDModelPayGate merchant-form hash.
func signForm(merchantID, merchantOrderID, amount, okURL, failURL, username, password string) string {
	hp := hashedPasswordISO(password)
	return sha1ISOBase64(merchantID + merchantOrderID + amount + okURL + failURL + username + hp)
}

// signReversal computes the BOA SOAP reversal hash. Cancel and full drawback
// always sign amount "0"; only a true partial drawback signs the amount.
func signReversal(merchantID, merchantOrderID, amount, username, password string) string {
	hp := hashedPasswordISO(password)
	return sha1ISOBase64(merchantID + merchantOrderID + amount + username + hp)
}
