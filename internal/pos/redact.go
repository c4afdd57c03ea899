package pos

import "strings"

const mask = "***"

// sensitive lists field names, across all supported banks, whose values must
// never appear in logs or error reports. Matching is case-insensitive.
var sensitive = map[string]struct{}{
	"password":        {},
	"pass":            {},
	"cardnumber":      {},
	"card_number":     {},
	"kk_no":           {},
	"cvv":             {},
	"cardcvv2":        {},
	"kk_cvc":          {},
	"hashdata":        {},
	"islem_hash":      {},
	"islemhash":       {},
	"signature":       {},
	"client_password": {},
}

// Redact returns a copy of fields with sensitive values masked. The input is
// never modified.
func Redact(fields map[string]string) map[string]string {
	if fields == nil {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if isSensitive(k) {
			out[k] = mask
		} else {
			out[k] = v
		}
	}
	return out
}

// RedactAny masks sensitive values in a nested map, descending into child
// maps the way bank request documents nest.
func RedactAny(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch child := v.(type) {
		case map[string]any:
			out[k] = RedactAny(child)
		case map[string]string:
			out[k] = Redact(child)
		case string:
			if isSensitive(k) {
				out[k] = mask
			} else {
				out[k] = child
			}
		default:
			if isSensitive(k) {
				out[k] = mask
			} else {
				out[k] = v
			}
		}
	}
	return out
}

// RedactPayment produces the redacted snapshot attached to errors and logs
// for a payment payload.
func RedactPayment(p *PaymentPayload) map[string]string {
	if p == nil {
		return nil
	}
	out := map[string]string{
		"orderId":    p.OrderID,
		"amount":     MinorString(p.Amount),
		"currency":   p.CurrencyOrDefault(),
		"successUrl": p.SuccessURL,
		"failUrl":    p.FailURL,
		"email":      p.Email,
		"ip":         p.IP,
	}
	if p.Card != nil {
		out["cardNumber"] = mask
		out["cvv"] = mask
	}
	return out
}

func isSensitive(key string) bool {
	_, ok := sensitive[strings.ToLower(key)]
	return ok
}
