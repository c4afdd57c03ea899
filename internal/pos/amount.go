package pos

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeAmount converts a heterogeneous amount representation to integer
// minor units (kuruş). Integers are taken as already-minor-unit values, and
// that includes json.Number values without a fraction or exponent: HTTP
// decoders must use json.Number so a wire value like 150000 stays 150000
// kuruş instead of being misread as a float and scaled again. Strings are
// parsed in Turkish locale format where "." separates thousands and "," is
// the decimal mark ("1.234,50" == 123450), after stripping currency symbols
// and whitespace. Floats and fractional json.Numbers are treated as
// major-unit values and rounded to the nearest minor unit.
func NormalizeAmount(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return normalizeInt(int64(n))
	case int64:
		return normalizeInt(n)
	case json.Number:
		return normalizeNumber(n)
	case float64:
		if n < 0 {
			return 0, NewValidation("amount cannot be negative")
		}
		return int64(math.Round(n * 100)), nil
	case string:
		return normalizeString(n)
	default:
		return 0, NewValidation(fmt.Sprintf("unsupported amount type %T", v))
	}
}

func normalizeNumber(n json.Number) (int64, error) {
	if !strings.ContainsAny(n.String(), ".eE") {
		i, err := n.Int64()
		if err != nil {
			return 0, NewValidation("invalid amount")
		}
		return normalizeInt(i)
	}
	f, err := n.Float64()
	if err != nil {
		return 0, NewValidation("invalid amount")
	}
	if f < 0 {
		return 0, NewValidation("amount cannot be negative")
	}
	return int64(math.Round(f * 100)), nil
}

func normalizeInt(n int64) (int64, error) {
	if n < 0 {
		return 0, NewValidation("amount cannot be negative")
	}
	return n, nil
}

func normalizeString(s string) (int64, error) {
	cleaned := s
	for _, junk := range []string{"₺", "TL", " ", "\t", "\r", "\n"} {
		cleaned = strings.ReplaceAll(cleaned, junk, "")
	}
	// Turkish locale: "1.234,50" -> "1234.50"
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return 0, NewValidation("invalid amount")
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, NewValidation("invalid amount")
	}
	if val < 0 {
		return 0, NewValidation("amount cannot be negative")
	}
	return int64(math.Round(val * 100)), nil
}

// MinorString renders an integer minor-unit amount as a plain decimal string,
// the form most gateways expect ("150000").
func MinorString(minor int64) string {
	return strconv.FormatInt(minor, 10)
}

// CommaDecimal renders an integer minor-unit amount as a comma-decimal string
// with two fraction digits and no thousands separator ("150000" -> "1500,00").
// ParamPOS documents this as the only accepted amount form.
func CommaDecimal(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d,%02d", sign, minor/100, minor%100)
}
