package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/odakpay/posbridge/internal/common"
	"github.com/odakpay/posbridge/internal/pos"
)

// statusForKind maps gateway error kinds onto HTTP status codes. Business
// declines are the bank saying no, not the service failing, so they stay in
// the 4xx range.
func statusForKind(kind pos.Kind) int {
	switch kind {
	case pos.KindValidation:
		return http.StatusBadRequest
	case pos.KindConfig:
		return http.StatusInternalServerError
	case pos.KindSignature:
		return http.StatusUnauthorized
	case pos.KindBusiness:
		return http.StatusPaymentRequired
	case pos.KindTransport:
		return http.StatusBadGateway
	case pos.KindResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		common.JSONError(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "bank did not answer in time", nil)
		return
	}
	var posErr *pos.Error
	if errors.As(err, &posErr) {
		details := map[string]any{}
		if posErr.CorrelationID != "" {
			details["correlationId"] = posErr.CorrelationID
		}
		if posErr.Kind == pos.KindTransport && errors.Is(posErr.Err, context.DeadlineExceeded) {
			common.JSONError(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "bank did not answer in time", details)
			return
		}
		code := posErr.Code
		if code == "" {
			code = posErr.Kind.String()
		}
		common.JSONError(w, statusForKind(posErr.Kind), code, posErr.Message, details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
}
