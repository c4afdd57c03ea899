package kuveytturk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odakpay/posbridge/internal/pos"
)

func soapBody(inner string) []byte {
	return []byte(`<?xml version="1.0" encoding="utf-8"?>` +
		`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>` +
		inner +
		`</s:Body></s:Envelope>`)
}

func TestParseReversalSuccess(t *testing.T) {
	raw := soapBody(`<SaleReversalResponse><SaleReversalResult>` +
		`<a:Success xmlns:a="http://x">true</a:Success>` +
		`<Value><ResponseCode>00</ResponseCode></Value>` +
		`<ResponseMessage>Islem basarili</ResponseMessage>` +
		`</SaleReversalResult></SaleReversalResponse>`)

	res, err := parseReversal(raw, "SaleReversal")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, "00", res.Code)
	require.Equal(t, "Islem basarili", res.Message)
}

func TestParseReversalBusinessFailure(t *testing.T) {
	raw := soapBody(`<DrawBackResponse><DrawBackResult>` +
		`<Success>false</Success>` +
		`<ErrorCode>21</ErrorCode>` +
		`<ErrorMessage>Islem bulunamadi</ErrorMessage>` +
		`</DrawBackResult></DrawBackResponse>`)

	res, err := parseReversal(raw, "DrawBack")
	require.NoError(t, err, "a bank rejection is a result, not an error")
	require.False(t, res.OK)
	require.Equal(t, "21", res.Code)
	require.Equal(t, "Islem bulunamadi", res.Message)
}

func TestParseReversalSymbolicErrorCode(t *testing.T) {
	raw := soapBody(`<DrawBackResponse><DrawBackResult>` +
		`<Success>false</Success>` +
		`<ErrorCode>MERCHANT_NOT_FOUND</ErrorCode>` +
		`</DrawBackResult></DrawBackResponse>`)

	res, err := parseReversal(raw, "DrawBack")
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "MERCHANT_NOT_FOUND", res.Code, "the bank code passes through untranslated")
}

func TestParseReversalNonSuccessResponseCode(t *testing.T) {
	raw := soapBody(`<SaleReversalResponse><SaleReversalResult>` +
		`<Success>true</Success>` +
		`<Value><ResponseCode>51</ResponseCode></Value>` +
		`</SaleReversalResult></SaleReversalResponse>`)

	res, err := parseReversal(raw, "SaleReversal")
	require.NoError(t, err)
	require.False(t, res.OK, `only response code "00" is success`)
	require.Equal(t, "51", res.Code)
}

func TestParseReversalLastResultWins(t *testing.T) {
	raw := soapBody(`<SaleReversalResponse>` +
		`<SaleReversalResult><Success>false</Success><ErrorCode>STALE</ErrorCode></SaleReversalResult>` +
		`<SaleReversalResult><Success>true</Success><Value><ResponseCode>00</ResponseCode></Value></SaleReversalResult>` +
		`</SaleReversalResponse>`)

	res, err := parseReversal(raw, "SaleReversal")
	require.NoError(t, err)
	require.True(t, res.OK)
}

func TestParseReversalNoResultNode(t *testing.T) {
	raw := soapBody(`<SomethingElse/>`)
	_, err := parseReversal(raw, "SaleReversal")
	require.True(t, pos.IsKind(err, pos.KindResponse))
}

func TestParseReversalGarbage(t *testing.T) {
	_, err := parseReversal([]byte("plain text error page"), "SaleReversal")
	require.True(t, pos.IsKind(err, pos.KindResponse))
}

func TestPickToken(t *testing.T) {
	cases := []struct {
		name string
		resp map[string]any
		want string
	}{
		{"top level", map[string]any{"Token": "t-1"}, "t-1"},
		{"under data", map[string]any{"Data": map[string]any{"Token": "t-2"}}, "t-2"},
		{"under result", map[string]any{"Result": map[string]any{"Token": "t-3"}}, "t-3"},
		{"first candidate wins", map[string]any{"Token": "t-1", "Data": map[string]any{"Token": "t-2"}}, "t-1"},
		{"missing", map[string]any{"Other": "x"}, ""},
		{"non-string ignored", map[string]any{"Token": 42}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, pickToken(tc.resp))
		})
	}
}
