package kuveytturk

import (
	"fmt"
	"strings"

	"github.com/odakpay/posbridge/internal/pos"
	"github.com/odakpay/posbridge/internal/pos/posxml"
)

// successCode is the only response code the bank documents as success; any
// other value is a business failure even when the Success flag reads true.
const successCode = "00"

// parseReversal normalizes a BOA SOAP reversal response. The body may carry
// several *Result nodes (intermediate echoes); the last one in document order
// for the requested operation is authoritative.
func parseReversal(raw []byte, operation string) (*pos.Result, error) {
	root, err := posxml.Parse(raw)
	if err != nil {
		return nil, pos.ResponseNotFound("reversal response is not parseable xml: " + err.Error())
	}

	node := root.LastMatching(operation + "Result")
	if node == nil {
		node = root.LastMatching("Result")
	}
	if node == nil {
		return nil, pos.ResponseNotFound(fmt.Sprintf("no result node for %s", operation))
	}

	if !posxml.TolerantBool(node.ChildText("Success")) {
		code := node.ChildText("ErrorCode")
		if code == "" {
			code = "UNKNOWN_ERROR"
		}
		message := node.ChildText("ErrorMessage")
		if message == "" {
			message = "Unknown error"
		}
		return &pos.Result{OK: false, Code: code, Message: message, Raw: raw}, nil
	}

	code := ""
	if value := node.Find("Value"); value != nil {
		code = value.ChildText("ResponseCode")
	}
	message := node.ChildText("ResponseMessage")
	return &pos.Result{
		OK:      code == successCode,
		Code:    code,
		Message: message,
		Raw:     raw,
	}, nil
}

// registerTokenCandidates is the ordered list of paths a register response
// may carry the payment token under; environments differ on which one.
var registerTokenCandidates = [][]string{
	{"Token"},
	{"Data", "Token"},
	{"Result", "Token"},
}

// pickToken resolves the hosted-payment token from a decoded register
// response, trying each documented candidate path in order.
func pickToken(resp map[string]any) string {
	for _, path := range registerTokenCandidates {
		if v := lookupPath(resp, path); v != "" {
			return v
		}
	}
	return ""
}

func lookupPath(m map[string]any, path []string) string {
	var cur any = m
	for _, key := range path {
		child, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = child[key]
		if !ok {
			return ""
		}
	}
	s, ok := cur.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// registerOutcome extracts the response code and message from a decoded
// register response. An empty code is treated as success for environments
// that omit it.
func registerOutcome(resp map[string]any) (code, message string) {
	if v, ok := resp["ResponseCode"].(string); ok {
		code = strings.TrimSpace(v)
	}
	if v, ok := resp["ResponseMessage"].(string); ok {
		message = strings.TrimSpace(v)
	}
	return code, message
}
