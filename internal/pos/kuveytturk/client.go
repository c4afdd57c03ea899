package kuveytturk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/odakpay/posbridge/internal/pos"
	"github.com/odakpay/posbridge/internal/resilience"
)

const defaultTimeout = 40 * time.Second

// client performs the bank's two wire styles: JSON POST for the KTPay token
// service and SOAP POST for the BOA reversal services. It owns no business
// logic and never retries.
type client struct {
	http resilience.HTTPClient
}

func newClient(timeout time.Duration) *client {
	// the BOA endpoint misbehaves on HTTP/2; pin HTTP/1.1
	transport := &http.Transport{
		TLSNextProto:      map[string]func(string, *tls.Conn) http.RoundTripper{},
		ForceAttemptHTTP2: false,
	}
	return &client{
		http: resilience.HTTPClient{
			Client:  &http.Client{Transport: otelhttp.NewTransport(transport)},
			Breaker: resilience.NewBreaker(5, 0.6, 30*time.Second).WithTarget("kuveytturk"),
			Timeout: timeout,
		},
	}
}

// postJSON posts the register payload and returns the decoded response plus
// the raw body for audit.
func (c *client) postJSON(ctx context.Context, url string, payload map[string]string) (map[string]any, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, pos.NewValidation("encode register payload: " + err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, pos.NewTransport(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, nil, pos.NewTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := readBody(resp)
	if err != nil {
		return nil, nil, pos.NewTransport(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode >= 400 {
			return nil, raw, pos.NewTransport(fmt.Errorf("http %d from register service", resp.StatusCode))
		}
		return nil, raw, pos.ResponseNotFound("register response is not json")
	}
	if resp.StatusCode >= 400 {
		// the register service sometimes rejects with an error status while
		// still returning a bank response code; that code is a deterministic
		// outcome, not a transport failure
		if code, _ := registerOutcome(decoded); code != "" && code != successCode {
			return decoded, raw, nil
		}
		return decoded, raw, pos.NewTransport(fmt.Errorf("http %d from register service", resp.StatusCode))
	}
	return decoded, raw, nil
}

// postSOAP posts a reversal envelope with the operation's SOAPAction header
// and returns the raw response body.
func (c *client) postSOAP(ctx context.Context, endpoint, operation string, envelope []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, pos.NewTransport(err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", fmt.Sprintf(`"%s/IVirtualPosService/%s"`, soapNS, operation))
	req.Close = true

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, pos.NewTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := readBody(resp)
	if err != nil {
		return nil, pos.NewTransport(err)
	}
	// SOAP faults arrive as HTTP 500 with a parseable envelope; leave those
	// to the parser and only treat bodyless failures as transport errors.
	if resp.StatusCode >= 400 && len(bytes.TrimSpace(raw)) == 0 {
		return nil, pos.NewTransport(fmt.Errorf("http %d from reversal service", resp.StatusCode))
	}
	return raw, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
