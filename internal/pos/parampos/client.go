package parampos

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/odakpay/posbridge/internal/pos"
	"github.com/odakpay/posbridge/internal/resilience"
)

const (
	serviceNS      = "https://turkpos.com.tr/"
	defaultTimeout = 20 * time.Second
)

// client posts SOAP-as-map operations to the TurkPos web service. Unlike a
// WSDL-generated client it renders the operation body directly from the
// ordered field list the mapper produced.
type client struct {
	http resilience.HTTPClient
}

func newClient(timeout time.Duration) *client {
	transport := &http.Transport{
		TLSNextProto:      map[string]func(string, *tls.Conn) http.RoundTripper{},
		ForceAttemptHTTP2: false,
	}
	return &client{
		http: resilience.HTTPClient{
			Client:  &http.Client{Transport: otelhttp.NewTransport(transport)},
			Breaker: resilience.NewBreaker(5, 0.6, 30*time.Second).WithTarget("parampos"),
			Timeout: timeout,
		},
	}
}

// call posts the operation and returns the raw envelope body.
func (c *client) call(ctx context.Context, endpoint, operation string, fields []field) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(envelope(operation, fields)))
	if err != nil {
		return nil, pos.NewTransport(err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+serviceNS+operation+`"`)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, pos.NewTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, pos.NewTransport(err)
	}
	raw := buf.Bytes()
	if resp.StatusCode >= 400 && len(bytes.TrimSpace(raw)) == 0 {
		return nil, pos.NewTransport(fmt.Errorf("http %d from turkpos service", resp.StatusCode))
	}
	return raw, nil
}

func envelope(operation string, fields []field) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">`)
	b.WriteString("<soap:Body>")
	fmt.Fprintf(&b, `<%s xmlns="%s">`, operation, serviceNS)
	writeFields(&b, fields)
	fmt.Fprintf(&b, "</%s>", operation)
	b.WriteString("</soap:Body></soap:Envelope>")
	return b.Bytes()
}

func writeFields(b *bytes.Buffer, fields []field) {
	for _, f := range fields {
		fmt.Fprintf(b, "<%s>", f.Name)
		if len(f.Children) > 0 {
			writeFields(b, f.Children)
		} else {
			_ = xml.EscapeText(b, []byte(f.Value))
		}
		fmt.Fprintf(b, "</%s>", f.Name)
	}
}
