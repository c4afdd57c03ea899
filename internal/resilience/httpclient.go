package resilience

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps an http.Client with a per-call timeout and a circuit
// breaker. Each Do is exactly one attempt.
type HTTPClient struct {
	Client  *http.Client
	Breaker *Breaker
	Timeout time.Duration
}

// Do executes the request once. When the breaker is open ErrOpenCircuit is
// returned without touching the network.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	breaker := cl.Breaker
	if breaker == nil {
		breaker = NewBreaker(1, 1, time.Second)
	}
	if !breaker.Allow() {
		return nil, ErrOpenCircuit
	}

	callCtx := ctx
	cancel := context.CancelFunc(func() {})
	if cl.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, cl.Timeout)
	}

	resp, err := cl.Client.Do(req.WithContext(callCtx))
	if err != nil {
		cancel()
		breaker.Report(false)
		return nil, err
	}
	breaker.Report(resp.StatusCode < 500)
	// the deadline must survive until the caller drains the body
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
