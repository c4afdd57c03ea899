package resilience

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	b := NewBreaker(4, 0.5, time.Hour).WithTarget("test")

	for i := 0; i < 2; i++ {
		require.True(t, b.Allow())
		b.Report(true)
	}
	for i := 0; i < 2; i++ {
		require.True(t, b.Allow())
		b.Report(false)
	}

	require.False(t, b.Allow(), "2 failures out of 4 at ratio 0.5 must open")
}

func TestBreakerStaysClosedBelowMinRequests(t *testing.T) {
	b := NewBreaker(10, 0.5, time.Hour)

	for i := 0; i < 9; i++ {
		b.Report(false)
	}
	require.True(t, b.Allow(), "too few outcomes to judge")
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := NewBreaker(1, 0.5, 10*time.Millisecond)

	b.Report(false)
	require.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow(), "cool-off expired, one probe allowed")

	// a failed probe re-opens immediately
	b.Report(false)
	require.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow())
	b.Report(true)
	require.True(t, b.Allow(), "successful probe closes the breaker")
	require.True(t, b.Allow())
}

func TestBreakerHalfOpenAdmitsOneProbe(t *testing.T) {
	b := NewBreaker(1, 0.5, 10*time.Millisecond)

	b.Report(false)
	time.Sleep(20 * time.Millisecond)

	require.True(t, b.Allow())
	require.False(t, b.Allow(), "second caller must wait for the probe outcome")
	require.False(t, b.Allow())

	b.Report(true)
	require.True(t, b.Allow())
}

func TestBreakerDefaults(t *testing.T) {
	b := NewBreaker(0, 2.0, 0)
	require.Equal(t, 1, b.minRequests)
	require.Equal(t, 0.5, b.failureRatio)
	require.Equal(t, 30*time.Second, b.openFor)
}

func TestHTTPClientOpenCircuit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cl := HTTPClient{
		Client:  srv.Client(),
		Breaker: NewBreaker(1, 0.5, time.Hour),
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := cl.Do(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// the 5xx outcome opened the breaker; the next call never hits the server
	_, err = cl.Do(context.Background(), req)
	require.ErrorIs(t, err, ErrOpenCircuit)
	require.Equal(t, 1, calls)
}

func TestHTTPClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cl := HTTPClient{
		Client:  srv.Client(),
		Breaker: NewBreaker(100, 0.99, time.Hour),
		Timeout: 20 * time.Millisecond,
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = cl.Do(context.Background(), req)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPClientBodyReadableAfterDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	cl := HTTPClient{
		Client:  srv.Client(),
		Breaker: NewBreaker(100, 0.99, time.Hour),
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := cl.Do(context.Background(), req)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()

	buf := make([]byte, 16)
	n, _ := resp.Body.Read(buf)
	require.Equal(t, "payload", string(buf[:n]))
}
