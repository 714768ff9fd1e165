package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newPriceServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/simple/price", r.URL.Path)
		require.Equal(t, "cosmos", r.URL.Query().Get("ids"))
		require.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))

	t.Cleanup(server.Close)
	return server
}

func TestCoinGeckoSourcePriceOf(t *testing.T) {
	server := newPriceServer(t, http.StatusOK, `{"cosmos":{"usd":11.52}}`)

	source := NewCoinGeckoSource(server.URL, "usd", time.Second)

	price, err := source.PriceOf(context.Background(), "cosmos")
	require.NoError(t, err)
	require.Equal(t, "11.52", price.String())
}

func TestCoinGeckoSourceUnknownMarket(t *testing.T) {
	server := newPriceServer(t, http.StatusOK, `{}`)

	source := NewCoinGeckoSource(server.URL, "usd", time.Second)

	_, err := source.PriceOf(context.Background(), "cosmos")
	require.Error(t, err)
}

func TestCoinGeckoSourceMissingQuote(t *testing.T) {
	server := newPriceServer(t, http.StatusOK, `{"cosmos":{"eur":10.0}}`)

	source := NewCoinGeckoSource(server.URL, "usd", time.Second)

	_, err := source.PriceOf(context.Background(), "cosmos")
	require.Error(t, err)
}

func TestCoinGeckoSourceServerError(t *testing.T) {
	server := newPriceServer(t, http.StatusTooManyRequests, `{"error":"rate limited"}`)

	source := NewCoinGeckoSource(server.URL, "usd", time.Second)

	_, err := source.PriceOf(context.Background(), "cosmos")
	require.Error(t, err)
}

func TestCoinGeckoSourceNegativePrice(t *testing.T) {
	server := newPriceServer(t, http.StatusOK, `{"cosmos":{"usd":-1}}`)

	source := NewCoinGeckoSource(server.URL, "usd", time.Second)

	_, err := source.PriceOf(context.Background(), "cosmos")
	require.Error(t, err)
}
