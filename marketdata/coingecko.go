package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultCoinGeckoAPI = "https://api.coingecko.com/api/v3"

	defaultRequestTimeout = 5 * time.Second
)

// CoinGeckoSource fetches fiat prices from the CoinGecko simple price
// endpoint.
type CoinGeckoSource struct {
	client       *resty.Client
	fiatCurrency string
}

var _ PriceSource = (*CoinGeckoSource)(nil)

// NewCoinGeckoSource creates a price source against the given API base url
// (empty string selects the public API) quoting in the given fiat currency,
// e.g. "usd".
func NewCoinGeckoSource(baseURL string, fiatCurrency string, timeout time.Duration) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = defaultCoinGeckoAPI
	}

	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &CoinGeckoSource{
		client:       client,
		fiatCurrency: fiatCurrency,
	}
}

// PriceOf returns the current fiat price for the market id. Prices are
// decoded with arbitrary precision, never through float64.
func (s *CoinGeckoSource) PriceOf(ctx context.Context, marketID string) (decimal.Decimal, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("ids", marketID).
		SetQueryParam("vs_currencies", s.fiatCurrency).
		Get("/simple/price")

	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get price of %s: %w", marketID, err)
	}

	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("failed to get price of %s: status %s", marketID, resp.Status())
	}

	priceMap := map[string]map[string]json.Number{}
	if err := json.Unmarshal(resp.Body(), &priceMap); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price response for %s: %w", marketID, err)
	}

	quotes, found := priceMap[marketID]
	if !found {
		return decimal.Zero, fmt.Errorf("no price returned for %s", marketID)
	}

	quote, found := quotes[s.fiatCurrency]
	if !found {
		return decimal.Zero, fmt.Errorf("no %s quote returned for %s", s.fiatCurrency, marketID)
	}

	price, err := decimal.NewFromString(quote.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q for %s: %w", quote.String(), marketID, err)
	}

	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s for %s", price.String(), marketID)
	}

	return price, nil
}
