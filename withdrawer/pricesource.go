package withdrawer

import (
	"github.com/lumenlabs-io/stake-withdrawer/marketdata"
	scfg "github.com/lumenlabs-io/stake-withdrawer/withdrawercfg"
)

// NewPriceSourceFromConfig builds the fiat price source from configuration.
func NewPriceSourceFromConfig(config *scfg.Config) marketdata.PriceSource {
	return marketdata.NewCoinGeckoSource(
		config.MarketDataConfig.BaseURL,
		config.WithdrawerConfig.FiatCurrency,
		config.MarketDataConfig.Timeout,
	)
}
