package testutil

import (
	"github.com/dexwatch/dexwatch/pkg/types"
)

// CreateTestEvent creates a well-formed pair event for the given address.
func CreateTestEvent(address string) types.PairEvent {
	return types.PairEvent{
		Address:      address,
		BaseSymbol:   "WETH",
		QuoteSymbol:  "USDC",
		PriceUSD:     1850.42,
		LiquidityUSD: 250000,
		Volume24h:    480000,
		PriceChange:  3.2,
		TxCount24h:   1200,
		PairAgeHours: 96,
	}
}

// CreateAnomalousEvent creates an event shaped like a pump on a young,
// thin pair: high turnover, sharp move, hours old.
func CreateAnomalousEvent(address string) types.PairEvent {
	return types.PairEvent{
		Address:      address,
		BaseSymbol:   "MOON",
		QuoteSymbol:  "USDC",
		PriceUSD:     0.0042,
		LiquidityUSD: 8000,
		Volume24h:    900000,
		PriceChange:  640,
		TxCount24h:   15000,
		PairAgeHours: 3,
	}
}
