package types

import (
	"time"
)

// PairEvent is a single market-pair update from the ingestion stream.
// Address identifies the pair and is the basis of the cache fingerprint.
type PairEvent struct {
	Address      string  `json:"address"`
	BaseSymbol   string  `json:"baseSymbol"`
	QuoteSymbol  string  `json:"quoteSymbol"`
	PriceUSD     float64 `json:"priceUsd"`
	LiquidityUSD float64 `json:"liquidityUsd"`
	Volume24h    float64 `json:"volume24h"`
	PriceChange  float64 `json:"priceChange24h"`
	TxCount24h   int64   `json:"txCount24h"`
	PairAgeHours float64 `json:"pairAgeHours"`
}

// Fingerprint returns the deterministic cache key for the event's identity.
func (e *PairEvent) Fingerprint() string {
	return "pair:" + e.Address
}

// AnalysisRecord is the merged result of scoring one pair event.
// Records are immutable once written; identical events share one record
// for the duration of the cache TTL.
type AnalysisRecord struct {
	ID        string             `json:"id"`
	Event     PairEvent          `json:"event"`
	Scores    map[string]float64 `json:"scores"`
	Signal    bool               `json:"signal"`
	Timestamp time.Time          `json:"timestamp"`
}

// SignalMessage is one durable message on the signal bus. ID is assigned
// by the store and, together with CreatedAt, defines per-channel ordering.
type SignalMessage struct {
	ID        int64     `json:"id"`
	Channel   string    `json:"channel"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}
