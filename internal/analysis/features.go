package analysis

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dexwatch/dexwatch/pkg/types"
)

// FeatureVector is the fixed-length numeric tuple handed to scorers.
// Order matters: detectors are trained against exactly this layout.
type FeatureVector []float64

// FeatureCount is the length of every extracted vector.
const FeatureCount = 6

// ExtractFeatures derives the feature vector for a pair event. Malformed
// events fail fast here so they are dropped with a reason before any store
// round-trip is spent on them.
func ExtractFeatures(ev *types.PairEvent) (FeatureVector, error) {
	if !common.IsHexAddress(ev.Address) {
		return nil, fmt.Errorf("invalid pair address %q", ev.Address)
	}
	if ev.PriceUSD < 0 {
		return nil, fmt.Errorf("negative price %f for %s", ev.PriceUSD, ev.Address)
	}
	if ev.LiquidityUSD < 0 {
		return nil, fmt.Errorf("negative liquidity %f for %s", ev.LiquidityUSD, ev.Address)
	}

	return FeatureVector{
		ev.PriceUSD,
		ev.LiquidityUSD,
		ev.Volume24h,
		ev.PriceChange,
		float64(ev.TxCount24h),
		ev.PairAgeHours,
	}, nil
}
