package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	a := PairEvent{Address: "0xabc", PriceUSD: 1}
	b := PairEvent{Address: "0xabc", PriceUSD: 2}
	c := PairEvent{Address: "0xdef"}

	assert.Equal(t, "pair:0xabc", a.Fingerprint())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestAnalysisError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("model timeout")
	err := &AnalysisError{Address: "0xabc", Stage: "score", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "0xabc")
	assert.Contains(t, err.Error(), "score")
}

func TestPublishError_PreservesStoreOutage(t *testing.T) {
	err := &PublishError{
		Channel: "trading",
		Err:     fmt.Errorf("insert signal: %w", ErrStoreUnavailable),
	}

	assert.True(t, errors.Is(err, ErrStoreUnavailable))

	var pubErr *PublishError
	assert.True(t, errors.As(error(err), &pubErr))
	assert.Equal(t, "trading", pubErr.Channel)
}
