package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("buy: %w", ErrBondingCurveComplete)
	assert.Equal(t, KindState, KindOf(wrapped))
	assert.Equal(t, KindAuthorization, KindOf(ErrNotAuthorized))
	assert.Equal(t, KindArithmetic, KindOf(ErrArithmeticOverflow))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
}

func TestSlippageErrorUnwraps(t *testing.T) {
	err := NewBuySlippageError(100, 150)
	assert.ErrorIs(t, err, ErrTooMuchSolRequired)
	assert.Equal(t, KindEconomic, KindOf(err))
	assert.Contains(t, err.Error(), "limit 100, actual 150")

	var se *SlippageError
	assert.True(t, errors.As(fmt.Errorf("sell: %w", NewSellSlippageError(10, 9)), &se))
	assert.Equal(t, uint64(10), se.Limit)
	assert.ErrorIs(t, se, ErrTooLittleSolReceived)
}

func TestFeeSharesValidate(t *testing.T) {
	ok := FeeShares{Platform: 5000, Creator: 3000, Treasury: 1500, EarlyBird: 500}
	assert.NoError(t, ok.Validate())

	short := FeeShares{Platform: 5000, Creator: 3000, Treasury: 1500}
	assert.ErrorIs(t, short.Validate(), ErrInvalidFeeShares)

	over := FeeShares{Platform: 10_001}
	assert.ErrorIs(t, over.Validate(), ErrInvalidFeeShares)
}

func TestBuybackParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultBuybackParams().Validate())

	p := DefaultBuybackParams()
	p.BackingMultBps = 20_000
	assert.NoError(t, p.Validate(), "multipliers may exceed 100%")

	for _, mutate := range []func(*BuybackParams){
		func(p *BuybackParams) { p.SpendBps = 10_001 },
		func(p *BuybackParams) { p.MaxSupplyBps = 10_001 },
		func(p *BuybackParams) { p.EmaAlphaBps = 10_001 },
		func(p *BuybackParams) { p.MaxBurnPercentageBps = 10_001 },
	} {
		p := DefaultBuybackParams()
		mutate(&p)
		assert.ErrorIs(t, p.Validate(), ErrInvalidBuybackParams)
		assert.Equal(t, KindConfiguration, KindOf(p.Validate()))
	}
}
