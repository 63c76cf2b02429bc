package service

import (
	"fmt"
	"math/big"
)

const bpsDenominator = 10000

// ComputeFee returns the protocol fee taken from the losing pool, truncating
// toward zero. The intermediate product is computed wide so stake totals near
// the int64 range cannot silently overflow.
func ComputeFee(losingTotal, feeRateBps int64) (int64, error) {
	fee := new(big.Int).Mul(big.NewInt(losingTotal), big.NewInt(feeRateBps))
	fee.Quo(fee, big.NewInt(bpsDenominator))
	if !fee.IsInt64() {
		return 0, fmt.Errorf("fee on losing pool %d overflows int64", losingTotal)
	}
	return fee.Int64(), nil
}

// WinnerPayout returns stake + stake*(losingTotal-fee)/winningTotal with
// truncating division. Truncation always favors the protocol, so the sum of
// all winner payouts never exceeds the combined pool minus the fee.
func WinnerPayout(stake, winningTotal, losingTotal, fee int64) (int64, error) {
	if winningTotal <= 0 {
		return 0, fmt.Errorf("winning pool must be positive, got %d", winningTotal)
	}

	share := new(big.Int).Mul(big.NewInt(stake), big.NewInt(losingTotal-fee))
	share.Quo(share, big.NewInt(winningTotal))

	payout := share.Add(share, big.NewInt(stake))
	if !payout.IsInt64() {
		return 0, fmt.Errorf("payout for stake %d overflows int64", stake)
	}
	return payout.Int64(), nil
}
