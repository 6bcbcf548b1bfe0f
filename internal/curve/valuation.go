// internal/curve/valuation.go
package curve

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/utils/safemath"
)

// CurveSeed prefixes the program-derived address of every curve.
const CurveSeed = "bonding-curve"

// DeriveCurveAddress computes the curve address for mint under programID.
func DeriveCurveAddress(programID, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(CurveSeed), mint.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive bonding curve: %w", err)
	}
	return addr, nil
}

// LamportsToSol конвертирует lamports в SOL
func LamportsToSol(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-SolDecimals)
}

// TokensToUI конвертирует атомарные единицы токена в целые токены
func TokensToUI(amount uint64) decimal.Decimal {
	return decimal.NewFromUint64(amount).Shift(-TokenDecimals)
}

// SpotPrice is the marginal price of one whole token in SOL.
func SpotPrice(c *domain.Curve) decimal.Decimal {
	if c.VirtualTokenReserves == 0 {
		return decimal.Zero
	}
	sol := LamportsToSol(c.VirtualSolReserves)
	tokens := TokensToUI(c.VirtualTokenReserves)
	return sol.Div(tokens)
}

// MarketCap values the circulating supply at the spot price, in SOL.
func MarketCap(c *domain.Curve) decimal.Decimal {
	return SpotPrice(c).Mul(TokensToUI(c.CirculatingSupply))
}

// BackingPerToken returns lamports of real reserve plus treasury per atomic
// token held outside the curve. Zero once the curve is complete or when
// nothing has been sold.
func BackingPerToken(c *domain.Curve) uint64 {
	if c.Complete {
		return 0
	}
	outstanding := safemath.SaturatingSub(c.TokenTotalSupply, c.RealTokenReserves)
	if outstanding == 0 {
		return 0
	}
	return safemath.SaturatingAdd(c.RealSolReserves, c.TreasuryFeePool) / outstanding
}

// Estimate is a client-side sizing hint for spending a fixed SOL amount.
type Estimate struct {
	Tokens      uint64 `json:"tokens"`
	NetLamports uint64 `json:"net_lamports"`
	MaxSolCost  uint64 `json:"max_sol_cost"`
}

// EstimateTokensForSol sizes a buy for a total spend that includes the fee.
// MaxSolCost carries a 10% slippage allowance over the total.
func EstimateTokensForSol(c *domain.Curve, totalLamports, feeBps uint64) Estimate {
	base := safemath.MulDivSaturating(totalLamports, safemath.BpsDenominator, safemath.BpsDenominator+feeBps)
	var tokens uint64
	if c.VirtualSolReserves > 0 {
		tokens = safemath.MulDivSaturating(base, c.VirtualTokenReserves, c.VirtualSolReserves)
	}
	return Estimate{
		Tokens:      min(tokens, c.RealTokenReserves),
		NetLamports: base,
		MaxSolCost:  safemath.MulDivSaturating(totalLamports, 110, 100),
	}
}
