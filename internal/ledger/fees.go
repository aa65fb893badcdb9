package ledger

import "math/big"

var oneHundred = big.NewInt(100)

// FeeSplit is the exact breakdown of a sale at a given price and set of rates.
// Each fee is floored independently, so the sum of the fees can undershoot
// price*(sum of percents)/100. That matches the deployed contract and must not
// be "fixed" by rounding up.
type FeeSplit struct {
	Platform   *big.Int
	Collection *big.Int
	Royalty    *big.Int
	Total      *big.Int
}

// Split computes the fee breakdown for a sale. The royalty fee only exists on
// resales; the first sale is what creates the royalty earner, so it is forced
// to zero whatever the configured percent.
func Split(price *big.Int, platformPct, collectionPct, royaltyPct uint, resale bool) FeeSplit {
	split := FeeSplit{
		Platform:   percentOf(price, platformPct),
		Collection: percentOf(price, collectionPct),
		Royalty:    big.NewInt(0),
	}

	if resale {
		split.Royalty = percentOf(price, royaltyPct)
	}

	total := new(big.Int).Set(price)
	total.Add(total, split.Platform)
	total.Add(total, split.Collection)
	total.Add(total, split.Royalty)
	split.Total = total

	return split
}

func percentOf(amount *big.Int, pct uint) *big.Int {
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(pct)))

	return fee.Div(fee, oneHundred)
}
