package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit_FirstSaleHasNoRoyalty(t *testing.T) {
	split := Split(big.NewInt(1000), 1, 1, 1, false)

	assert.Equal(t, "10", split.Platform.String())
	assert.Equal(t, "10", split.Collection.String())
	assert.Equal(t, "0", split.Royalty.String())
	assert.Equal(t, "1020", split.Total.String())
}

func TestSplit_ResaleChargesRoyalty(t *testing.T) {
	split := Split(big.NewInt(1000), 1, 1, 1, true)

	assert.Equal(t, "10", split.Royalty.String())
	assert.Equal(t, "1030", split.Total.String())
}

func TestSplit_EachFeeFloorsIndependently(t *testing.T) {
	split := Split(big.NewInt(99), 1, 1, 1, true)

	assert.Equal(t, "0", split.Platform.String())
	assert.Equal(t, "0", split.Collection.String())
	assert.Equal(t, "0", split.Royalty.String())
	assert.Equal(t, "99", split.Total.String())
}

func TestSplit_ZeroRates(t *testing.T) {
	split := Split(big.NewInt(1000), 0, 0, 0, true)

	assert.Equal(t, "0", split.Platform.String())
	assert.Equal(t, "0", split.Collection.String())
	assert.Equal(t, "0", split.Royalty.String())
	assert.Equal(t, "1000", split.Total.String())
}

func TestSplit_WeiScaleAmounts(t *testing.T) {
	price, _ := new(big.Int).SetString("1000000000000000000", 10)

	split := Split(price, 1, 1, 1, true)

	assert.Equal(t, "10000000000000000", split.Platform.String())
	assert.Equal(t, "10000000000000000", split.Collection.String())
	assert.Equal(t, "10000000000000000", split.Royalty.String())
	assert.Equal(t, "1030000000000000000", split.Total.String())
}

func TestSplit_DoesNotMutatePrice(t *testing.T) {
	price := big.NewInt(1000)

	Split(price, 25, 25, 25, true)

	assert.Equal(t, "1000", price.String())
}

func TestPercentOf_Floors(t *testing.T) {
	assert.Equal(t, "0", percentOf(big.NewInt(1), 50).String())
	assert.Equal(t, "1", percentOf(big.NewInt(3), 50).String())
	assert.Equal(t, "33", percentOf(big.NewInt(100), 33).String())
}
