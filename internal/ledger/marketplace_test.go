package ledger

import (
	"errors"
	"math/big"
	"testing"

	"github.com/dappmarket/market-ledger/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokens struct {
	mintErr     error
	transferErr error
	counters    map[string]uint64
	transfers   int
}

func newStubTokens() *stubTokens {
	return &stubTokens{counters: map[string]uint64{}}
}

func (s *stubTokens) Mint(collection string, owner string, uris []string) ([]uint64, error) {
	if s.mintErr != nil {
		return nil, s.mintErr
	}

	tokenIDs := make([]uint64, len(uris))
	for idx := range uris {
		s.counters[collection]++
		tokenIDs[idx] = s.counters[collection]
	}

	return tokenIDs, nil
}

func (s *stubTokens) Transfer(collection string, tokenID uint64, from, to string) error {
	if s.transferErr != nil {
		return s.transferErr
	}

	s.transfers++

	return nil
}

type fixture struct {
	market *Marketplace
	tokens *stubTokens
	sender *stubSender
	bus    *event.Bus
}

func newFixture(t *testing.T) fixture {
	tokens := newStubTokens()
	sender := &stubSender{}
	bus := event.NewBus()

	market, err := NewMarketplace("platform", 1, 1, 1, sender, tokens, bus)
	require.NoError(t, err)

	return fixture{market, tokens, sender, bus}
}

func prices(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for idx, v := range values {
		out[idx] = big.NewInt(v)
	}

	return out
}

func (f fixture) mintThree(t *testing.T) []Item {
	items, err := f.market.MintCollection(
		"alice",
		[]string{"ipfs://one", "ipfs://two", "ipfs://three"},
		"carol", 50,
		"0xcol", "0xcol",
		prices(1000, 2000, 3000),
	)
	require.NoError(t, err)
	require.Len(t, items, 3)

	return items
}

func TestNewMarketplace_RejectsPercentOver100(t *testing.T) {
	_, err := NewMarketplace("platform", 101, 1, 1, &stubSender{}, newStubTokens(), event.NewBus())

	assert.ErrorIs(t, err, ErrInvalidPercent)
}

func TestMintCollection_ListsEveryItem(t *testing.T) {
	f := newFixture(t)

	items := f.mintThree(t)

	assert.Equal(t, uint64(3), f.market.ItemCount())
	for idx, item := range items {
		assert.Equal(t, uint64(idx+1), item.ID)
		assert.Equal(t, uint64(idx+1), item.TokenID)
		assert.Equal(t, "alice", item.Seller)
		assert.Equal(t, "", item.RoyaltyReceiver)
		assert.Equal(t, "0", item.LastSalePrice.String())
		assert.True(t, item.OnSale)
	}
}

func TestMintCollection_EmitsOfferedPerItem(t *testing.T) {
	f := newFixture(t)

	var offered []Offered
	f.bus.AddEventListener(event.ItemOfferedEvent, func(msg interface{}) {
		offered = append(offered, msg.(Offered))
	})

	f.mintThree(t)

	require.Len(t, offered, 3)
	assert.Equal(t, "0xcol", offered[0].Collection.Ref)
	assert.Equal(t, "alice", offered[0].Lister)
	assert.Equal(t, "1020", offered[0].Quote.Total.String())
	assert.Equal(t, "3060", offered[2].Quote.Total.String())
}

func TestMintCollection_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.market.MintCollection("alice", nil, "carol", 50, "0xcol", "0xcol", nil)
	assert.ErrorIs(t, err, ErrInvalidBatch)

	_, err = f.market.MintCollection("alice", []string{"a", "b"}, "carol", 50, "0xcol", "0xcol", prices(1000))
	assert.ErrorIs(t, err, ErrInvalidBatch)

	_, err = f.market.MintCollection("alice", []string{"a"}, "carol", 101, "0xcol", "0xcol", prices(1000))
	assert.ErrorIs(t, err, ErrInvalidPercent)

	_, err = f.market.MintCollection("alice", []string{"a"}, "carol", 50, "0xcol", "0xcol", prices(0))
	assert.ErrorIs(t, err, ErrInvalidPrice)

	assert.Equal(t, uint64(0), f.market.ItemCount())
}

func TestMintCollection_MintFailureLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	f.tokens.mintErr = errors.New("contract reverted")

	_, err := f.market.MintCollection("alice", []string{"a"}, "carol", 50, "0xcol", "0xcol", prices(1000))

	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, uint64(0), f.market.ItemCount())
}

func TestMintCollection_RepeatMintKeepsFirstTerms(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	// A second batch into the same collection cannot rebind owner or earn.
	_, err := f.market.MintCollection("mallory", []string{"ipfs://four"}, "mallory", 99, "0xcol", "0xcol", prices(1000))
	require.NoError(t, err)

	_, err = f.market.Purchase(4, "bob", big.NewInt(1020))
	require.NoError(t, err)

	// mallory is only the seller; the owner share still lands with carol.
	assert.Equal(t, "5", f.market.BalanceOf("carol").String())
	assert.Equal(t, "1000", f.market.BalanceOf("mallory").String())
}

func TestPurchase_FirstSaleSplit(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	receipt, err := f.market.Purchase(1, "bob", big.NewInt(1020))
	require.NoError(t, err)

	assert.Equal(t, "1000", receipt.Price.String())
	assert.Equal(t, "15", receipt.PlatformFee.String())
	assert.Equal(t, "5", receipt.CollectionFee.String())
	assert.Equal(t, "0", receipt.RoyaltyFee.String())
	assert.Equal(t, "1020", receipt.Total.String())
	assert.Equal(t, "0", receipt.Surplus.String())
	assert.Equal(t, "alice", receipt.Seller)
	assert.Equal(t, "carol", receipt.CollectionOwner)

	assert.Equal(t, "1000", f.market.BalanceOf("alice").String())
	assert.Equal(t, "5", f.market.BalanceOf("carol").String())
	assert.Equal(t, "15", f.market.BalanceOf("platform").String())
	assert.Equal(t, "0", f.market.BalanceOf("bob").String())

	item, err := f.market.Item(1)
	require.NoError(t, err)
	assert.False(t, item.OnSale)
	assert.Equal(t, "bob", item.Seller)
	assert.Equal(t, "bob", item.RoyaltyReceiver)
	assert.Equal(t, "1000", item.LastSalePrice.String())
}

func TestPurchase_ResaleRoyaltyGoesToFirstBuyer(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	_, err := f.market.Purchase(1, "bob", big.NewInt(1020))
	require.NoError(t, err)

	_, err = f.market.Relist(1, "bob", big.NewInt(2000))
	require.NoError(t, err)

	receipt, err := f.market.Purchase(1, "dave", big.NewInt(2060))
	require.NoError(t, err)

	assert.Equal(t, "20", receipt.RoyaltyFee.String())
	assert.Equal(t, "bob", receipt.RoyaltyReceiver)

	// bob, the first buyer, gets the resale price plus its royalty; the
	// minting seller keeps only her own sale's price.
	assert.Equal(t, "2020", f.market.BalanceOf("bob").String())
	assert.Equal(t, "1000", f.market.BalanceOf("alice").String())
	assert.Equal(t, "15", f.market.BalanceOf("carol").String())
	assert.Equal(t, "45", f.market.BalanceOf("platform").String())
}

func TestPurchase_RoyaltyReceiverFixedForLife(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	_, err := f.market.Purchase(1, "bob", big.NewInt(1020))
	require.NoError(t, err)
	_, err = f.market.Relist(1, "bob", big.NewInt(2000))
	require.NoError(t, err)
	_, err = f.market.Purchase(1, "dave", big.NewInt(2060))
	require.NoError(t, err)

	// A second resale by dave still pays bob, not the seller of the
	// previous sale.
	_, err = f.market.Relist(1, "dave", big.NewInt(1000))
	require.NoError(t, err)

	receipt, err := f.market.Purchase(1, "eve", big.NewInt(1030))
	require.NoError(t, err)

	assert.Equal(t, "10", receipt.RoyaltyFee.String())
	assert.Equal(t, "bob", receipt.RoyaltyReceiver)

	assert.Equal(t, "2030", f.market.BalanceOf("bob").String())
	assert.Equal(t, "1000", f.market.BalanceOf("dave").String())
	assert.Equal(t, "1000", f.market.BalanceOf("alice").String())

	item, err := f.market.Item(1)
	require.NoError(t, err)
	assert.Equal(t, "bob", item.RoyaltyReceiver)
}

func TestPurchase_ClosedLedger(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	_, err := f.market.Purchase(1, "bob", big.NewInt(1020))
	require.NoError(t, err)
	_, err = f.market.Relist(1, "bob", big.NewInt(2000))
	require.NoError(t, err)
	_, err = f.market.Purchase(1, "dave", big.NewInt(2075))
	require.NoError(t, err)

	// Everything paid in is attributable to exactly one balance.
	total := big.NewInt(0)
	for _, account := range []string{"alice", "bob", "carol", "dave", "platform"} {
		total.Add(total, f.market.BalanceOf(account))
	}

	assert.Equal(t, "3095", total.String())
}

func TestPurchase_OverpaymentAccruesToPlatform(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	receipt, err := f.market.Purchase(1, "bob", big.NewInt(1025))
	require.NoError(t, err)

	assert.Equal(t, "5", receipt.Surplus.String())
	assert.Equal(t, "20", f.market.BalanceOf("platform").String())
}

func TestPurchase_InsufficientPayment(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	_, err := f.market.Purchase(1, "bob", big.NewInt(1019))
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	_, err = f.market.Purchase(1, "bob", nil)
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	item, _ := f.market.Item(1)
	assert.True(t, item.OnSale)
	assert.Equal(t, "0", f.market.BalanceOf("alice").String())
}

func TestPurchase_UnknownItem(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	_, err := f.market.Purchase(0, "bob", big.NewInt(1020))
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = f.market.Purchase(4, "bob", big.NewInt(1020))
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestPurchase_NotOnSale(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	_, err := f.market.Purchase(1, "bob", big.NewInt(1020))
	require.NoError(t, err)

	_, err = f.market.Purchase(1, "dave", big.NewInt(1020))
	assert.ErrorIs(t, err, ErrNotOnSale)
}

func TestPurchase_TransferFailureLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)
	f.tokens.transferErr = errors.New("token locked")

	_, err := f.market.Purchase(1, "bob", big.NewInt(1020))

	assert.ErrorIs(t, err, ErrTransferFailed)

	item, _ := f.market.Item(1)
	assert.True(t, item.OnSale)
	assert.Equal(t, "alice", item.Seller)
	assert.Equal(t, "0", f.market.BalanceOf("alice").String())
	assert.Equal(t, "0", f.market.BalanceOf("platform").String())
}

func TestRelist_PutsItemBackOnSale(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	_, err := f.market.Purchase(1, "bob", big.NewInt(1020))
	require.NoError(t, err)

	var relisted []Relisted
	f.bus.AddEventListener(event.ItemOnSaleEvent, func(msg interface{}) {
		relisted = append(relisted, msg.(Relisted))
	})

	item, err := f.market.Relist(1, "bob", big.NewInt(5000))
	require.NoError(t, err)

	assert.True(t, item.OnSale)
	assert.Equal(t, "5000", item.Price.String())
	assert.Equal(t, "1000", item.LastSalePrice.String())

	require.Len(t, relisted, 1)
	assert.Equal(t, "bob", relisted[0].Seller)
	// resale quote: 5000 + 50 + 50 + 50
	assert.Equal(t, "5150", relisted[0].Quote.Total.String())
}

func TestRelist_Validation(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	_, err := f.market.Relist(9, "alice", big.NewInt(100))
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = f.market.Relist(1, "mallory", big.NewInt(100))
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.market.Relist(1, "alice", big.NewInt(100))
	assert.ErrorIs(t, err, ErrAlreadyOnSale)

	_, err = f.market.Purchase(1, "bob", big.NewInt(1020))
	require.NoError(t, err)

	_, err = f.market.Relist(1, "bob", big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestClaim_PaysOutAndEmits(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	_, err := f.market.Purchase(1, "bob", big.NewInt(1020))
	require.NoError(t, err)

	var claimed []Claimed
	f.bus.AddEventListener(event.FundsClaimedEvent, func(msg interface{}) {
		claimed = append(claimed, msg.(Claimed))
	})

	amount, err := f.market.Claim("alice")
	require.NoError(t, err)

	assert.Equal(t, "1000", amount.String())
	assert.Equal(t, "0", f.market.BalanceOf("alice").String())
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "alice", f.sender.sent[0].to)

	require.Len(t, claimed, 1)
	assert.Equal(t, "1000", claimed[0].Amount.String())

	_, err = f.market.Claim("alice")
	assert.ErrorIs(t, err, ErrNothingToClaim)
}

func TestSetFees_OwnerOnly(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.market.SetPlatformFeePercent("mallory", 5), ErrNotAuthorized)
	assert.ErrorIs(t, f.market.SetRoyaltyFeePercent("mallory", 5), ErrNotAuthorized)
	assert.ErrorIs(t, f.market.SetPlatformFeePercent("platform", 101), ErrInvalidPercent)
	assert.ErrorIs(t, f.market.SetRoyaltyFeePercent("platform", 101), ErrInvalidPercent)

	require.NoError(t, f.market.SetPlatformFeePercent("platform", 5))
	assert.Equal(t, uint(5), f.market.PlatformFeePercent())
}

func TestSetFees_ApplyToNextQuoteNotPastSales(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	receipt, err := f.market.Purchase(1, "bob", big.NewInt(1020))
	require.NoError(t, err)

	require.NoError(t, f.market.SetPlatformFeePercent("platform", 10))

	_, err = f.market.Relist(1, "bob", big.NewInt(1000))
	require.NoError(t, err)

	quote, err := f.market.QuoteItem(1)
	require.NoError(t, err)

	// 1000 + 100 platform + 10 collection + 10 royalty; 5 of the collection
	// fee goes to the owner, the rest rides with the marketplace fee.
	assert.Equal(t, "1120", quote.Total.String())
	assert.Equal(t, "105", quote.MarketplaceFee.String())

	// The settled receipt keeps the old rates.
	assert.Equal(t, "1020", receipt.Total.String())
}

func TestQuoteItem_MatchesPurchaseReceipt(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	quote, err := f.market.QuoteItem(2)
	require.NoError(t, err)

	receipt, err := f.market.Purchase(2, "bob", quote.Total)
	require.NoError(t, err)

	assert.Equal(t, quote.Total.String(), receipt.Total.String())
	assert.Equal(t, quote.MarketplaceFee.String(), receipt.PlatformFee.String())
	assert.Equal(t, quote.CollectionFee.String(), receipt.CollectionFee.String())
	assert.Equal(t, quote.RoyaltiesFee.String(), receipt.RoyaltyFee.String())
}

func TestQuoteQueries(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	total, err := f.market.TotalPrice(1)
	require.NoError(t, err)
	assert.Equal(t, "1020", total.String())

	marketplaceFee, err := f.market.TotalFeeMarketplace(1)
	require.NoError(t, err)
	assert.Equal(t, "15", marketplaceFee.String())

	collectionFee, err := f.market.TotalFeeCollection(1)
	require.NoError(t, err)
	assert.Equal(t, "5", collectionFee.String())

	royalties, err := f.market.TotalFeeRoyalties(1)
	require.NoError(t, err)
	assert.Equal(t, "0", royalties.String())

	_, err = f.market.TotalPrice(9)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestItem_SnapshotIsDetached(t *testing.T) {
	f := newFixture(t)
	f.mintThree(t)

	item, err := f.market.Item(1)
	require.NoError(t, err)

	item.Price.SetInt64(1)

	fresh, err := f.market.Item(1)
	require.NoError(t, err)
	assert.Equal(t, "1000", fresh.Price.String())
}
