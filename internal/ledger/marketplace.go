package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/dappmarket/market-ledger/internal/event"
	"go.uber.org/zap"
)

// TokenService is the collaborator that owns the tokens themselves. The ledger
// delegates minting and ownership transfer to it and treats its answer as
// final; approval checks live on that side of the boundary.
type TokenService interface {
	Mint(collection string, owner string, uris []string) ([]uint64, error)
	Transfer(collection string, tokenID uint64, from, to string) error
}

// Offered is emitted once per item created by a mint batch. The quote is
// computed at emission time so listeners never have to call back in.
type Offered struct {
	Item       Item
	Collection Collection
	Lister     string
	Quote      Quote
}

// Relisted is emitted when an owned item is put back on sale.
type Relisted struct {
	Item       Item
	Collection Collection
	Seller     string
	Quote      Quote
}

// Claimed is emitted after a successful balance withdrawal.
type Claimed struct {
	Account string
	Amount  *big.Int
}

// FeeChanged is emitted when the platform owner updates a fee rate.
type FeeChanged struct {
	Fee     string
	Percent uint
}

// Bought is emitted after a settled purchase, carrying the realized split and
// the post-sale item state.
type Bought struct {
	Receipt SaleReceipt
	Item    Item
}

// SaleReceipt is the realized breakdown of one purchase.
type SaleReceipt struct {
	ItemID          uint64
	TokenID         uint64
	Collection      string
	Seller          string
	Buyer           string
	Price           *big.Int
	PlatformFee     *big.Int
	CollectionFee   *big.Int
	RoyaltyFee      *big.Int
	Total           *big.Int
	Paid            *big.Int
	Surplus         *big.Int
	CollectionOwner string
	RoyaltyReceiver string
}

// Quote is the current, side-effect-free fee preview for an item. The purchase
// path and the preview queries both go through it, so they cannot disagree.
type Quote struct {
	Price          *big.Int
	MarketplaceFee *big.Int
	CollectionFee  *big.Int
	RoyaltiesFee   *big.Int
	Total          *big.Int
}

// Marketplace is the public operation set over the three sub-ledgers. Every
// operation runs as one indivisible unit under a single writer lock; the only
// suspension point is the outbound payment inside Claim.
type Marketplace struct {
	mu sync.Mutex

	owner         string
	platformPct   uint
	collectionPct uint
	royaltyPct    uint

	items       *ItemRegistry
	collections *CollectionRegistry
	balances    *BalanceLedger

	payments PaymentSender
	tokens   TokenService
	events   *event.Bus
}

func NewMarketplace(owner string, platformPct, collectionPct, royaltyPct uint, payments PaymentSender, tokens TokenService, events *event.Bus) (*Marketplace, error) {
	for _, pct := range []uint{platformPct, collectionPct, royaltyPct} {
		if pct > 100 {
			return nil, ErrInvalidPercent
		}
	}

	return &Marketplace{
		owner:         owner,
		platformPct:   platformPct,
		collectionPct: collectionPct,
		royaltyPct:    royaltyPct,
		items:         NewItemRegistry(),
		collections:   NewCollectionRegistry(),
		balances:      NewBalanceLedger(),
		payments:      payments,
		tokens:        tokens,
		events:        events,
	}, nil
}

func (m *Marketplace) Owner() string {
	return m.owner
}

func (m *Marketplace) PlatformFeePercent() uint {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.platformPct
}

func (m *Marketplace) CollectionFeePercent() uint {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.collectionPct
}

func (m *Marketplace) RoyaltyFeePercent() uint {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.royaltyPct
}

// MintCollection mints one token per uri, registers the collection on first
// sight and lists every item at its price. Nothing is recorded unless the
// whole batch goes through.
func (m *Marketplace) MintCollection(caller string, uris []string, collectionOwner string, earnPercent uint, tokenRef, royaltyRef string, prices []*big.Int) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(uris) == 0 || len(uris) != len(prices) {
		return nil, ErrInvalidBatch
	}
	if earnPercent > 100 {
		return nil, ErrInvalidPercent
	}
	for _, price := range prices {
		if price == nil || price.Sign() <= 0 {
			return nil, ErrInvalidPrice
		}
	}

	tokenIDs, err := m.tokens.Mint(tokenRef, caller, uris)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransferFailed, err)
	}
	if len(tokenIDs) != len(uris) {
		return nil, ErrInvalidBatch
	}

	collection, err := m.collections.RegisterOrGet(tokenRef, royaltyRef, collectionOwner, earnPercent)
	if err != nil {
		return nil, err
	}

	items := m.items.MintBatch(collection, caller, uris, tokenIDs, prices)

	listed := make([]Item, len(items))
	for idx, item := range items {
		listed[idx] = item.snapshot()
		quote := m.quoteFor(item, collection)

		m.events.EmitEvent(event.ItemOfferedEvent, Offered{Item: listed[idx], Collection: *collection, Lister: caller, Quote: *quote})
	}

	zap.L().With(
		zap.String("collection", tokenRef),
		zap.String("lister", caller),
		zap.Int("items", len(items)),
	).Info("Marketplace: Collection minted")

	return listed, nil
}

// Purchase settles a sale. The buyer must supply at least the quoted total;
// any surplus is accepted and accrues to the platform so every unit received
// stays attributable to a balance.
func (m *Marketplace) Purchase(itemID uint64, buyer string, paid *big.Int) (*SaleReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, err := m.items.Get(itemID)
	if err != nil {
		return nil, err
	}
	if !item.OnSale {
		return nil, ErrNotOnSale
	}

	collection, err := m.collections.Get(item.CollectionID)
	if err != nil {
		return nil, err
	}

	split := Split(item.Price, m.platformPct, m.collectionPct, m.royaltyPct, item.LastSalePrice.Sign() > 0)
	if paid == nil || paid.Cmp(split.Total) < 0 {
		return nil, ErrInsufficientPayment
	}

	if err := m.tokens.Transfer(collection.Ref, item.TokenID, item.Seller, buyer); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransferFailed, err)
	}

	ownerShare := percentOf(split.Collection, collection.EarnPercent)
	platformShare := new(big.Int).Add(split.Platform, new(big.Int).Sub(split.Collection, ownerShare))
	surplus := new(big.Int).Sub(paid, split.Total)
	platformShare.Add(platformShare, surplus)

	receipt := &SaleReceipt{
		ItemID:          item.ID,
		TokenID:         item.TokenID,
		Collection:      collection.Ref,
		Seller:          item.Seller,
		Buyer:           buyer,
		Price:           new(big.Int).Set(item.Price),
		PlatformFee:     platformShare,
		CollectionFee:   ownerShare,
		RoyaltyFee:      split.Royalty,
		Total:           split.Total,
		Paid:            new(big.Int).Set(paid),
		Surplus:         surplus,
		CollectionOwner: collection.Owner,
		RoyaltyReceiver: item.RoyaltyReceiver,
	}

	m.balances.Credit(item.Seller, item.Price)
	m.balances.Credit(collection.Owner, ownerShare)
	m.balances.Credit(m.owner, platformShare)
	if split.Royalty.Sign() > 0 {
		m.balances.Credit(item.RoyaltyReceiver, split.Royalty)
	}

	m.items.markSold(item, buyer)

	m.events.EmitEvent(event.ItemBoughtEvent, Bought{Receipt: *receipt, Item: item.snapshot()})

	zap.L().With(
		zap.Uint64("itemId", item.ID),
		zap.String("seller", receipt.Seller),
		zap.String("buyer", buyer),
		zap.String("total", split.Total.String()),
	).Info("Marketplace: Item bought")

	return receipt, nil
}

// Relist puts an owned item back on sale at a new price. Only valid between
// sales: the caller must be the current seller-of-record and the item must not
// already be listed.
func (m *Marketplace) Relist(itemID uint64, caller string, price *big.Int) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, err := m.items.Get(itemID)
	if err != nil {
		return nil, err
	}
	if caller != item.Seller {
		return nil, ErrNotOwner
	}
	if item.OnSale {
		return nil, ErrAlreadyOnSale
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}

	collection, err := m.collections.Get(item.CollectionID)
	if err != nil {
		return nil, err
	}

	m.items.relist(item, price)

	snapshot := item.snapshot()
	quote := m.quoteFor(item, collection)

	m.events.EmitEvent(event.ItemOnSaleEvent, Relisted{Item: snapshot, Collection: *collection, Seller: caller, Quote: *quote})

	zap.L().With(
		zap.Uint64("itemId", item.ID),
		zap.String("seller", caller),
		zap.String("price", price.String()),
	).Info("Marketplace: Item on sale")

	return &snapshot, nil
}

// Claim withdraws the caller's accumulated balance. The writer lock is not
// held across the outbound payment; the balance ledger settles itself before
// the transfer so a re-entrant claim finds nothing left.
func (m *Marketplace) Claim(caller string) (*big.Int, error) {
	amount, err := m.balances.Claim(caller, m.payments)
	if err != nil {
		return nil, err
	}

	m.events.EmitEvent(event.FundsClaimedEvent, Claimed{Account: caller, Amount: new(big.Int).Set(amount)})

	zap.L().With(zap.String("account", caller), zap.String("amount", amount.String())).Info("Marketplace: Funds claimed")

	return amount, nil
}

func (m *Marketplace) SetPlatformFeePercent(caller string, pct uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if caller != m.owner {
		return ErrNotAuthorized
	}
	if pct > 100 {
		return ErrInvalidPercent
	}

	m.platformPct = pct
	m.events.EmitEvent(event.FeeChangedEvent, FeeChanged{Fee: "platform", Percent: pct})

	return nil
}

func (m *Marketplace) SetRoyaltyFeePercent(caller string, pct uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if caller != m.owner {
		return ErrNotAuthorized
	}
	if pct > 100 {
		return ErrInvalidPercent
	}

	m.royaltyPct = pct
	m.events.EmitEvent(event.FeeChangedEvent, FeeChanged{Fee: "royalties", Percent: pct})

	return nil
}

func (m *Marketplace) ItemCount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.items.Count()
}

func (m *Marketplace) Item(itemID uint64) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, err := m.items.Get(itemID)
	if err != nil {
		return Item{}, err
	}

	return item.snapshot(), nil
}

func (m *Marketplace) BalanceOf(address string) *big.Int {
	return m.balances.BalanceOf(address)
}

// QuoteItem recomputes the current split for an item from live state. Rate
// changes apply to quotes immediately and never retroactively to past sales.
func (m *Marketplace) QuoteItem(itemID uint64) (*Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.quote(itemID)
}

func (m *Marketplace) quote(itemID uint64) (*Quote, error) {
	item, err := m.items.Get(itemID)
	if err != nil {
		return nil, err
	}

	collection, err := m.collections.Get(item.CollectionID)
	if err != nil {
		return nil, err
	}

	return m.quoteFor(item, collection), nil
}

func (m *Marketplace) quoteFor(item *Item, collection *Collection) *Quote {
	split := Split(item.Price, m.platformPct, m.collectionPct, m.royaltyPct, item.LastSalePrice.Sign() > 0)
	ownerShare := percentOf(split.Collection, collection.EarnPercent)

	return &Quote{
		Price:          new(big.Int).Set(item.Price),
		MarketplaceFee: new(big.Int).Add(split.Platform, new(big.Int).Sub(split.Collection, ownerShare)),
		CollectionFee:  ownerShare,
		RoyaltiesFee:   split.Royalty,
		Total:          split.Total,
	}
}

func (m *Marketplace) TotalPrice(itemID uint64) (*big.Int, error) {
	quote, err := m.QuoteItem(itemID)
	if err != nil {
		return nil, err
	}

	return quote.Total, nil
}

func (m *Marketplace) TotalFeeMarketplace(itemID uint64) (*big.Int, error) {
	quote, err := m.QuoteItem(itemID)
	if err != nil {
		return nil, err
	}

	return quote.MarketplaceFee, nil
}

func (m *Marketplace) TotalFeeCollection(itemID uint64) (*big.Int, error) {
	quote, err := m.QuoteItem(itemID)
	if err != nil {
		return nil, err
	}

	return quote.CollectionFee, nil
}

func (m *Marketplace) TotalFeeRoyalties(itemID uint64) (*big.Int, error) {
	quote, err := m.QuoteItem(itemID)
	if err != nil {
		return nil, err
	}

	return quote.RoyaltiesFee, nil
}
