package ledger

import "math/big"

// Item is one listed unit. The ledger tracks it independently of the token's
// own transfer mechanics; TokenID points back into the owning collection.
type Item struct {
	ID              uint64
	TokenID         uint64
	CollectionID    uint64
	URI             string
	Price           *big.Int
	Seller          string
	RoyaltyReceiver string // the item's first buyer, fixed at the first sale
	LastSalePrice   *big.Int
	OnSale          bool
}

func (i Item) snapshot() Item {
	clone := i
	clone.Price = new(big.Int).Set(i.Price)
	clone.LastSalePrice = new(big.Int).Set(i.LastSalePrice)

	return clone
}

// ItemRegistry owns every item record. Ids are 1-based, assigned sequentially
// and never reused; items are never deleted.
type ItemRegistry struct {
	items map[uint64]*Item
	count uint64
}

func NewItemRegistry() *ItemRegistry {
	return &ItemRegistry{items: map[uint64]*Item{}}
}

func (r *ItemRegistry) Count() uint64 {
	return r.count
}

func (r *ItemRegistry) Get(id uint64) (*Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}

	return item, nil
}

// MintBatch creates one listed item per uri/price/token triple. The caller has
// already validated batch shape and prices; the registry only assigns ids.
func (r *ItemRegistry) MintBatch(collection *Collection, lister string, uris []string, tokenIDs []uint64, prices []*big.Int) []*Item {
	items := make([]*Item, len(uris))
	for idx := range uris {
		r.count++
		item := &Item{
			ID:            r.count,
			TokenID:       tokenIDs[idx],
			CollectionID:  collection.ID,
			URI:           uris[idx],
			Price:         new(big.Int).Set(prices[idx]),
			Seller:        lister,
			LastSalePrice: big.NewInt(0),
			OnSale:        true,
		}

		r.items[item.ID] = item
		items[idx] = item
	}

	return items
}

// markSold applies the purchase transition. The first buyer is locked in as
// the royalty receiver for every later resale; the realized price is recorded.
func (r *ItemRegistry) markSold(item *Item, buyer string) {
	if item.LastSalePrice.Sign() == 0 {
		item.RoyaltyReceiver = buyer
	}
	item.Seller = buyer
	item.LastSalePrice = new(big.Int).Set(item.Price)
	item.OnSale = false
}

func (r *ItemRegistry) relist(item *Item, price *big.Int) {
	item.Price = new(big.Int).Set(price)
	item.OnSale = true
}
