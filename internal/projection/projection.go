package projection

import (
	"time"

	"github.com/dappmarket/market-ledger/internal/elastic_search"
	"github.com/dappmarket/market-ledger/internal/entity"
	"github.com/dappmarket/market-ledger/internal/ledger"
	uuid "github.com/nu7hatch/gouuid"
	"go.uber.org/zap"
)

// Projection mirrors ledger events into the elastic read model. The ledger
// never reads these documents back; they only serve the query API.
type Projection struct {
	elastic elastic_search.Index
}

func NewProjection(elastic elastic_search.Index) Projection {
	return Projection{elastic}
}

func (p Projection) OnItemOffered(msg interface{}) {
	offered, ok := msg.(ledger.Offered)
	if !ok {
		zap.L().Error("Projection: Unexpected ItemOffered payload")
		return
	}

	doc := itemDoc(offered.Item, offered.Collection.Ref)
	doc.TotalPrice = offered.Quote.Total.String()

	p.elastic.AddIndexRequest(elastic_search.ItemIndex.Get(), doc, elastic_search.ItemCreate)
	p.elastic.BatchPersist()
}

func (p Projection) OnItemBought(msg interface{}) {
	bought, ok := msg.(ledger.Bought)
	if !ok {
		zap.L().Error("Projection: Unexpected ItemBought payload")
		return
	}

	doc := itemDoc(bought.Item, bought.Receipt.Collection)
	p.elastic.AddUpdateRequest(elastic_search.ItemIndex.Get(), doc, elastic_search.ItemSold)

	id, _ := uuid.NewV4()
	sale := entity.Sale{
		ID:            id.String(),
		ItemID:        bought.Receipt.ItemID,
		TokenID:       bought.Receipt.TokenID,
		Collection:    bought.Receipt.Collection,
		Seller:        bought.Receipt.Seller,
		Buyer:         bought.Receipt.Buyer,
		Price:         bought.Receipt.Price.String(),
		PlatformFee:   bought.Receipt.PlatformFee.String(),
		CollectionFee: bought.Receipt.CollectionFee.String(),
		RoyaltyFee:    bought.Receipt.RoyaltyFee.String(),
		Total:         bought.Receipt.Total.String(),
		Surplus:       bought.Receipt.Surplus.String(),
		Time:          time.Now(),
	}

	p.elastic.AddIndexRequest(elastic_search.SaleIndex.Get(), sale, elastic_search.SaleCreate)
	p.elastic.BatchPersist()
}

func (p Projection) OnItemOnSale(msg interface{}) {
	relisted, ok := msg.(ledger.Relisted)
	if !ok {
		zap.L().Error("Projection: Unexpected ItemOnSale payload")
		return
	}

	doc := itemDoc(relisted.Item, relisted.Collection.Ref)
	doc.TotalPrice = relisted.Quote.Total.String()

	p.elastic.AddUpdateRequest(elastic_search.ItemIndex.Get(), doc, elastic_search.ItemListed)
	p.elastic.BatchPersist()
}

func (p Projection) OnFundsClaimed(msg interface{}) {
	claimed, ok := msg.(ledger.Claimed)
	if !ok {
		zap.L().Error("Projection: Unexpected FundsClaimed payload")
		return
	}

	id, _ := uuid.NewV4()
	claim := entity.Claim{
		ID:      id.String(),
		Account: claimed.Account,
		Amount:  claimed.Amount.String(),
		Time:    time.Now(),
	}

	p.elastic.AddIndexRequest(elastic_search.ClaimIndex.Get(), claim, elastic_search.ClaimCreate)
	p.elastic.BatchPersist()
}

func itemDoc(item ledger.Item, collection string) entity.Item {
	return entity.Item{
		ItemID:          item.ID,
		TokenID:         item.TokenID,
		Collection:      collection,
		URI:             item.URI,
		Price:           item.Price.String(),
		LatestPrice:     item.LastSalePrice.String(),
		Seller:          item.Seller,
		RoyaltyReceiver: item.RoyaltyReceiver,
		OnSale:          item.OnSale,
	}
}
