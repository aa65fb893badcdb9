package repository

import (
	"encoding/json"

	"github.com/dappmarket/market-ledger/internal/elastic_search"
	"github.com/dappmarket/market-ledger/internal/entity"
	"github.com/olivere/elastic/v7"
)

type SaleRepository interface {
	GetSalesForItem(itemID uint64) ([]entity.Sale, error)
	GetSalesForAccount(address string) ([]entity.Sale, error)
}

type saleRepository struct {
	elastic elastic_search.Index
}

func NewSaleRepository(elastic elastic_search.Index) SaleRepository {
	return saleRepository{elastic}
}

func (r saleRepository) GetSalesForItem(itemID uint64) ([]entity.Sale, error) {
	query := elastic.NewTermQuery("itemId", itemID)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.SaleIndex.Get()).
		Query(query).
		Sort("time", true).
		Size(100))

	return r.findMany(result, err)
}

func (r saleRepository) GetSalesForAccount(address string) ([]entity.Sale, error) {
	query := elastic.NewBoolQuery().Should(
		elastic.NewTermQuery("seller.keyword", address),
		elastic.NewTermQuery("buyer.keyword", address),
	).MinimumNumberShouldMatch(1)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.SaleIndex.Get()).
		Query(query).
		Sort("time", true).
		Size(100))

	return r.findMany(result, err)
}

func (r saleRepository) findMany(results *elastic.SearchResult, err error) ([]entity.Sale, error) {
	sales := make([]entity.Sale, 0)
	if err != nil {
		return sales, err
	}

	for _, hit := range results.Hits.Hits {
		var sale entity.Sale
		if err := json.Unmarshal(hit.Source, &sale); err != nil {
			return sales, err
		}
		sales = append(sales, sale)
	}

	return sales, nil
}
