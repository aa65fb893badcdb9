package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dappmarket/market-ledger/internal/elastic_search"
	"github.com/dappmarket/market-ledger/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrItemNotFound = errors.New("item not found")
)

type ItemRepository interface {
	GetItem(itemID uint64) (entity.Item, error)
	GetItems(onSale *bool, seller, excludeSeller string, size int) ([]entity.Item, error)
	GetItemsBySeller(seller string) ([]entity.Item, error)
}

type itemRepository struct {
	elastic elastic_search.Index
}

func NewItemRepository(elastic elastic_search.Index) ItemRepository {
	return itemRepository{elastic}
}

func (r itemRepository) GetItem(itemID uint64) (entity.Item, error) {
	query := elastic.NewTermQuery("itemId", itemID)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ItemIndex.Get()).
		Query(query).
		Size(1))

	return r.findOne(result, err)
}

func (r itemRepository) GetItems(onSale *bool, seller, excludeSeller string, size int) ([]entity.Item, error) {
	query := elastic.NewBoolQuery()
	if onSale != nil {
		query.Must(elastic.NewTermQuery("onSale", *onSale))
	}
	if seller != "" {
		query.Must(elastic.NewTermQuery("seller.keyword", seller))
	}
	if excludeSeller != "" {
		query.MustNot(elastic.NewTermQuery("seller.keyword", excludeSeller))
	}

	if size == 0 {
		size = 100
	}

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ItemIndex.Get()).
		Query(query).
		Sort("itemId", true).
		Size(size))

	return r.findMany(result, err)
}

func (r itemRepository) GetItemsBySeller(seller string) ([]entity.Item, error) {
	return r.GetItems(nil, seller, "", 0)
}

func (r itemRepository) findOne(results *elastic.SearchResult, err error) (entity.Item, error) {
	if err != nil {
		return entity.Item{}, err
	}

	if len(results.Hits.Hits) == 0 {
		return entity.Item{}, ErrItemNotFound
	}

	var item entity.Item
	err = json.Unmarshal(results.Hits.Hits[0].Source, &item)

	return item, err
}

func (r itemRepository) findMany(results *elastic.SearchResult, err error) ([]entity.Item, error) {
	items := make([]entity.Item, 0)
	if err != nil {
		return items, err
	}

	for _, hit := range results.Hits.Hits {
		var item entity.Item
		if err := json.Unmarshal(hit.Source, &item); err != nil {
			return items, err
		}
		items = append(items, item)
	}

	return items, nil
}

func search(service *elastic.SearchService) (*elastic.SearchResult, error) {
	return service.Do(context.Background())
}
