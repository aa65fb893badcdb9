package repository

import (
	"encoding/json"

	"github.com/dappmarket/market-ledger/internal/elastic_search"
	"github.com/dappmarket/market-ledger/internal/entity"
	"github.com/olivere/elastic/v7"
)

type ClaimRepository interface {
	GetClaimsForAccount(address string) ([]entity.Claim, error)
}

type claimRepository struct {
	elastic elastic_search.Index
}

func NewClaimRepository(elastic elastic_search.Index) ClaimRepository {
	return claimRepository{elastic}
}

func (r claimRepository) GetClaimsForAccount(address string) ([]entity.Claim, error) {
	query := elastic.NewTermQuery("account.keyword", address)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ClaimIndex.Get()).
		Query(query).
		Sort("time", true).
		Size(100))

	claims := make([]entity.Claim, 0)
	if err != nil {
		return claims, err
	}

	for _, hit := range result.Hits.Hits {
		var claim entity.Claim
		if err := json.Unmarshal(hit.Source, &claim); err != nil {
			return claims, err
		}
		claims = append(claims, claim)
	}

	return claims, nil
}
