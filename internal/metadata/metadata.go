package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dappmarket/market-ledger/internal/entity"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
)

// Service resolves an item's metadata pointer to the JSON blob the UI renders.
// The store behind the pointer is read-only from the ledger's point of view.
type Service interface {
	GetItemMetadata(item entity.Item) (map[string]interface{}, error)
}

type service struct {
	client    *retryablehttp.Client
	cache     *cache.Cache
	ipfsHosts []string
}

func NewMetadataService(client *retryablehttp.Client, ipfsHosts []string) Service {
	return service{
		client:    client,
		cache:     cache.New(10*time.Minute, 30*time.Minute),
		ipfsHosts: ipfsHosts,
	}
}

func (s service) GetItemMetadata(item entity.Item) (map[string]interface{}, error) {
	if cached, found := s.cache.Get(item.URI); found {
		return cached.(map[string]interface{}), nil
	}

	metadataURI, err := item.MetadataURI(s.ipfsHosts)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Get(metadataURI)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, errors.New(resp.Status)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}

	var md map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &md); err != nil {
		return nil, fmt.Errorf("invalid metadata: %s", err)
	}

	s.cache.Set(item.URI, md, cache.DefaultExpiration)

	return md, nil
}
