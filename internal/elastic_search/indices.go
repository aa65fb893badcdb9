package elastic_search

import (
	"fmt"

	"github.com/dappmarket/market-ledger/internal/config"
)

type Indices string

var (
	ItemIndex  Indices = "item"
	SaleIndex  Indices = "sale"
	ClaimIndex Indices = "claim"
	ErrorIndex Indices = "error"
)

// Prefixes the network and index name and returns the full string
func (i *Indices) Get() string {
	return fmt.Sprintf("%s.%s.%s", config.Get().Network, config.Get().Index, string(*i))
}
