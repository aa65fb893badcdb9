package entity

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/gosimple/slug"
)

// Item is the read-model projection of one ledger item. Amounts are decimal
// strings of the smallest currency unit.
type Item struct {
	ItemID          uint64 `json:"itemId"`
	TokenID         uint64 `json:"tokenId"`
	Collection      string `json:"collection"`
	URI             string `json:"uri"`
	Price           string `json:"price"`
	LatestPrice     string `json:"latestPrice"`
	TotalPrice      string `json:"totalPrice"`
	Seller          string `json:"seller"`
	RoyaltyReceiver string `json:"royaltyReceiver"`
	OnSale          bool   `json:"onSale"`
}

func (i Item) Slug() string {
	return CreateItemSlug(i.ItemID)
}

func CreateItemSlug(itemID uint64) string {
	return slug.Make(fmt.Sprintf("item-%d", itemID))
}

// MetadataURI resolves the item's metadata pointer to something fetchable,
// rewriting ipfs uris and bare CIDs through the first configured gateway.
func (i Item) MetadataURI(ipfsHosts []string) (string, error) {
	metadataURI := i.URI

	if ipfs := getIpfs(metadataURI); ipfs != "" {
		if len(ipfsHosts) == 0 {
			return "", errors.New("no ipfs gateway configured")
		}
		metadataURI = fmt.Sprintf("%s/ipfs/%s", ipfsHosts[0], ipfs[7:])
	}

	if len(metadataURI) < 4 || metadataURI[:4] != "http" {
		return "", errors.New("invalid metadata uri")
	}

	return metadataURI, nil
}

var cidRe = regexp.MustCompile("(Qm[1-9A-HJ-NP-Za-km-z]{44})")

func getIpfs(metadataURI string) string {
	if len(metadataURI) >= 7 && metadataURI[:7] == "ipfs://" {
		return metadataURI
	}

	parts := cidRe.FindStringSubmatch(metadataURI)
	if len(parts) == 2 {
		return "ipfs://" + parts[1]
	}

	return ""
}
