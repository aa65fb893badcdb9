package entity

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

// Sale records one settled purchase for the item's transaction history.
type Sale struct {
	ID            string    `json:"id"`
	ItemID        uint64    `json:"itemId"`
	TokenID       uint64    `json:"tokenId"`
	Collection    string    `json:"collection"`
	Seller        string    `json:"seller"`
	Buyer         string    `json:"buyer"`
	Price         string    `json:"price"`
	PlatformFee   string    `json:"platformFee"`
	CollectionFee string    `json:"collectionFee"`
	RoyaltyFee    string    `json:"royaltyFee"`
	Total         string    `json:"total"`
	Surplus       string    `json:"surplus"`
	Time          time.Time `json:"time"`
}

func (s Sale) Slug() string {
	return slug.Make(fmt.Sprintf("sale-%d-%s", s.ItemID, s.ID))
}
