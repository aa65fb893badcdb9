package entity

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

// Claim records one successful withdrawal of a beneficiary balance.
type Claim struct {
	ID      string    `json:"id"`
	Account string    `json:"account"`
	Amount  string    `json:"amount"`
	Time    time.Time `json:"time"`
}

func (c Claim) Slug() string {
	return slug.Make(fmt.Sprintf("claim-%s-%s", c.Account, c.ID))
}
