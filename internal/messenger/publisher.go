package messenger

import (
	"encoding/json"

	"github.com/dappmarket/market-ledger/internal/ledger"
	"go.uber.org/zap"
)

// Publisher forwards settled ledger events onto the queues for downstream
// consumers (notifications, accounting exports). Failures are logged and
// dropped; the ledger itself has already committed.
type Publisher struct {
	messenger MessageService
}

func NewPublisher(messenger MessageService) Publisher {
	return Publisher{messenger}
}

func (p Publisher) OnItemBought(msg interface{}) {
	bought, ok := msg.(ledger.Bought)
	if !ok {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"itemId":     bought.Receipt.ItemID,
		"collection": bought.Receipt.Collection,
		"seller":     bought.Receipt.Seller,
		"buyer":      bought.Receipt.Buyer,
		"price":      bought.Receipt.Price.String(),
		"total":      bought.Receipt.Total.String(),
	})
	if err != nil {
		return
	}

	if err := p.messenger.SendMessage(ItemBought, body); err != nil {
		zap.L().With(zap.Error(err), zap.Uint64("itemId", bought.Receipt.ItemID)).Error("Publisher: Failed to publish sale")
	}
}

func (p Publisher) OnFundsClaimed(msg interface{}) {
	claimed, ok := msg.(ledger.Claimed)
	if !ok {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"account": claimed.Account,
		"amount":  claimed.Amount.String(),
	})
	if err != nil {
		return
	}

	if err := p.messenger.SendMessage(FundsClaimed, body); err != nil {
		zap.L().With(zap.Error(err), zap.String("account", claimed.Account)).Error("Publisher: Failed to publish claim")
	}
}
