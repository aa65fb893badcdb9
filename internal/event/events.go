package event

type Type string

const (
	ItemOfferedEvent  Type = "ItemOfferedEvent"
	ItemBoughtEvent   Type = "ItemBoughtEvent"
	ItemOnSaleEvent   Type = "ItemOnSaleEvent"
	FundsClaimedEvent Type = "FundsClaimedEvent"
	FeeChangedEvent   Type = "FeeChangedEvent"
)
