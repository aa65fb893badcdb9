package ledger

import "errors"

var (
	ErrInvalidBatch        = errors.New("mint batch is empty or mismatched")
	ErrItemNotFound        = errors.New("item doesn't exist")
	ErrCollectionNotFound  = errors.New("collection doesn't exist")
	ErrNotOnSale           = errors.New("item is not on sale")
	ErrAlreadyOnSale       = errors.New("item is already on sale")
	ErrNotOwner            = errors.New("caller is not the item seller")
	ErrInsufficientPayment = errors.New("not enough funds to cover item price and market fees")
	ErrInvalidPrice        = errors.New("price must be greater than zero")
	ErrInvalidPercent      = errors.New("percent must be between 0 and 100")
	ErrNothingToClaim      = errors.New("nothing to claim")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrNotAuthorized       = errors.New("caller is not the platform owner")
)
