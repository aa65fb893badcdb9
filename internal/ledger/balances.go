package ledger

import (
	"fmt"
	"math/big"
	"sync"
)

// PaymentSender moves value out of the ledger to a beneficiary. It is the one
// boundary where control leaves the ledger mid-operation, and the receiving
// party may call back in before it returns.
type PaymentSender interface {
	Send(to string, amount *big.Int) error
}

// BalanceLedger tracks the withdrawable amount per beneficiary address. It is
// only ever credited by marketplace operations and debited by Claim.
type BalanceLedger struct {
	mu       sync.Mutex
	balances map[string]*big.Int
}

func NewBalanceLedger() *BalanceLedger {
	return &BalanceLedger{balances: map[string]*big.Int{}}
}

// Credit adds amount to the address balance. A zero amount is a no-op.
func (l *BalanceLedger) Credit(address string, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.credit(address, amount)
}

func (l *BalanceLedger) credit(address string, amount *big.Int) {
	balance, ok := l.balances[address]
	if !ok {
		balance = big.NewInt(0)
		l.balances[address] = balance
	}

	balance.Add(balance, amount)
}

func (l *BalanceLedger) BalanceOf(address string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[address]
	if !ok {
		return big.NewInt(0)
	}

	return new(big.Int).Set(balance)
}

// Claim pays out the caller's full balance through sender. The balance is
// zeroed before the transfer is attempted, so a re-entrant claim from the
// receiving party observes an already settled ledger. A failed transfer
// credits the amount back and the claim fails as a whole.
func (l *BalanceLedger) Claim(caller string, sender PaymentSender) (*big.Int, error) {
	l.mu.Lock()

	balance, ok := l.balances[caller]
	if !ok || balance.Sign() == 0 {
		l.mu.Unlock()
		return nil, ErrNothingToClaim
	}

	amount := new(big.Int).Set(balance)
	balance.SetInt64(0)
	l.mu.Unlock()

	if err := sender.Send(caller, amount); err != nil {
		l.mu.Lock()
		l.credit(caller, amount)
		l.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrTransferFailed, err)
	}

	return amount, nil
}
