package wallet

import (
	"math/big"
	"sync"

	"go.uber.org/zap"
)

// DevPaymentSender satisfies the ledger's outbound payment boundary in
// environments without a live signer. Every transfer succeeds.
type DevPaymentSender struct{}

func NewDevPaymentSender() DevPaymentSender {
	return DevPaymentSender{}
}

func (s DevPaymentSender) Send(to string, amount *big.Int) error {
	zap.L().With(zap.String("to", to), zap.String("amount", amount.String())).Info("Wallet: Sending payment")

	return nil
}

// DevTokenService stands in for the token contract: it hands out sequential
// token ids per collection and acknowledges transfers.
type DevTokenService struct {
	mu       sync.Mutex
	counters map[string]uint64
}

func NewDevTokenService() *DevTokenService {
	return &DevTokenService{counters: map[string]uint64{}}
}

func (s *DevTokenService) Mint(collection string, owner string, uris []string) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokenIDs := make([]uint64, len(uris))
	for idx := range uris {
		s.counters[collection]++
		tokenIDs[idx] = s.counters[collection]
	}

	zap.L().With(
		zap.String("collection", collection),
		zap.String("owner", owner),
		zap.Int("tokens", len(tokenIDs)),
	).Info("Wallet: Minted tokens")

	return tokenIDs, nil
}

func (s *DevTokenService) Transfer(collection string, tokenID uint64, from, to string) error {
	zap.L().With(
		zap.String("collection", collection),
		zap.Uint64("tokenId", tokenID),
		zap.String("from", from),
		zap.String("to", to),
	).Info("Wallet: Transferring token")

	return nil
}
