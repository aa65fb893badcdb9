package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/dappmarket/market-ledger/internal/dev"
	"github.com/dappmarket/market-ledger/internal/elastic_search"
	"github.com/dappmarket/market-ledger/internal/entity"
	"github.com/dappmarket/market-ledger/internal/ledger"
	"github.com/dappmarket/market-ledger/internal/metadata"
	"github.com/dappmarket/market-ledger/internal/repository"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	market   *ledger.Marketplace
	items    repository.ItemRepository
	sales    repository.SaleRepository
	claims   repository.ClaimRepository
	metadata metadata.Service
	elastic  elastic_search.Index
}

func NewServer(market *ledger.Marketplace, items repository.ItemRepository, sales repository.SaleRepository, claims repository.ClaimRepository, metadataService metadata.Service, elastic elastic_search.Index) Server {
	return Server{market, items, sales, claims, metadataService, elastic}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	r.HandleFunc("/items", s.handleGetItems).Methods("GET")
	r.HandleFunc("/items/{itemId}", s.handleGetItem).Methods("GET")
	r.HandleFunc("/items/{itemId}/price", s.handleGetItemPrice).Methods("GET")
	r.HandleFunc("/items/{itemId}/metadata", s.handleGetItemMetadata).Methods("GET")
	r.HandleFunc("/items/{itemId}/sales", s.handleGetItemSales).Methods("GET")

	r.HandleFunc("/collections", s.handleMintCollection).Methods("POST")
	r.HandleFunc("/items/{itemId}/purchase", s.handlePurchase).Methods("POST")
	r.HandleFunc("/items/{itemId}/relist", s.handleRelist).Methods("POST")

	r.HandleFunc("/accounts/{address}/balance", s.handleGetBalance).Methods("GET")
	r.HandleFunc("/accounts/{address}/items", s.handleGetAccountItems).Methods("GET")
	r.HandleFunc("/accounts/{address}/sales", s.handleGetAccountSales).Methods("GET")
	r.HandleFunc("/accounts/{address}/claims", s.handleGetClaims).Methods("GET")
	r.HandleFunc("/accounts/{address}/claim", s.handleClaim).Methods("POST")

	r.HandleFunc("/fees/platform", s.handleSetPlatformFee).Methods("PUT")
	r.HandleFunc("/fees/royalties", s.handleSetRoyaltyFee).Methods("PUT")

	r.NotFoundHandler = notFoundHandler()

	return r
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":               "OK",
		"owner":                s.market.Owner(),
		"itemCount":            s.market.ItemCount(),
		"platformFeePercent":   s.market.PlatformFeePercent(),
		"collectionFeePercent": s.market.CollectionFeePercent(),
		"royaltyFeePercent":    s.market.RoyaltyFeePercent(),
	})
}

func (s Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	var onSale *bool
	if raw := r.URL.Query().Get("onSale"); raw != "" {
		val, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidQuery", errors.New("onSale must be a boolean"))
			return
		}
		onSale = &val
	}

	items, err := s.items.GetItems(onSale, r.URL.Query().Get("seller"), r.URL.Query().Get("excludeSeller"), 0)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to load items")
		writeError(w, http.StatusInternalServerError, "Internal", errors.New("failed to load items"))
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (s Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemID(r)
	if err != nil {
		s.writeLedgerError(w, r, ledger.ErrItemNotFound)
		return
	}

	item, err := s.market.Item(itemID)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	quote, err := s.market.QuoteItem(itemID)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemResponse(item, quote))
}

func (s Server) handleGetItemPrice(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemID(r)
	if err != nil {
		s.writeLedgerError(w, r, ledger.ErrItemNotFound)
		return
	}

	quote, err := s.market.QuoteItem(itemID)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"price":          quote.Price.String(),
		"totalPrice":     quote.Total.String(),
		"feeMarketplace": quote.MarketplaceFee.String(),
		"feeCollection":  quote.CollectionFee.String(),
		"feeRoyalties":   quote.RoyaltiesFee.String(),
	})
}

func (s Server) handleGetItemMetadata(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemID(r)
	if err != nil {
		s.writeLedgerError(w, r, ledger.ErrItemNotFound)
		return
	}

	item, err := s.market.Item(itemID)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	md, err := s.metadata.GetItemMetadata(entity.Item{ItemID: item.ID, URI: item.URI})
	if err != nil {
		zap.L().With(zap.Error(err), zap.Uint64("itemId", itemID)).Warn("Api: Metadata not available")
		writeError(w, http.StatusNotFound, "MetadataNotAvailable", errors.New("metadata not available"))
		return
	}

	writeJSON(w, http.StatusOK, md)
}

func (s Server) handleGetItemSales(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemID(r)
	if err != nil {
		s.writeLedgerError(w, r, ledger.ErrItemNotFound)
		return
	}

	sales, err := s.sales.GetSalesForItem(itemID)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to load sales")
		writeError(w, http.StatusInternalServerError, "Internal", errors.New("failed to load sales"))
		return
	}

	writeJSON(w, http.StatusOK, sales)
}

type mintRequest struct {
	Caller          string   `json:"caller"`
	Uris            []string `json:"uris"`
	CollectionOwner string   `json:"collectionOwner"`
	EarnPercent     uint     `json:"earnPercent"`
	Collection      string   `json:"collection"`
	RoyaltySource   string   `json:"royaltySource"`
	Prices          []string `json:"prices"`
}

func (s Server) handleMintCollection(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", errors.New("invalid request body"))
		return
	}

	prices := make([]*big.Int, len(req.Prices))
	for idx, raw := range req.Prices {
		price, err := parseAmount(raw)
		if err != nil {
			s.writeLedgerError(w, r, ledger.ErrInvalidPrice)
			return
		}
		prices[idx] = price
	}

	if req.RoyaltySource == "" {
		req.RoyaltySource = req.Collection
	}

	items, err := s.market.MintCollection(req.Caller, req.Uris, req.CollectionOwner, req.EarnPercent, req.Collection, req.RoyaltySource, prices)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	itemIds := make([]uint64, len(items))
	for idx, item := range items {
		itemIds[idx] = item.ID
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"itemIds": itemIds})
}

type purchaseRequest struct {
	Buyer  string `json:"buyer"`
	Amount string `json:"amount"`
}

func (s Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemID(r)
	if err != nil {
		s.writeLedgerError(w, r, ledger.ErrItemNotFound)
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", errors.New("invalid request body"))
		return
	}

	paid, err := parseAmount(req.Amount)
	if err != nil {
		s.writeLedgerError(w, r, ledger.ErrInsufficientPayment)
		return
	}

	receipt, err := s.market.Purchase(itemID, req.Buyer, paid)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"itemId":        receipt.ItemID,
		"collection":    receipt.Collection,
		"seller":        receipt.Seller,
		"buyer":         receipt.Buyer,
		"price":         receipt.Price.String(),
		"platformFee":   receipt.PlatformFee.String(),
		"collectionFee": receipt.CollectionFee.String(),
		"royaltyFee":    receipt.RoyaltyFee.String(),
		"total":         receipt.Total.String(),
		"surplus":       receipt.Surplus.String(),
	})
}

type relistRequest struct {
	Caller string `json:"caller"`
	Price  string `json:"price"`
}

func (s Server) handleRelist(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemID(r)
	if err != nil {
		s.writeLedgerError(w, r, ledger.ErrItemNotFound)
		return
	}

	var req relistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", errors.New("invalid request body"))
		return
	}

	price, err := parseAmount(req.Price)
	if err != nil {
		s.writeLedgerError(w, r, ledger.ErrInvalidPrice)
		return
	}

	item, err := s.market.Relist(itemID, req.Caller, price)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	quote, err := s.market.QuoteItem(itemID)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemResponse(*item, quote))
}

func (s Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	writeJSON(w, http.StatusOK, map[string]string{
		"address": address,
		"balance": s.market.BalanceOf(address).String(),
	})
}

func (s Server) handleGetAccountItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.GetItemsBySeller(mux.Vars(r)["address"])
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to load account items")
		writeError(w, http.StatusInternalServerError, "Internal", errors.New("failed to load items"))
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (s Server) handleGetAccountSales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.sales.GetSalesForAccount(mux.Vars(r)["address"])
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to load account sales")
		writeError(w, http.StatusInternalServerError, "Internal", errors.New("failed to load sales"))
		return
	}

	writeJSON(w, http.StatusOK, sales)
}

func (s Server) handleGetClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claims.GetClaimsForAccount(mux.Vars(r)["address"])
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to load claims")
		writeError(w, http.StatusInternalServerError, "Internal", errors.New("failed to load claims"))
		return
	}

	writeJSON(w, http.StatusOK, claims)
}

func (s Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	amount, err := s.market.Claim(address)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"address": address,
		"amount":  amount.String(),
	})
}

type feeRequest struct {
	Caller  string `json:"caller"`
	Percent uint   `json:"percent"`
}

func (s Server) handleSetPlatformFee(w http.ResponseWriter, r *http.Request) {
	var req feeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", errors.New("invalid request body"))
		return
	}

	if err := s.market.SetPlatformFeePercent(req.Caller, req.Percent); err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint{"platformFeePercent": req.Percent})
}

func (s Server) handleSetRoyaltyFee(w http.ResponseWriter, r *http.Request) {
	var req feeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", errors.New("invalid request body"))
		return
	}

	if err := s.market.SetRoyaltyFeePercent(req.Caller, req.Percent); err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint{"royaltyFeePercent": req.Percent})
}

func (s Server) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := reason(err)

	if status >= http.StatusInternalServerError && s.elastic != nil {
		s.elastic.Save(elastic_search.ErrorIndex.Get(), dev.NewError("api", r.URL.Path, err, map[string]interface{}{
			"method": r.Method,
		}))
	}

	writeError(w, status, code, err)
}

// reason maps a ledger error to its stable reason code and http status.
func reason(err error) (string, int) {
	switch {
	case errors.Is(err, ledger.ErrInvalidBatch):
		return "InvalidBatch", http.StatusBadRequest
	case errors.Is(err, ledger.ErrItemNotFound), errors.Is(err, ledger.ErrCollectionNotFound):
		return "NotFound", http.StatusNotFound
	case errors.Is(err, ledger.ErrNotOnSale):
		return "NotOnSale", http.StatusConflict
	case errors.Is(err, ledger.ErrAlreadyOnSale):
		return "AlreadyOnSale", http.StatusConflict
	case errors.Is(err, ledger.ErrNotOwner):
		return "NotOwner", http.StatusForbidden
	case errors.Is(err, ledger.ErrInsufficientPayment):
		return "InsufficientPayment", http.StatusPaymentRequired
	case errors.Is(err, ledger.ErrInvalidPrice):
		return "InvalidPrice", http.StatusBadRequest
	case errors.Is(err, ledger.ErrInvalidPercent):
		return "InvalidPercent", http.StatusBadRequest
	case errors.Is(err, ledger.ErrNothingToClaim):
		return "NothingToClaim", http.StatusBadRequest
	case errors.Is(err, ledger.ErrTransferFailed):
		return "TransferFailed", http.StatusBadGateway
	case errors.Is(err, ledger.ErrNotAuthorized):
		return "NotAuthorized", http.StatusForbidden
	}

	return "Internal", http.StatusInternalServerError
}

func itemResponse(item ledger.Item, quote *ledger.Quote) map[string]interface{} {
	return map[string]interface{}{
		"itemId":          item.ID,
		"tokenId":         item.TokenID,
		"uri":             item.URI,
		"price":           item.Price.String(),
		"latestPrice":     item.LastSalePrice.String(),
		"totalPrice":      quote.Total.String(),
		"seller":          item.Seller,
		"royaltyReceiver": item.RoyaltyReceiver,
		"onSale":          item.OnSale,
	}
}

func itemID(r *http.Request) (uint64, error) {
	raw, ok := mux.Vars(r)["itemId"]
	if !ok {
		return 0, errors.New("invalid parameters")
	}

	return strconv.ParseUint(raw, 10, 64)
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}

	return amount, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "error": err.Error()})
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NotFound", errors.New("page not found"))
	})
}
