package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/dappmarket/market-ledger/internal/config"
	"github.com/dappmarket/market-ledger/internal/config/di"
	"github.com/dappmarket/market-ledger/internal/elastic_search"
	"github.com/dappmarket/market-ledger/internal/event"
	"github.com/dappmarket/market-ledger/internal/ledger"
	"github.com/dappmarket/market-ledger/internal/repository"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	container *di.Dic
	elastic   elastic_search.Index
	market    *ledger.Marketplace
	itemRepo  repository.ItemRepository
	saleRepo  repository.SaleRepository
)

func main() {
	config.Init("cli")

	container = di.NewCtx()
	elastic = container.GetElastic()
	market = container.GetMarketplace()
	itemRepo = container.GetItemRepo()
	saleRepo = container.GetSaleRepo()

	elastic.InstallMappings()

	bus := container.GetEventBus()
	projection := container.GetProjection()
	bus.AddEventListener(event.ItemOfferedEvent, projection.OnItemOffered)
	bus.AddEventListener(event.ItemBoughtEvent, projection.OnItemBought)
	bus.AddEventListener(event.ItemOnSaleEvent, projection.OnItemOnSale)
	bus.AddEventListener(event.FundsClaimedEvent, projection.OnFundsClaimed)

	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "mint",
				Usage:  "Mint a batch of items into a collection and list them for sale",
				Action: mint,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "caller", Required: true, Usage: "account performing the mint"},
					&cli.StringFlag{Name: "owner", Required: true, Usage: "collection owner receiving the earn share"},
					&cli.UintFlag{Name: "earn", Value: 0, Usage: "collection owner earn percent (0-100)"},
					&cli.StringFlag{Name: "collection", Required: true, Usage: "collection contract reference"},
					&cli.StringFlag{Name: "royalty-source", Value: "", Usage: "royalty source reference (defaults to the collection)"},
					&cli.StringSliceFlag{Name: "uri", Required: true, Usage: "item metadata uri (repeatable)"},
					&cli.StringSliceFlag{Name: "price", Required: true, Usage: "item price in base units (repeatable, pairs with --uri)"},
				},
			},
			{
				Name:      "purchase",
				Usage:     "Purchase an item",
				ArgsUsage: "<itemId>",
				Action:    purchase,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "buyer", Required: true},
					&cli.StringFlag{Name: "amount", Required: true, Usage: "payment in base units, must cover the total price"},
				},
			},
			{
				Name:      "relist",
				Usage:     "Put a purchased item back on sale",
				ArgsUsage: "<itemId>",
				Action:    relist,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "caller", Required: true},
					&cli.StringFlag{Name: "price", Required: true},
				},
			},
			{
				Name:      "claim",
				Usage:     "Claim an account's accrued proceeds",
				ArgsUsage: "<address>",
				Action:    claim,
			},
			{
				Name:      "balance",
				Usage:     "Show an account's claimable balance",
				ArgsUsage: "<address>",
				Action:    balance,
			},
			{
				Name:      "quote",
				Usage:     "Show the full price breakdown for an item",
				ArgsUsage: "<itemId>",
				Action:    quote,
			},
			{
				Name:   "items",
				Usage:  "List items from the read model",
				Action: items,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "seller", Value: ""},
					&cli.BoolFlag{Name: "on-sale", Usage: "only items currently on sale"},
				},
			},
			{
				Name:      "sales",
				Usage:     "List the sale history for an item",
				ArgsUsage: "<itemId>",
				Action:    sales,
			},
			{
				Name:   "set-platform-fee",
				Usage:  "Update the platform fee percent (platform owner only)",
				Action: setPlatformFee,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "caller", Required: true},
					&cli.UintFlag{Name: "percent", Required: true},
				},
			},
			{
				Name:   "set-royalty-fee",
				Usage:  "Update the royalty fee percent (platform owner only)",
				Action: setRoyaltyFee,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "caller", Required: true},
					&cli.UintFlag{Name: "percent", Required: true},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start CLI")
	}
}

func mint(c *cli.Context) error {
	uris := c.StringSlice("uri")
	rawPrices := c.StringSlice("price")

	prices := make([]*big.Int, len(rawPrices))
	for idx, raw := range rawPrices {
		price, err := parseAmount(raw)
		if err != nil {
			return err
		}
		prices[idx] = price
	}

	royaltySource := c.String("royalty-source")
	if royaltySource == "" {
		royaltySource = c.String("collection")
	}

	minted, err := market.MintCollection(c.String("caller"), uris, c.String("owner"), c.Uint("earn"), c.String("collection"), royaltySource, prices)
	if err != nil {
		return err
	}

	for _, item := range minted {
		zap.S().Infof("Minted item %d (token %d) at %s", item.ID, item.TokenID, item.Price.String())
	}
	elastic.Persist()

	return nil
}

func purchase(c *cli.Context) error {
	itemID, err := itemIDArg(c)
	if err != nil {
		return err
	}

	paid, err := parseAmount(c.String("amount"))
	if err != nil {
		return err
	}

	receipt, err := market.Purchase(itemID, c.String("buyer"), paid)
	if err != nil {
		return err
	}

	zap.S().Infof(
		"Item %d sold to %s for %s (platform %s, collection %s, royalty %s)",
		receipt.ItemID, receipt.Buyer, receipt.Price.String(),
		receipt.PlatformFee.String(), receipt.CollectionFee.String(), receipt.RoyaltyFee.String(),
	)
	elastic.Persist()

	return nil
}

func relist(c *cli.Context) error {
	itemID, err := itemIDArg(c)
	if err != nil {
		return err
	}

	price, err := parseAmount(c.String("price"))
	if err != nil {
		return err
	}

	item, err := market.Relist(itemID, c.String("caller"), price)
	if err != nil {
		return err
	}

	zap.S().Infof("Item %d back on sale at %s", item.ID, item.Price.String())
	elastic.Persist()

	return nil
}

func claim(c *cli.Context) error {
	address := c.Args().First()
	if address == "" {
		return errors.New("no address provided")
	}

	amount, err := market.Claim(address)
	if err != nil {
		return err
	}

	zap.S().Infof("Claimed %s for %s", amount.String(), address)
	elastic.Persist()

	return nil
}

func balance(c *cli.Context) error {
	address := c.Args().First()
	if address == "" {
		return errors.New("no address provided")
	}

	fmt.Println(market.BalanceOf(address).String())

	return nil
}

func quote(c *cli.Context) error {
	itemID, err := itemIDArg(c)
	if err != nil {
		return err
	}

	q, err := market.QuoteItem(itemID)
	if err != nil {
		return err
	}

	return printJSON(map[string]string{
		"price":          q.Price.String(),
		"totalPrice":     q.Total.String(),
		"feeMarketplace": q.MarketplaceFee.String(),
		"feeCollection":  q.CollectionFee.String(),
		"feeRoyalties":   q.RoyaltiesFee.String(),
	})
}

func items(c *cli.Context) error {
	var onSale *bool
	if c.IsSet("on-sale") {
		val := c.Bool("on-sale")
		onSale = &val
	}

	results, err := itemRepo.GetItems(onSale, c.String("seller"), "", 0)
	if err != nil {
		return err
	}

	return printJSON(results)
}

func sales(c *cli.Context) error {
	itemID, err := itemIDArg(c)
	if err != nil {
		return err
	}

	results, err := saleRepo.GetSalesForItem(itemID)
	if err != nil {
		return err
	}

	return printJSON(results)
}

func setPlatformFee(c *cli.Context) error {
	return market.SetPlatformFeePercent(c.String("caller"), c.Uint("percent"))
}

func setRoyaltyFee(c *cli.Context) error {
	return market.SetRoyaltyFeePercent(c.String("caller"), c.Uint("percent"))
}

func itemIDArg(c *cli.Context) (uint64, error) {
	raw := c.Args().First()
	if raw == "" {
		return 0, errors.New("no item id provided")
	}

	itemID, ok := new(big.Int).SetString(raw, 10)
	if !ok || !itemID.IsUint64() {
		return 0, fmt.Errorf("invalid item id %q", raw)
	}

	return itemID.Uint64(), nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}

	return amount, nil
}

func printJSON(body interface{}) error {
	out, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}
