package di

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/dappmarket/market-ledger/internal/api"
	"github.com/dappmarket/market-ledger/internal/config"
	"github.com/dappmarket/market-ledger/internal/elastic_search"
	"github.com/dappmarket/market-ledger/internal/event"
	"github.com/dappmarket/market-ledger/internal/ledger"
	"github.com/dappmarket/market-ledger/internal/messenger"
	"github.com/dappmarket/market-ledger/internal/metadata"
	"github.com/dappmarket/market-ledger/internal/projection"
	"github.com/dappmarket/market-ledger/internal/repository"
	"github.com/dappmarket/market-ledger/internal/wallet"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

var definitions = []di.Def{
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, err := elastic_search.New()
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to start ES")
			}

			return elastic, nil
		},
	},
	{
		Name: "event.bus",
		Build: func(ctn di.Container) (interface{}, error) {
			return event.NewBus(), nil
		},
	},
	{
		Name: "marketplace",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()

			market, err := ledger.NewMarketplace(
				cfg.PlatformOwner,
				cfg.PlatformFeePercent,
				cfg.CollectionFeePercent,
				cfg.RoyaltyFeePercent,
				wallet.NewDevPaymentSender(),
				wallet.NewDevTokenService(),
				ctn.Get("event.bus").(*event.Bus),
			)
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to create marketplace")
			}

			return market, nil
		},
	},
	{
		Name: "item.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewItemRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "sale.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewSaleRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "claim.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewClaimRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "projection",
		Build: func(ctn di.Container) (interface{}, error) {
			return projection.NewProjection(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "metadata",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()

			client := retryablehttp.NewClient()
			client.Logger = nil
			client.RetryMax = cfg.MetadataRetries
			client.HTTPClient.Timeout = time.Duration(cfg.IpfsTimeout) * time.Second

			return metadata.NewMetadataService(client, cfg.IpfsHosts), nil
		},
	},
	{
		Name: "messenger",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()

			sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.Aws.Region)})
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to create AWS session")
			}

			return messenger.NewMessenger(sess), nil
		},
	},
	{
		Name: "publisher",
		Build: func(ctn di.Container) (interface{}, error) {
			return messenger.NewPublisher(ctn.Get("messenger").(messenger.MessageService)), nil
		},
	},
	{
		Name: "api",
		Build: func(ctn di.Container) (interface{}, error) {
			return api.NewServer(
				ctn.Get("marketplace").(*ledger.Marketplace),
				ctn.Get("item.repo").(repository.ItemRepository),
				ctn.Get("sale.repo").(repository.SaleRepository),
				ctn.Get("claim.repo").(repository.ClaimRepository),
				ctn.Get("metadata").(metadata.Service),
				ctn.Get("elastic").(elastic_search.Index),
			), nil
		},
	},
}

type Dic struct {
	ctn di.Container
}

func NewCtx() *Dic {
	builder, err := di.NewBuilder()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to create DI builder")
	}

	if err := builder.Add(definitions...); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to register DI definitions")
	}

	return &Dic{ctn: builder.Build()}
}

func (d *Dic) GetElastic() elastic_search.Index {
	return d.ctn.Get("elastic").(elastic_search.Index)
}

func (d *Dic) GetEventBus() *event.Bus {
	return d.ctn.Get("event.bus").(*event.Bus)
}

func (d *Dic) GetMarketplace() *ledger.Marketplace {
	return d.ctn.Get("marketplace").(*ledger.Marketplace)
}

func (d *Dic) GetItemRepo() repository.ItemRepository {
	return d.ctn.Get("item.repo").(repository.ItemRepository)
}

func (d *Dic) GetSaleRepo() repository.SaleRepository {
	return d.ctn.Get("sale.repo").(repository.SaleRepository)
}

func (d *Dic) GetClaimRepo() repository.ClaimRepository {
	return d.ctn.Get("claim.repo").(repository.ClaimRepository)
}

func (d *Dic) GetProjection() projection.Projection {
	return d.ctn.Get("projection").(projection.Projection)
}

func (d *Dic) GetMetadata() metadata.Service {
	return d.ctn.Get("metadata").(metadata.Service)
}

func (d *Dic) GetPublisher() messenger.Publisher {
	return d.ctn.Get("publisher").(messenger.Publisher)
}

func (d *Dic) GetApi() api.Server {
	return d.ctn.Get("api").(api.Server)
}
