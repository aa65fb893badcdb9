package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dappmarket/market-ledger/internal/config"
	"github.com/dappmarket/market-ledger/internal/config/di"
	"github.com/dappmarket/market-ledger/internal/elastic_search"
	"github.com/dappmarket/market-ledger/internal/event"
	"go.uber.org/zap"
)

var container *di.Dic

func main() {
	config.Init("marketd")
	container = di.NewCtx()

	elastic := container.GetElastic()
	elastic.InstallMappings()

	wireListeners()

	go persist(elastic)

	server := &http.Server{
		Addr:    ":" + config.Get().ApiPort,
		Handler: container.GetApi().Router(),
	}

	go func() {
		zap.L().With(zap.String("port", config.Get().ApiPort)).Info("Api: Listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().With(zap.Error(err)).Fatal("Api: Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zap.L().Info("Marketd: Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Shutdown failed")
	}

	// flush whatever the read model still buffers
	elastic.Persist()
}

func wireListeners() {
	bus := container.GetEventBus()

	projection := container.GetProjection()
	bus.AddEventListener(event.ItemOfferedEvent, projection.OnItemOffered)
	bus.AddEventListener(event.ItemBoughtEvent, projection.OnItemBought)
	bus.AddEventListener(event.ItemOnSaleEvent, projection.OnItemOnSale)
	bus.AddEventListener(event.FundsClaimedEvent, projection.OnFundsClaimed)

	if config.Get().Queue.Enabled {
		publisher := container.GetPublisher()
		bus.AddEventListener(event.ItemBoughtEvent, publisher.OnItemBought)
		bus.AddEventListener(event.FundsClaimedEvent, publisher.OnFundsClaimed)
	}
}

// persist flushes buffered read-model writes that never reached the bulk
// threshold on their own.
func persist(elastic elastic_search.Index) {
	for range time.Tick(5 * time.Second) {
		elastic.Persist()
	}
}
