// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vahan/internal/config"
	httptransport "vahan/internal/http"
	"vahan/internal/infra"
	"vahan/internal/maps"
	"vahan/internal/modules/booking"
	"vahan/internal/modules/location"
	"vahan/internal/modules/payment"
	"vahan/internal/modules/pricing"
	"vahan/internal/modules/vehicle"
	"vahan/internal/modules/wallet"
	"vahan/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var roads booking.RoadDistance
	if cfg.Maps.APIKey != "" {
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			slog.Error("maps client init failed", "err", err)
			os.Exit(1)
		}
		roads = routeSvc
	}

	pricingSvc := pricing.NewService(pricing.NewConfig(pricing.NewStore(dbPool)))
	vehicleStore := vehicle.NewPGStore(dbPool)

	locationStore := location.NewRedisStore(redisClient)
	locationSvc := location.NewService(locationStore)

	walletSvc := wallet.NewService(wallet.NewPGStore(dbPool))
	publisher := notify.NewRedisPublisher(redisClient)

	bookingStore := booking.NewPGStore(dbPool)
	dispatcher := booking.NewDispatcher(vehicleStore, bookingStore, locationSvc)
	bookingSvc := booking.NewService(
		bookingStore,
		booking.NewPGVerificationStore(dbPool),
		vehicleStore,
		pricingSvc,
		walletSvc,
		dispatcher,
		publisher,
		roads,
	)

	gateway := payment.NewGateway(cfg.Payments.KeyID, cfg.Payments.KeySecret)
	paymentSvc := payment.NewService(payment.NewPGStore(dbPool), gateway, bookingSvc, walletSvc)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Bookings:  bookingSvc,
		Locations: locationSvc,
		Payments:  paymentSvc,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	slog.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}
