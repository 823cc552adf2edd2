package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/havenline/sensorvitals/internal/config"
	"github.com/havenline/sensorvitals/internal/escalation"
	"github.com/havenline/sensorvitals/internal/httpapi"
	"github.com/havenline/sensorvitals/internal/logging"
	"github.com/havenline/sensorvitals/internal/notify"
	"github.com/havenline/sensorvitals/internal/repo"
	"github.com/havenline/sensorvitals/internal/repo/memory"
	"github.com/havenline/sensorvitals/internal/repo/postgres"
	"github.com/havenline/sensorvitals/internal/vitals"
)

type dataStore interface {
	repo.LocationStore
	repo.VitalStore
	repo.TxBeginner
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store dataStore
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		store = pg
	} else {
		logger.Warn("memory_store_in_use")
		store = memory.New()
	}

	notifier := notify.NewSMSGateway(cfg.SMSGatewayURL, cfg.SMSGatewayKey)
	if notifier == nil {
		logger.Warn("sms_gateway_disabled")
	}

	throttler := vitals.NewThrottler(logger, store, store, notifier, cfg.LowBatteryTimeout)
	esc := escalation.NewHandler(logger, store, store, notifier)
	sweeper := vitals.NewSweeper(logger, store, store, notifier, vitals.SweeperConfig{
		DoorThreshold:       cfg.DoorThreshold,
		RadarThreshold:      cfg.RadarThreshold,
		SubsequentVitalsGap: cfg.SubsequentVitalsGap,
		Interval:            cfg.SweepInterval,
	})
	go sweeper.Run(ctx)

	api := httpapi.NewServer(logger, store, store, throttler, esc)
	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	logger.Info("api_stopped")
}
