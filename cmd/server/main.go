package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/config"
	"github.com/jos3lo89/ice-mankora-backend/internal/infra"
	"github.com/jos3lo89/ice-mankora-backend/internal/repository"
	"github.com/jos3lo89/ice-mankora-backend/internal/router"
	"github.com/jos3lo89/ice-mankora-backend/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger, pretty console output
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Async pipeline (composition root): printing, SUNAT submission, email.
	// One circuit breaker per outbound service.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	printerClient := infra.NewPrinterClient(cfg.PrinterBridgeURL)
	sunatClient := infra.NewSunatClient(cfg.SunatServiceURL)
	mailer := infra.NewMailer(cfg)
	printerCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	dispatcher := worker.NewDispatcher(rdb)
	comandaRepo := repository.NewComandaRepository(db)
	ventaRepo := repository.NewVentaRepository(db)

	impresionWorker := worker.NewImpresionWorker(comandaRepo, printerClient, printerCB, rdb)
	handlers := worker.WorkerHandlers{
		Impresion: impresionWorker,
		Sunat:     worker.NewSunatWorker(sunatClient, ventaRepo, dispatcher, rdb, cfg.PDFStoragePath),
		Email:     worker.NewEmailWorker(mailer, rdb),
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		ComandaRepo: comandaRepo,
		Impresion:   impresionWorker,
		CB:          printerCB,
	})

	r := router.New(cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("ice-mankora backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
