package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yzzyx/invoice/internal/catalog"
	"github.com/yzzyx/invoice/internal/config"
	"github.com/yzzyx/invoice/internal/customers"
	"github.com/yzzyx/invoice/internal/draft"
	"github.com/yzzyx/invoice/internal/httpx"
	kafkax "github.com/yzzyx/invoice/internal/kafka"
	"github.com/yzzyx/invoice/internal/orders"
	"github.com/yzzyx/invoice/internal/postgres"
	"github.com/yzzyx/invoice/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCommitted, 1024)
	prod.Start(ctx)

	catalogRepo := &catalog.Repo{DB: db}
	customerRepo := &customers.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}

	router := httpx.NewRouter()
	(&httpx.ListingHandler{
		Catalog:   catalogRepo,
		Customers: customerRepo,
		Orders:    orderRepo,
		Redis:     rdb,
	}).Register(router)
	(&httpx.DraftsHandler{
		Catalog:  catalogRepo,
		Orders:   orderRepo,
		Sessions: draft.NewSessions(),
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // stop intake, flush, close writer
	prod.WaitClosed()
}
