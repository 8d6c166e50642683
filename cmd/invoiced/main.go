package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yzzyx/invoice/internal/config"
	"github.com/yzzyx/invoice/internal/customers"
	"github.com/yzzyx/invoice/internal/invoice"
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

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicInvoiceRendered, 1024)
	prod.Start(ctx)

	svc := &invoice.Service{
		Orders:      &orders.Repo{DB: db},
		Customers:   &customers.Repo{DB: db},
		Renderer:    &invoice.Renderer{Dir: cfg.InvoiceDir},
		Redis:       rdb,
		Producer:    prod,
		ServiceName: cfg.ServiceName + "-invoiced",
	}

	group := getenv("INVOICED_GROUP", "invoiced")
	workers := mustAtoi(os.Getenv("INVOICED_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderCommitted, workers)

	go func() {
		log.Info().Str("group", group).Str("topic", orders.TopicOrderCommitted).
			Int("workers", workers).Msg("invoice consumer started")
		if err := cons.Start(ctx, svc.HandleOrderCommitted); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
