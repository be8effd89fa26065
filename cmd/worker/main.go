package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaoportuaria/backoffice/internal/billing"
	"github.com/gestaoportuaria/backoffice/internal/config"
	"github.com/gestaoportuaria/backoffice/internal/db"
	"github.com/gestaoportuaria/backoffice/internal/ogmo"
	"github.com/gestaoportuaria/backoffice/internal/tasks"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("worker encerrado com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	pool, err := db.NewPool(context.Background(), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}

	billingRepo := billing.NewRepository(pool)
	ogmoService := ogmo.NewService(ogmo.NewRepository(pool))
	billingService := billing.NewService(billingRepo, ogmoService, cfg.Billing.DiaVencimento)

	handler := tasks.NewBillingHandler(billingService, log.With().Str("component", "worker").Logger())

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 1,
		},
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC})

	// Lote mensal de mensalidades: dia 1 às 03:00 UTC.
	task, err := tasks.NewGerarMensalidadesTask(tasks.GerarMensalidadesPayload{})
	if err != nil {
		return fmt.Errorf("scheduler payload: %w", err)
	}
	if _, err := scheduler.Register("0 3 1 * *", task); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Msg("scheduler iniciado")
		errCh <- scheduler.Run()
	}()
	go func() {
		log.Info().Int("concurrency", 5).Msg("worker iniciado")
		errCh <- srv.Run(tasks.Mux(handler))
	}()

	return <-errCh
}
