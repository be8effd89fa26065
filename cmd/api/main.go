package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaoportuaria/backoffice/internal/alerta"
	"github.com/gestaoportuaria/backoffice/internal/auth"
	"github.com/gestaoportuaria/backoffice/internal/cadastro"
	"github.com/gestaoportuaria/backoffice/internal/config"
	"github.com/gestaoportuaria/backoffice/internal/db"
	internalhttp "github.com/gestaoportuaria/backoffice/internal/http"
	"github.com/gestaoportuaria/backoffice/internal/ogmo"
	"github.com/gestaoportuaria/backoffice/internal/repo"
	"github.com/gestaoportuaria/backoffice/internal/service"
	"github.com/gestaoportuaria/backoffice/internal/tasks"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	repository := repo.New(pool)
	ogmoRepo := ogmo.NewRepository(pool)
	ogmoService := ogmo.NewService(ogmoRepo)
	cadastroRepo := cadastro.NewRepository(pool)
	cadastroService := cadastro.NewService(cadastroRepo, log.With().Str("component", "cadastro").Logger())

	alertaService := alerta.NewService(alerta.NewRepository(pool), log.With().Str("component", "alerta").Logger())

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(repository, redisClient, jwtManager, ogmoService, cadastroService, cfg.JWTRefreshTTL)
	userService := service.NewUserService(pool, repository, ogmoRepo, cadastroRepo, alertaService)

	tasksClient, err := tasks.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("tasks: %w", err)
	}
	defer tasksClient.Close()

	handler, err := internalhttp.NewRouter(cfg, pool, redisClient, authService, userService, tasksClient)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
