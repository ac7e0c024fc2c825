package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/config"
	"clinic-scheduling-api/internal/events"
	"clinic-scheduling-api/internal/grpcweb"
	"clinic-scheduling-api/internal/handler"
	"clinic-scheduling-api/internal/locker"
	"clinic-scheduling-api/internal/logging"
	"clinic-scheduling-api/internal/metrics"
	"clinic-scheduling-api/internal/middleware"
	"clinic-scheduling-api/internal/rest"
	"clinic-scheduling-api/internal/rpc"
	"clinic-scheduling-api/internal/scheduling"
	"clinic-scheduling-api/internal/store"
)

// backend is everything the service needs from persistence.
type backend interface {
	scheduling.Store
	scheduling.Directory
	handler.Accounts
	seeder
	Ping(ctx context.Context) error
}

func run(parent context.Context, cfg *config.Config, demo bool, demoPassword string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	m := metrics.New()

	db, closeDB, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	if demo {
		if err := seedDemo(ctx, db, demoPassword); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		log.Info().Msg("demo accounts seeded")
	}

	opts := []scheduling.Option{
		scheduling.WithPolicy(cfg.Policy()),
		scheduling.WithMetrics(m),
		scheduling.WithLogger(log.With().Str("component", "scheduling").Logger()),
	}
	if cfg.RedisURL != "" {
		rdb, err := locker.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, scheduling.WithLocker(locker.NewRedis(rdb), cfg.SlotLockTTL))
		log.Info().Msg("redis slot lock enabled")
	}
	if cfg.AMQPURL != "" {
		pub, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts = append(opts, scheduling.WithPublisher(pub))
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("event publishing enabled")
	}
	engine := scheduling.New(db, db, opts...)

	tokens := auth.NewAuthority(cfg.JWTSecret, cfg.TokenTTL)
	h := handler.New(engine, db, tokens,
		handler.WithMetrics(m),
		handler.WithLogger(log.With().Str("component", "handler").Logger()),
	)
	authz := middleware.NewAuthorizer(auth.NewGate(tokens), cfg.PublicAvailability, time.Now)
	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)

	srv := grpc.NewServer(
		grpc.ForceServerCodec(rpc.Codec{}),
		grpc.ChainUnaryInterceptor(
			middleware.Logger(log, m),
			middleware.RateLimit(limiter),
			authz.Unary(),
		),
	)
	rpc.RegisterScheduleServiceServer(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	conn, err := grpcweb.Dial("localhost:" + cfg.GRPCPort)
	if err != nil {
		return err
	}
	defer conn.Close()

	httpSrv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: rest.NewRouter(rest.Config{
			Handler:     h,
			Authorizer:  authz,
			Limiter:     limiter,
			Metrics:     m,
			Log:         log,
			CORSOrigins: cfg.CORSOrigins,
			GRPCWeb:     grpcweb.New(conn, log),
			Ping:        db.Ping,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		log.Info().Str("addr", lis.Addr().String()).Msg("grpc listening")
		errc <- srv.Serve(lis)
	}()
	go func() {
		log.Info().Str("addr", httpSrv.Addr).Msg("http listening")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		log.Error().Err(err).Msg("server stopped")
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	srv.GracefulStop()
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (backend, func(), error) {
	if cfg.InMemory() {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		return store.NewMemory(cfg.Policy()), func() {}, nil
	}
	pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	n, err := store.Migrate(ctx, pool, cfg.Policy())
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Int("applied", n).Msg("connected to postgres")
	return store.New(pool), pool.Close, nil
}
