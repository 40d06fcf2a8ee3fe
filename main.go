package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-api/config"
	"restaurant-api/events"
	"restaurant-api/logger"
	"restaurant-api/metrics"
	"restaurant-api/middleware"
	"restaurant-api/routes"
	"restaurant-api/seed"
	"restaurant-api/services"
	"restaurant-api/store"
	"restaurant-api/store/mongostore"
	"restaurant-api/store/sqlstore"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	runSeed := flag.Bool("seed", false, "insert the sample menu and admin account, then exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := run(cfg, *runSeed, log); err != nil {
		log.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, runSeed bool, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info("store ready", slog.String("driver", cfg.Database.Driver))

	auth := services.NewAuthService(st,
		services.WithRegistration(cfg.Auth.AllowRegistration),
		services.WithAuthLogger(log),
	)
	menu := services.NewMenuService(st, log)

	if runSeed {
		_, err := seed.Run(ctx, menu, auth, os.Getenv("SEED_ADMIN_PASSWORD"), log)
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
		log.Info("publishing order events", slog.String("exchange", cfg.AMQP.Exchange))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	orders := services.NewOrderService(st, st,
		services.WithStrictTransitions(cfg.Orders.StrictTransitions),
		services.WithPublisher(publisher),
		services.WithMetrics(m),
		services.WithLogger(log),
	)

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}
	router := routes.NewRouter(routes.Deps{
		Orders:    orders,
		Menu:      menu,
		Auth:      auth,
		Tokens:    middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Store:     st,
		Metrics:   m,
		Log:       log,
		ClientURL: cfg.Server.ClientURL,
		Strict:    cfg.Orders.StrictTransitions,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", slog.Any("error", err))
		}
		cancel()
	}()

	log.Info("server listening", slog.String("addr", server.Addr), slog.Bool("strict_transitions", cfg.Orders.StrictTransitions))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	<-ctx.Done()
	return nil
}

func openStore(ctx context.Context, db config.Database) (store.Store, error) {
	if db.Driver == config.DriverMongo {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		s, err := mongostore.Open(connectCtx, db.MongoURI, db.MongoDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	gdb, err := config.OpenGorm(db)
	if err != nil {
		return nil, err
	}
	s := sqlstore.New(gdb)
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
