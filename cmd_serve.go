package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/cache"
	"github.com/37vikanshu-dot/Mini-Drop/cart"
	"github.com/37vikanshu-dot/Mini-Drop/catalog"
	"github.com/37vikanshu-dot/Mini-Drop/checkout"
	"github.com/37vikanshu-dot/Mini-Drop/config"
	"github.com/37vikanshu-dot/Mini-Drop/coupon"
	"github.com/37vikanshu-dot/Mini-Drop/database"
	"github.com/37vikanshu-dot/Mini-Drop/events"
	"github.com/37vikanshu-dot/Mini-Drop/grpcserver"
	"github.com/37vikanshu-dot/Mini-Drop/handlers"
	"github.com/37vikanshu-dot/Mini-Drop/kafka"
	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/orderflow"
	"github.com/37vikanshu-dot/Mini-Drop/payment"
	"github.com/37vikanshu-dot/Mini-Drop/payout"
	"github.com/37vikanshu-dot/Mini-Drop/pricing"
	"github.com/37vikanshu-dot/Mini-Drop/rider"
	"github.com/37vikanshu-dot/Mini-Drop/store"
	"github.com/37vikanshu-dot/Mini-Drop/tracking"
)

const healthInterval = 15 * time.Second

// minidrop serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the gRPC health server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := boot()
		if err != nil {
			return err
		}
		defer log.Sync()
		return serve(cmd.Context(), cfg, log)
	},
}

// notifier logs the customer notification for every event when Kafka is
// not there to deliver events to the consumer.
type notifier struct {
	logger *zap.Logger
}

func (n notifier) Publish(ctx context.Context, event models.OrderEvent) error {
	kafka.Notify(ctx, event, n.logger)
	return nil
}

func openStore(cfg *config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := openDB(cfg, log)
		if err != nil {
			return nil, err
		}
		return database.NewPostgres(db, cfg.Pricing), nil
	default:
		mem := store.NewMemory(cfg.Pricing)
		if cfg.Store.SeedOnStart {
			mem.Seed(store.DemoData())
			log.Info("Memory store seeded with demo data")
		}
		return mem, nil
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting minidrop", cfg.LogFields()...)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize OpenTelemetry
	endpoint := ""
	if cfg.Tracing.Enabled {
		endpoint = cfg.Tracing.Endpoint
	}
	shutdownTracing, err := middleware.InitTracing(cfg.Server.Name, endpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	st, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	checks := map[string]func(context.Context) error{"store": st.Ping}

	// Redis holds the catalog cache and guest carts when enabled
	var (
		catalogCache catalog.Cache
		sessions     cart.SessionStore = cart.NewMemoryStore()
	)
	if cfg.Redis.Enabled {
		rdb, err := cache.InitRedis(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			return err
		}
		defer rdb.Close()
		catalogCache = cache.NewCatalogCache(rdb, cfg.Redis.CatalogTTL, log)
		sessions = cache.NewCartSessions(rdb, cfg.Redis.SessionTTL)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	hub := tracking.NewHub(log)
	var publisher events.Publisher = events.Multi{hub, notifier{logger: log}}
	if cfg.Kafka.Enabled {
		kcfg := kafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}

		syncProducer, err := kafka.InitProducer(kcfg, log)
		if err != nil {
			return err
		}
		producer := kafka.NewProducer(syncProducer, kcfg.Topic, log)
		defer producer.Close()

		consumer, err := kafka.InitConsumer(kcfg, log)
		if err != nil {
			return err
		}
		defer consumer.Close()

		// Events reach the tracking hub through the topic so every replica sees them
		publisher = producer
		go func() {
			if err := kafka.NewConsumer(consumer, kcfg.Topic, hub, log).Run(ctx); err != nil {
				log.Error("Kafka consumer error", zap.Error(err))
			}
		}()
	}

	catalogSvc := catalog.NewService(st, catalogCache, log)
	pricingSvc := pricing.NewService(st, log)
	gateway := payment.NewGateway(payment.Config{
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		BaseURL:   cfg.Payment.BaseURL,
		Timeout:   cfg.Payment.Timeout,
	}, log)
	if gateway.Mock() {
		log.Warn("Payment gateway keys not configured, using mock gateway orders")
	}
	engine := checkout.NewEngine(catalogSvc, pricingSvc, st, sessions, gateway, publisher, checkout.Config{
		ShopDeliveryFee: cfg.Checkout.ShopDeliveryFee,
		CODPending:      cfg.Checkout.CODPending,
	}, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Dependencies{
		ServiceName: cfg.Server.Name,
		Auth:        middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Catalog:     catalogSvc,
		Sessions:    sessions,
		Coupons:     coupon.NewService(st, log),
		Checkout:    engine,
		Orders:      st,
		OrderFlow:   orderflow.NewService(st, publisher, log),
		Riders:      rider.NewService(st, st, publisher, cfg.Checkout.RiderEarning, log),
		Payouts:     payout.NewService(st, cfg.Checkout.CommissionRate),
		Pricing:     pricingSvc,
		Hub:         hub,
		Checks:      checks,
		Logger:      log,
	})

	// Start REST server
	restSrv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	go func() {
		if err := restSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("REST server failed", zap.Error(err))
			cancel()
		}
	}()
	log.Info("REST API started", zap.String("addr", restSrv.Addr))

	// Start gRPC server
	grpcListener, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen on gRPC port: %w", err)
	}
	grpcSrv := grpcserver.New(checks, healthInterval, log)
	go func() {
		if err := grpcSrv.Serve(ctx, grpcListener); err != nil {
			log.Error("gRPC server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := restSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("REST server forced to shutdown", zap.Error(err))
	}
	grpcSrv.Stop()

	log.Info("Servers exited")
	return nil
}
