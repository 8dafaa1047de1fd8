// Package app wires the teahouse API server together.
package app

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/teahouse-backend/internal/domain/checkout"
	"github.com/xenking/teahouse-backend/internal/domain/discount"
	"github.com/xenking/teahouse-backend/internal/domain/order"
	"github.com/xenking/teahouse-backend/internal/domain/product"
	"github.com/xenking/teahouse-backend/internal/events"
	"github.com/xenking/teahouse-backend/internal/handler"
	"github.com/xenking/teahouse-backend/internal/payment"
	"github.com/xenking/teahouse-backend/internal/payment/stripepay"
	"github.com/xenking/teahouse-backend/internal/store"
	"github.com/xenking/teahouse-backend/pkg/health"
	"github.com/xenking/teahouse-backend/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store.Driver))

	backend, closeStore, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()
	if cfg.Store.Driver == DriverMemory {
		lg.Warn("Using in-memory store, data is lost on restart")
	}

	st, err := store.Instrument(backend, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "instrument store")
	}

	publisher, closePublisher := newPublisher(lg, cfg.Kafka)
	defer closePublisher()

	srv, err := newServer(zctx.Base(ctx, lg), cfg, st, publisher, newProcessor(lg, cfg.Stripe), m)
	if err != nil {
		return err
	}
	healthSvc := srv.health
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	httpServer := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           srv.handler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

type server struct {
	health  *health.Health
	handler http.Handler
}

// newServer builds the domain services and the HTTP handler chain over st.
// The returned health service is not started.
func newServer(
	ctx context.Context,
	cfg *Config,
	st store.Store,
	publisher events.Publisher,
	processor payment.Processor,
	t httpmiddleware.Telemetry,
) (*server, error) {
	healthSvc := health.New()
	if p, ok := st.(health.Pinger); ok {
		healthSvc.AddReadinessCheck("store", 5*time.Second, health.PingCheck(p))
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	catalog := product.NewCatalog(product.NewCollection(st))
	discounts := discount.NewManager(discount.NewCollection(st))
	orders := order.NewManager(order.NewCollection(st), publisher)
	checkoutSvc := checkout.NewService(checkout.Config{
		Currency:       cfg.Stripe.Currency,
		VerifyPayments: cfg.Stripe.VerifyPayments,
	}, processor, orders, discounts)

	// Seed the menu before traffic arrives.
	if _, err := catalog.List(ctx); err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	mux.HandleFunc("GET /health", healthSvc.StatusEndpoint)
	handler.NewHandler(catalog, discounts, orders, checkoutSvc).
		Register(mux, handler.AdminAuth(cfg.AdminToken))

	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	return &server{
		health: healthSvc,
		handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "Stripe-Signature"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Skip:   exemptFromRateLimit,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("teahouse-api", routeFinder, t),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}, nil
}

// exemptFromRateLimit skips probes and processor webhooks.
func exemptFromRateLimit(r *http.Request) bool {
	switch r.URL.Path {
	case "/livez", "/readyz", "/health", "/api/webhook":
		return true
	}
	return false
}

func newProcessor(lg *zap.Logger, cfg StripeConfig) payment.Processor {
	if cfg.SecretKey == "" {
		lg.Warn("Stripe secret key is not set, payment endpoints are disabled")
		return payment.Unconfigured{}
	}
	if strings.HasPrefix(cfg.SecretKey, "sk_test_") {
		lg.Info("Using Stripe test mode")
	}
	return stripepay.New(stripepay.Config{
		SecretKey:     cfg.SecretKey,
		WebhookSecret: cfg.WebhookSecret,
	}, lg)
}

func newPublisher(lg *zap.Logger, cfg KafkaConfig) (events.Publisher, func()) {
	if len(cfg.Brokers) == 0 {
		return events.Nop{}, func() {}
	}
	lg.Info("Publishing order events", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	p := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
	return p, closer(lg, "kafka publisher", p)
}

func closer(lg *zap.Logger, name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			lg.Warn("Close "+name, zap.Error(err))
		}
	}
}
