package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cafe-orders/db"
	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/domain/invoice"
	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/domain/order"
	"github.com/xenking/cafe-orders/internal/domain/report"
	"github.com/xenking/cafe-orders/internal/handler"
	"github.com/xenking/cafe-orders/internal/seed"
	"github.com/xenking/cafe-orders/internal/storage/memory"
	"github.com/xenking/cafe-orders/internal/storage/postgres"
	"github.com/xenking/cafe-orders/internal/ws"
	"github.com/xenking/cafe-orders/pkg/health"
	"github.com/xenking/cafe-orders/pkg/httpmiddleware"
)

// Storage is the set of repositories backing the services.
type Storage struct {
	Orders order.Repository
	Menu   menu.Repository
	Staff  auth.Repository
	// Pinger reports backend reachability to the readiness probe.
	Pinger health.Pinger
	Close  func()
}

// OpenStorage connects the configured backend. Postgres is migrated on open.
func OpenStorage(ctx context.Context, cfg *Config) (*Storage, error) {
	if cfg.Backend == BackendMemory {
		orders := memory.NewStore()
		return &Storage{
			Orders: orders,
			Menu:   memory.NewMenuStore(),
			Staff:  memory.NewStaffStore(),
			Pinger: orders,
			Close:  func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return &Storage{
		Orders: postgres.NewOrderRepository(pool),
		Menu:   postgres.NewMenuRepository(pool),
		Staff:  postgres.NewStaffRepository(pool),
		Pinger: pool,
		Close:  pool.Close,
	}, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.Backend),
		zap.String("tz", cfg.TimeZone),
	)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := OpenStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck(cfg.Backend, 5*time.Second, health.PingCheck(store.Pinger))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	// Live order events.
	hub := ws.NewHub()
	go hub.Run(ctx)

	// Domain services.
	authService := auth.NewService(store.Staff, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	menuService := menu.NewService(store.Menu)
	orderService := order.NewService(store.Orders,
		order.WithLocation(loc),
		order.WithPublisher(hub),
		order.WithTelemetry(m.TracerProvider(), m.MeterProvider()),
	)

	if cfg.Seed {
		data, err := seed.Parse(db.SeedMenu)
		if err != nil {
			return errors.Wrap(err, "parse seed")
		}
		if _, err := seed.Apply(ctx, authService, menuService, data); err != nil {
			return errors.Wrap(err, "apply seed")
		}
	}

	h := handler.NewHandler(
		menuService,
		orderService,
		authService,
		invoice.NewComposer(cfg.BusinessName),
		report.NewExporter(loc),
		loc,
	)

	loginLimit := httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
		Max:     cfg.LoginRateLimit.Max,
		Window:  cfg.LoginRateLimit.Window,
		KeyFunc: httpmiddleware.PerRoute,
	})

	// Router: health endpoints, JSON API and the order event stream on one server.
	r := chi.NewRouter()
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	r.Route("/api", func(r chi.Router) {
		h.Register(r, loginLimit)
		r.Handle("/ws", ws.Handler(hub, authService))
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(r,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("cafe-api", m),
			httpmiddleware.LogRequests(),
		),
	}
	healthSvc.SetReady(true)

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
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
