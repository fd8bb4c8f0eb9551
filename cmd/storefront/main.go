package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/cart"
	"github.com/aaravmahajanofficial/storefront/internal/checkout"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/discount"
	"github.com/aaravmahajanofficial/storefront/internal/health"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/observability"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/pkg/sendGrid"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const version = "1.0.0"

func main() {

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.Otel, cfg.Env)
	if err != nil {
		slog.Error("❌ Error initialising tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	policy, err := checkout.ParsePolicy(cfg.Checkout.DiscountPolicy)
	if err != nil {
		slog.Error("❌ Invalid checkout configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos, productRepo, orderRepo, err := repository.New(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	redisClient, err := repository.NewRedisClient(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	store := cache.NewRedisCache(redisClient, &cfg.Cache)
	validate := validator.New()

	var emailService sendGrid.EmailService
	if cfg.SendGrid.APIKey != "" {
		emailService = sendGrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	} else {
		slog.Warn("SendGrid API key not set, order confirmation e-mails are disabled")
	}

	sessions := cart.NewSessions(store,
		cart.WithTTL(cfg.Cart.SnapshotTTL),
		cart.WithKeyPrefix(cfg.Cart.KeyPrefix),
		cart.WithLogger(slog.Default().With(slog.String("component", "cart"))),
	)

	productService := service.NewProductService(productRepo, store, cfg.Cache.DefaultTTL)
	cartService := service.NewCartService(sessions, productService)
	orderService := service.NewOrderService(orderRepo, cfg.Checkout)
	notificationService := service.NewNotificationService(emailService)
	checkoutService := service.NewCheckoutService(cartService, discount.NewStore(store, cfg.Cart.SnapshotTTL), orderService,
		notificationService, validate, service.CheckoutSettings{
			SubmitTimeout: cfg.Checkout.SubmitTimeout,
			Policy:        policy,
		})

	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService, validate)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, validate)
	orderHandler := handlers.NewOrderHandler(orderService)

	session := middleware.NewSession(cfg.Security, cfg.Env == "production")
	sessionHandler := handlers.NewSessionHandler(checkoutService, session)
	limiter := repository.NewRateLimitRepo(redisClient, &cfg.RateConfig)

	healthHandler, err := health.NewHealthHandler(cfg, version)
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	withSession := func(h http.HandlerFunc) http.Handler { return session.Handler(h) }
	throttled := func(h http.HandlerFunc) http.Handler { return session.Handler(middleware.SubmitRateLimit(limiter, h)) }

	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{slug}", productHandler.GetProduct())
	routerMux.Handle("GET /api/v1/cart", withSession(cartHandler.GetCart()))
	routerMux.Handle("POST /api/v1/cart/items", withSession(cartHandler.AddItem()))
	routerMux.Handle("PUT /api/v1/cart/items/{id}", withSession(cartHandler.UpdateQuantity()))
	routerMux.Handle("DELETE /api/v1/cart/items/{id}", withSession(cartHandler.RemoveItem()))
	routerMux.Handle("DELETE /api/v1/cart", withSession(cartHandler.ClearCart()))
	routerMux.Handle("GET /api/v1/checkout", withSession(checkoutHandler.GetCheckout()))
	routerMux.Handle("PUT /api/v1/checkout/billing", withSession(checkoutHandler.UpdateBilling()))
	routerMux.Handle("PUT /api/v1/checkout/discount", withSession(checkoutHandler.ApplyDiscount()))
	routerMux.Handle("POST /api/v1/checkout/submit", throttled(checkoutHandler.Submit()))
	routerMux.Handle("POST /api/v1/checkout/confirm", throttled(checkoutHandler.Confirm()))
	routerMux.Handle("GET /api/v1/orders/{id}", withSession(orderHandler.GetOrder()))
	routerMux.Handle("DELETE /api/v1/session", withSession(sessionHandler.EndSession()))
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())

	// metrics must wrap the mux directly to see the matched pattern
	var handler http.Handler = metrics.Middleware(routerMux)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "storefront")

	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr), slog.String("env", cfg.Env), slog.String("discountPolicy", string(policy)))

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Checkout.SubmitTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("⚠️ Failed to flush traces", slog.String("error", err.Error()))
	}
}
