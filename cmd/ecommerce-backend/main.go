package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/parfumarie/ecommerce-backend/internal/api/handlers"
	"github.com/parfumarie/ecommerce-backend/internal/api/middleware"
	"github.com/parfumarie/ecommerce-backend/internal/cache"
	"github.com/parfumarie/ecommerce-backend/internal/config"
	"github.com/parfumarie/ecommerce-backend/internal/health"
	"github.com/parfumarie/ecommerce-backend/internal/metrics"
	repository "github.com/parfumarie/ecommerce-backend/internal/repositories"
	service "github.com/parfumarie/ecommerce-backend/internal/services"
	"github.com/parfumarie/ecommerce-backend/internal/telemetry"
	"github.com/parfumarie/ecommerce-backend/pkg/sendgrid"
	"github.com/parfumarie/ecommerce-backend/pkg/stripe"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	shutdownTracing, err := telemetry.Setup(context.Background(), &cfg.Telemetry)
	if err != nil {
		slog.Error("Failed to initialize tracing", slog.Any("error", err))
		os.Exit(1)
	}

	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("Failed to connect to the database", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		}
	}()

	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("Failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("Error closing redis connection", slog.Any("error", err))
		}
	}()

	rateLimitRepo := repository.NewRateLimitRepo(redisClient, cfg)
	productCache := cache.NewRedisCache(redisClient, &cfg.Cache)

	stripeClient := stripe.NewClient(cfg.Stripe.APIKey)
	emailService := sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	userService := service.NewUserService(repos.User, rateLimitRepo, cfg)
	productService := service.NewProductService(repos.Product, productCache, logger)
	cartService := service.NewCartService(repos.Cart, repos.Product)
	checkoutService := service.NewCheckoutService(repos.Cart, repos.Order, repos.User, emailService, logger)
	orderService := service.NewOrderService(repos.Order)
	paymentService := service.NewPaymentService(repos.Payment, repos.Order, stripeClient, cfg.Stripe.DefaultCurrency)

	userHandler := handlers.NewUserHandler(userService, &cfg.Security)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(checkoutService, orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey), cfg.Security.SessionCookie)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("Failed to create health handler", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	routerMux := http.NewServeMux()

	routerMux.HandleFunc("POST /api/v1/users/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/v1/users/login", userHandler.Login())
	routerMux.HandleFunc("POST /api/v1/users/logout", userHandler.Logout())
	routerMux.HandleFunc("GET /api/v1/users/profile", authMiddleware.Authenticate(userHandler.Profile()))

	routerMux.HandleFunc("POST /api/v1/products", authMiddleware.Authenticate(productHandler.CreateProduct()))
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct())
	routerMux.HandleFunc("GET /api/v1/products/slug/{slug}", productHandler.GetProductBySlug())
	routerMux.HandleFunc("PUT /api/v1/products/{id}", authMiddleware.Authenticate(productHandler.UpdateProduct()))

	routerMux.HandleFunc("GET /api/v1/cart", authMiddleware.Authenticate(cartHandler.GetCart()))
	routerMux.HandleFunc("POST /api/v1/cart/items", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/cart/items/{product_id}", authMiddleware.Authenticate(cartHandler.UpdateItem()))
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{product_id}", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("DELETE /api/v1/cart", authMiddleware.Authenticate(cartHandler.ClearCart()))

	routerMux.HandleFunc("POST /api/v1/checkout", authMiddleware.Authenticate(orderHandler.Checkout()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.GetOrder()))

	routerMux.HandleFunc("POST /api/v1/payments", authMiddleware.Authenticate(paymentHandler.CreatePayment()))
	routerMux.HandleFunc("GET /api/v1/payments/{id}", authMiddleware.Authenticate(paymentHandler.GetPayment()))

	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "http.server")

	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("Server is starting", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Failed to start server", slog.Any("error", err))
		}
	}()

	<-done

	slog.Warn("Shutdown signal received, stopping the server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown encountered an issue", slog.Any("error", err))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("Tracing shutdown encountered an issue", slog.Any("error", err))
	}
}
