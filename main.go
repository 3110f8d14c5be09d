package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/store"
)

func main() {
	config.Load()
	cfg := config.AppEnv

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	log.Logger = logger

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo connect failed")
	}
	db := client.Database(cfg.DBName)
	logger.Info().Str("db", db.Name()).Msg("mongo connected")

	if err := database.EnsureIndexes(db, logger); err != nil {
		logger.Fatal().Err(err).Msg("index setup failed")
	}

	catalogStore := store.NewCatalogStore(db)
	cartStore := store.NewCartStore(db)
	addressStore := store.NewAddressStore(db)
	orderStore := store.NewOrderStore(db)

	carts := service.NewCartService(catalogStore, cartStore, logger)
	addresses := service.NewAddressService(addressStore, logger)
	catalog := service.NewCatalogService(catalogStore, logger)
	orders := service.NewOrderService(service.OrderDeps{
		Catalog:   catalogStore,
		Stock:     catalogStore,
		Carts:     cartStore,
		Addresses: addressStore,
		Orders:    orderStore,
		Locks:     store.NewCheckoutLocks(db),
		Tx:        store.NewTransactor(client, cfg.MongoTransactions),
	}, service.CheckoutPolicy{
		Pricing: service.PricingPolicy{
			DeliveryFee:           cfg.DeliveryFee,
			FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
		},
		LockTTL: cfg.CheckoutLockTTL,
	}, logger)
	orderQueries := service.NewOrderQueryService(orderStore, catalogStore, cfg.RestockOnCancel, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(middleware.RequestLogger(logger))

	r.GET("/health", handlers.Health(func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}))

	userAuth := middleware.UserAuth(cfg.JWTSecret, logger)
	adminAuth := middleware.AdminAuth(cfg.JWTSecret, logger)

	cart := r.Group("/cart")
	cart.Use(userAuth)
	{
		cart.POST("/create", handlers.AddToCart(carts))
		cart.GET("", handlers.GetCart(carts))
		cart.PUT("/update-qty", handlers.UpdateCartQuantity(carts))
		cart.DELETE("/remove/:cartItemId", handlers.RemoveCartItem(carts))
		cart.DELETE("/clear", handlers.ClearCart(carts))
	}

	order := r.Group("/order")
	order.Use(userAuth)
	{
		order.POST("/create", handlers.CreateOrder(orders))
		order.GET("/my-orders", handlers.GetMyOrders(orderQueries))
		order.GET("/admin/all", middleware.RequireRole(middleware.RoleAdmin), handlers.GetAdminOrders(orderQueries))
		order.PATCH("/:orderId/status", middleware.RequireRole(middleware.RoleAdmin), handlers.UpdateOrderStatus(orderQueries))
		order.GET("/:orderId", handlers.GetOrderDetails(orderQueries))
	}

	address := r.Group("/address")
	address.Use(userAuth)
	{
		address.POST("/create", handlers.CreateAddress(addresses))
		address.GET("", handlers.GetAddresses(addresses))
		address.PUT("/:addressId", handlers.UpdateAddress(addresses))
		address.DELETE("/:addressId", handlers.DeleteAddress(addresses))
		address.PATCH("/:addressId", handlers.DeleteAddress(addresses))
	}

	product := r.Group("/product")
	{
		product.POST("/create", adminAuth, handlers.CreateProduct(catalog))
		product.GET("", handlers.GetProducts(catalog))
		product.GET("/category/:categorySlug", handlers.GetProductsByCategory(catalog))
		product.GET("/:slug/:subCategorySlug", handlers.GetProductsByCategoryAndSub(catalog))
		product.GET("/:slug", handlers.GetProductBySlug(catalog))
		product.PUT("/:productId/variant/:variantId/stock", adminAuth, handlers.SetVariantStock(catalog))
		product.DELETE("/:productId", adminAuth, handlers.DeleteProduct(catalog))
	}

	category := r.Group("/category")
	{
		category.GET("", handlers.GetCategories(catalog))
		category.GET("/sub", handlers.GetSubCategories(catalog))
		category.POST("/create", adminAuth, handlers.CreateCategory(catalog))
		category.POST("/sub/create", adminAuth, handlers.CreateSubCategory(catalog))
	}

	serve(r, client, cfg.Port)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", handlers.HeaderIdempotencyKey, middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// serve blocks until SIGINT or SIGTERM, then drains in-flight requests.
func serve(r *gin.Engine, client *mongo.Client, port string) {
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	log.Info().Msg("server stopped")
}
