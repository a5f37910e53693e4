package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	analyticsapp "github.com/markethub/backend/internal/application/analytics"
	billingapp "github.com/markethub/backend/internal/application/billing"
	catalogapp "github.com/markethub/backend/internal/application/catalog"
	eventapp "github.com/markethub/backend/internal/application/event"
	identityapp "github.com/markethub/backend/internal/application/identity"
	orderingapp "github.com/markethub/backend/internal/application/ordering"
	partnerapp "github.com/markethub/backend/internal/application/partner"
	reviewapp "github.com/markethub/backend/internal/application/review"
	searchapp "github.com/markethub/backend/internal/application/search"
	billingdomain "github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/identity"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/infrastructure/auth"
	"github.com/markethub/backend/internal/infrastructure/cache"
	"github.com/markethub/backend/internal/infrastructure/config"
	"github.com/markethub/backend/internal/infrastructure/event"
	"github.com/markethub/backend/internal/infrastructure/logger"
	"github.com/markethub/backend/internal/infrastructure/payment"
	"github.com/markethub/backend/internal/infrastructure/persistence"
	"github.com/markethub/backend/internal/infrastructure/scheduler"
	"github.com/markethub/backend/internal/infrastructure/storage"
	"github.com/markethub/backend/internal/infrastructure/telemetry"
	"github.com/markethub/backend/internal/interfaces/http/handler"
	"github.com/markethub/backend/internal/interfaces/http/middleware"
	"github.com/markethub/backend/internal/interfaces/http/router"

	_ "github.com/markethub/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			MarketHub Backend API
//	@version		1.0
//	@description	Multi-tenant marketplace backend API - order lifecycle, subscription billing, catalog, partners, reviews, search and analytics
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/markethub/backend
//	@contact.email	support@markethub.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting MarketHub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// OpenTelemetry tracing and metrics (no-op providers when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Business metrics over the marketplace aggregates. The periodic
	// collector samples subscription counts and low-stock products for
	// every active tenant.
	if cfg.Telemetry.Enabled {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:    meterProvider.Meter("markethub-business"),
			Logger:   log,
			Provider: telemetry.NewGormMarketplaceMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		businessMetrics.StartPeriodicCollection(context.Background(),
			telemetry.NewGormTenantProvider(db.DB), 5*time.Minute)
		defer businessMetrics.Stop()
	}

	// Database query tracing via otelgorm
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	productSearchRepo := persistence.NewGormProductSearchRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	vendorRepo := persistence.NewGormVendorRepository(db.DB)
	vendorSearchRepo := persistence.NewGormVendorSearchRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	orderStatsRepo := persistence.NewGormOrderStatsRepository(db.DB)
	planRepo := persistence.NewGormPlanRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	usageRecordRepo := persistence.NewGormUsageRecordRepository(db.DB)
	reviewRepo := persistence.NewGormProductReviewRepository(db.DB)
	recommendationRepo := persistence.NewGormRecommendationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Object storage for product images and vendor branding assets
	var objectStorage shared.ObjectStorage
	if cfg.Storage.Provider == "s3" {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize S3 object storage", zap.Error(err))
		}
		objectStorage = s3Storage
		log.Info("S3 object storage initialized",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("region", cfg.Storage.Region),
		)
	} else {
		objectStorage = storage.NewStubObjectStorage()
		log.Warn("Using stub object storage; uploads return placeholder URLs")
	}

	// Payment gateway for subscription renewals
	var paymentGateway billingdomain.PaymentGateway
	if cfg.Payment.Provider == "stripe" {
		stripeGateway, err := payment.NewStripeGateway(&cfg.Payment, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe gateway", zap.Error(err))
		}
		paymentGateway = stripeGateway
		log.Info("Stripe payment gateway initialized", zap.Bool("test_mode", cfg.Payment.StripeTestMode))
	} else {
		paymentGateway = payment.NewSimulatedGateway(log)
		log.Info("Simulated payment gateway initialized")
	}

	clock := shared.NewSystemClock()

	// Initialize application services
	productService := catalogapp.NewProductService(productRepo, categoryRepo, vendorRepo, objectStorage, clock)
	categoryService := catalogapp.NewCategoryService(categoryRepo, productRepo, clock)
	vendorService := partnerapp.NewVendorService(vendorRepo, objectStorage, clock)
	customerService := partnerapp.NewCustomerService(customerRepo, clock)
	orderService := orderingapp.NewOrderService(orderRepo, productRepo, customerRepo, vendorRepo, txManager, clock)
	planService := billingapp.NewPlanService(planRepo, clock)
	subscriptionService := billingapp.NewSubscriptionService(
		subscriptionRepo,
		planRepo,
		paymentRepo,
		invoiceRepo,
		usageRecordRepo,
		vendorRepo,
		paymentGateway,
		txManager,
		clock,
	)
	reviewService := reviewapp.NewReviewService(reviewRepo, productRepo, vendorRepo, customerRepo, orderRepo, txManager, clock)
	analyticsService := analyticsapp.NewAnalyticsService(orderStatsRepo, subscriptionRepo, usageRecordRepo, planRepo, clock, log)
	searchService := searchapp.NewSearchService(productSearchRepo, vendorSearchRepo, log)
	recommendationService := searchapp.NewRecommendationService(recommendationRepo, productRepo, clock, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Identity services (auth, user, tenant)
	jwtService := auth.NewJWTService(cfg.JWT)
	var revocationList auth.TokenRevocationList
	if redisRevocations, err := auth.NewRedisTokenRevocationList(cfg.Redis); err != nil {
		log.Warn("Redis unavailable for token revocation, using in-memory list", zap.Error(err))
		revocationList = auth.NewInMemoryTokenRevocationList()
	} else {
		revocationList = redisRevocations
	}
	authService := identityapp.NewAuthService(
		userRepo,
		tenantRepo,
		jwtService,
		revocationList,
		identityapp.DefaultAuthServiceConfig(),
		clock,
		log,
	)
	userService := identityapp.NewUserService(userRepo, vendorRepo, customerRepo, clock, log)
	tenantService := identityapp.NewTenantService(tenantRepo, userRepo, planRepo, clock, log)

	// Query cache for analytics, search and recommendations
	if redisCache, err := cache.NewRedisQueryCache(cfg.Redis); err != nil {
		log.Warn("Redis unavailable for query cache, using in-memory cache", zap.Error(err))
		memoryCache := cache.NewInMemoryQueryCache()
		analyticsService.SetQueryCache(memoryCache, 5*time.Minute)
		searchService.SetQueryCache(memoryCache, time.Minute)
		recommendationService.SetQueryCache(memoryCache, 10*time.Minute)
	} else {
		analyticsService.SetQueryCache(redisCache, 5*time.Minute)
		searchService.SetQueryCache(redisCache, time.Minute)
		recommendationService.SetQueryCache(redisCache, 10*time.Minute)
	}

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Idempotency store guards event handlers against outbox redelivery
	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	idempotencyStore, err := idempotencyFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Order delivered -> credit the vendor's payout balance net of commission
	payoutHandler := partnerapp.NewOrderDeliveredPayoutHandler(vendorService, log)
	eventBus.Subscribe(event.NewIdempotentHandler(payoutHandler, idempotencyStore, log))

	// Order placed/cancelled -> refresh the tenant's dashboard blocks
	dashboardHandler := analyticsapp.NewOrderActivityRefreshHandler(analyticsService, log)
	eventBus.Subscribe(event.NewIdempotentHandler(dashboardHandler, idempotencyStore, log))

	log.Info("Event handlers registered",
		zap.Strings("payout_events", payoutHandler.EventTypes()),
		zap.Strings("dashboard_events", dashboardHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor for guaranteed event delivery.
	// The processor reads events from the outbox_events table and publishes
	// them to the event bus.
	if cfg.Event.ProcessorEnabled {
		outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			outboxProcessorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			outboxProcessorConfig.PollInterval = cfg.Event.PollInterval
		}
		outboxProcessorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			outboxProcessorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxProcessorConfig.BatchSize),
			zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
		)
	}

	// Inject event bus into services that publish events outside repository transactions
	productService.SetEventPublisher(eventBus)
	categoryService.SetEventPublisher(eventBus)
	vendorService.SetEventPublisher(eventBus)
	customerService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)
	subscriptionService.SetEventPublisher(eventBus)
	reviewService.SetEventPublisher(eventBus)
	userService.SetEventPublisher(eventBus)
	tenantService.SetEventPublisher(eventBus)

	// Nightly analytics dashboard refresh across all active tenants
	if cfg.Scheduler.Enabled {
		cronConfig := scheduler.DefaultAnalyticsCronSchedulerConfig()
		cronConfig.Enabled = cfg.Scheduler.Enabled
		if cfg.Scheduler.DailyCronSchedule != "" {
			cronConfig.DailyCronSchedule = cfg.Scheduler.DailyCronSchedule
		}
		if cfg.Scheduler.MaxConcurrentJobs > 0 {
			cronConfig.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrentJobs
		}
		if cfg.Scheduler.JobTimeout > 0 {
			cronConfig.JobTimeout = cfg.Scheduler.JobTimeout
		}
		if cfg.Scheduler.RetryAttempts > 0 {
			cronConfig.RetryAttempts = cfg.Scheduler.RetryAttempts
		}
		if cfg.Scheduler.RetryDelay > 0 {
			cronConfig.RetryDelay = cfg.Scheduler.RetryDelay
		}

		refreshExecutor := scheduler.NewAnalyticsRefreshExecutor(analyticsService, log)
		refreshJobRepo := scheduler.NewRefreshJobRepository(db.DB)
		analyticsCron := scheduler.NewAnalyticsCronScheduler(cronConfig, refreshExecutor, tenantRepo, refreshJobRepo, log)
		if err := analyticsCron.Start(context.Background()); err != nil {
			log.Fatal("Failed to start analytics cron scheduler", zap.Error(err))
		}
		defer func() {
			if err := analyticsCron.Stop(context.Background()); err != nil {
				log.Error("Error stopping analytics cron scheduler", zap.Error(err))
			}
		}()
		log.Info("Analytics refresh scheduler started",
			zap.String("schedule", cronConfig.DailyCronSchedule),
			zap.Int("max_concurrent_jobs", cronConfig.MaxConcurrentJobs),
		)
	}

	// Billing sweeps: renewals, payment retries, overdue expiry, trial expiry
	if cfg.Billing.SweepsEnabled {
		sweepConfig := scheduler.DefaultBillingSweepSchedulerConfig()
		sweepConfig.Enabled = cfg.Billing.SweepsEnabled
		if cfg.Billing.SweepInterval > 0 {
			sweepConfig.SweepInterval = cfg.Billing.SweepInterval
		}
		if cfg.Billing.SweepBatchSize > 0 {
			sweepConfig.BatchSize = cfg.Billing.SweepBatchSize
		}
		if cfg.Billing.RetryBackoff > 0 {
			sweepConfig.RetryBackoff = cfg.Billing.RetryBackoff
		}
		if cfg.Billing.TrialSweepInterval > 0 {
			sweepConfig.TrialSweepInterval = cfg.Billing.TrialSweepInterval
		}

		billingSweeps := scheduler.NewBillingSweepScheduler(subscriptionService, tenantService, log, sweepConfig)
		if err := billingSweeps.Start(context.Background()); err != nil {
			log.Fatal("Failed to start billing sweep scheduler", zap.Error(err))
		}
		defer func() {
			if err := billingSweeps.Stop(context.Background()); err != nil {
				log.Error("Error stopping billing sweep scheduler", zap.Error(err))
			}
		}()
		log.Info("Billing sweep scheduler started",
			zap.Duration("sweep_interval", sweepConfig.SweepInterval),
			zap.Int("batch_size", sweepConfig.BatchSize),
		)
	}

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	vendorHandler := handler.NewVendorHandler(vendorService)
	customerHandler := handler.NewCustomerHandler(customerService)
	orderHandler := handler.NewOrderHandler(orderService)
	planHandler := handler.NewPlanHandler(planService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	searchHandler := handler.NewSearchHandler(searchService, recommendationService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	outboxHandler := handler.NewOutboxHandler(outboxService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing/Metrics - OpenTelemetry instrumentation (if enabled)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}))
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       cfg.Telemetry.Enabled,
		}))
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes.
	// Search and recommendations stay public for the storefront.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		RevocationList: revocationList,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/system/ping",
			"/api/v1/system/info",
			"/api/v1/ping",
		},
		SkipPathPrefixes: []string{
			"/api/v1/search",
			"/api/v1/recommendations",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Tenant context: JWT claims first, X-Tenant-ID header for public
	// storefront requests. Not required here; tenant-scoped handlers
	// reject requests without it themselves.
	r.Use(middleware.TenantMiddlewareWithConfig(middleware.TenantMiddlewareConfig{
		HeaderEnabled: true,
		JWTEnabled:    true,
		SkipPaths:     []string{"/api/v1/auth/login", "/api/v1/auth/refresh", "/api/v1/ping", "/api/v1/system"},
		Required:      false,
		Logger:        log,
	}))

	// Role capability checks for privileged operations
	evaluator := identity.NewEvaluator()
	requireCap := func(capability identity.Capability) gin.HandlerFunc {
		return middleware.RequireCapability(evaluator, capability)
	}

	// Vendor listing creation charges one unit of the product_listings
	// feature against the vendor's current subscription
	listingGate := middleware.FeatureGate(middleware.FeatureGateConfig{
		Feature: "product_listings",
		Logger:  log,
		Gate: func(ctx context.Context, tenantID, vendorID uuid.UUID, feature string) (*billingdomain.TrackResult, error) {
			sub, err := subscriptionService.GetCurrentForVendor(ctx, tenantID, vendorID)
			if err != nil {
				return nil, err
			}
			return subscriptionService.TrackUsage(ctx, tenantID, sub.ID, billingapp.TrackUsageRequest{
				FeatureName: feature,
				Increment:   1,
			})
		},
	})

	// Authentication and session management
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.GetCurrentUser)
	authRoutes.PUT("/password", authHandler.ChangePassword)
	authRoutes.POST("/users/:id/force-logout", requireCap(identity.CapUserManage), authHandler.ForceLogout)

	// Catalog: products and categories
	catalogRoutes := router.NewDomainGroup("catalog", "")
	catalogRoutes.POST("/products", requireCap(identity.CapProductManage), listingGate, productHandler.Create)
	catalogRoutes.GET("/products", productHandler.ListActive)
	catalogRoutes.GET("/products/low-stock", requireCap(identity.CapProductManage), productHandler.ListLowStock)
	catalogRoutes.GET("/products/sku/:sku", productHandler.GetBySKU)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	catalogRoutes.PUT("/products/:id", requireCap(identity.CapProductManage), productHandler.Update)
	catalogRoutes.PUT("/products/:id/price", requireCap(identity.CapProductManage), productHandler.UpdatePrice)
	catalogRoutes.PUT("/products/:id/stock", requireCap(identity.CapProductManage), productHandler.SetStock)
	catalogRoutes.POST("/products/:id/stock/adjust", requireCap(identity.CapProductManage), productHandler.AdjustStock)
	catalogRoutes.PUT("/products/:id/category", requireCap(identity.CapProductManage), productHandler.SetCategory)
	catalogRoutes.POST("/products/:id/publish", requireCap(identity.CapProductManage), productHandler.Publish)
	catalogRoutes.POST("/products/:id/unpublish", requireCap(identity.CapProductManage), productHandler.Unpublish)
	catalogRoutes.POST("/products/:id/discontinue", requireCap(identity.CapProductManage), productHandler.Discontinue)
	catalogRoutes.POST("/products/:id/images/upload", requireCap(identity.CapProductManage), productHandler.InitiateImageUpload)
	catalogRoutes.POST("/products/:id/images", requireCap(identity.CapProductManage), productHandler.ConfirmImageUpload)
	catalogRoutes.DELETE("/products/:id/images", requireCap(identity.CapProductManage), productHandler.RemoveImage)
	catalogRoutes.POST("/categories", requireCap(identity.CapCategoryManage), categoryHandler.Create)
	catalogRoutes.GET("/categories", categoryHandler.ListRoots)
	catalogRoutes.GET("/categories/tree", categoryHandler.GetTree)
	catalogRoutes.GET("/categories/slug/:slug", categoryHandler.GetBySlug)
	catalogRoutes.GET("/categories/:id", categoryHandler.GetByID)
	catalogRoutes.GET("/categories/:id/children", categoryHandler.ListChildren)
	catalogRoutes.GET("/categories/:id/products", productHandler.ListByCategory)
	catalogRoutes.PUT("/categories/:id", requireCap(identity.CapCategoryManage), categoryHandler.Update)
	catalogRoutes.POST("/categories/:id/activate", requireCap(identity.CapCategoryManage), categoryHandler.Activate)
	catalogRoutes.POST("/categories/:id/deactivate", requireCap(identity.CapCategoryManage), categoryHandler.Deactivate)
	catalogRoutes.DELETE("/categories/:id", requireCap(identity.CapCategoryManage), categoryHandler.Delete)

	// Partner: vendors and customers
	partnerRoutes := router.NewDomainGroup("partner", "")
	partnerRoutes.POST("/vendors", vendorHandler.Onboard)
	partnerRoutes.GET("/vendors", vendorHandler.List)
	partnerRoutes.GET("/vendors/pending-verification", requireCap(identity.CapVendorVerify), vendorHandler.ListPendingVerification)
	partnerRoutes.GET("/vendors/slug/:slug", vendorHandler.GetBySlug)
	partnerRoutes.GET("/vendors/:id", vendorHandler.GetByID)
	partnerRoutes.PUT("/vendors/:id", vendorHandler.UpdateProfile)
	partnerRoutes.PUT("/vendors/:id/contact", vendorHandler.UpdateContact)
	partnerRoutes.PUT("/vendors/:id/business-details", vendorHandler.SetBusinessDetails)
	partnerRoutes.PUT("/vendors/:id/payout-account", vendorHandler.SetPayoutAccount)
	partnerRoutes.PUT("/vendors/:id/commission-rate", requireCap(identity.CapVendorManage), vendorHandler.SetCommissionRate)
	partnerRoutes.POST("/vendors/:id/verify", requireCap(identity.CapVendorVerify), vendorHandler.Verify)
	partnerRoutes.POST("/vendors/:id/reject-verification", requireCap(identity.CapVendorVerify), vendorHandler.RejectVerification)
	partnerRoutes.POST("/vendors/:id/reapply", vendorHandler.ReapplyForVerification)
	partnerRoutes.POST("/vendors/:id/activate", requireCap(identity.CapVendorManage), vendorHandler.Activate)
	partnerRoutes.POST("/vendors/:id/deactivate", requireCap(identity.CapVendorManage), vendorHandler.Deactivate)
	partnerRoutes.POST("/vendors/:id/suspend", requireCap(identity.CapVendorSuspend), vendorHandler.Suspend)
	partnerRoutes.POST("/vendors/:id/reinstate", requireCap(identity.CapVendorSuspend), vendorHandler.Reinstate)
	partnerRoutes.POST("/vendors/:id/payout/credit", requireCap(identity.CapVendorManage), vendorHandler.CreditPayout)
	partnerRoutes.POST("/vendors/:id/payout/debit", requireCap(identity.CapVendorManage), vendorHandler.DebitPayout)
	partnerRoutes.POST("/vendors/:id/branding/upload", vendorHandler.InitiateBrandingUpload)
	partnerRoutes.POST("/vendors/:id/branding", vendorHandler.ConfirmBrandingUpload)
	partnerRoutes.GET("/vendors/:id/products", productHandler.ListByVendor)
	partnerRoutes.GET("/vendors/:id/orders", orderHandler.ListByVendor)
	partnerRoutes.GET("/vendors/:id/reviews", reviewHandler.ListByVendor)
	partnerRoutes.GET("/vendors/:id/subscription", subscriptionHandler.GetCurrentForVendor)
	partnerRoutes.GET("/vendors/:id/subscriptions", subscriptionHandler.ListByVendor)
	partnerRoutes.POST("/customers", customerHandler.Register)
	partnerRoutes.GET("/customers", customerHandler.List)
	partnerRoutes.GET("/customers/by-email", customerHandler.GetByEmail)
	partnerRoutes.GET("/customers/:id", customerHandler.GetByID)
	partnerRoutes.PUT("/customers/:id", customerHandler.Update)
	partnerRoutes.PUT("/customers/:id/email", customerHandler.ChangeEmail)
	partnerRoutes.PUT("/customers/:id/shipping-address", customerHandler.SetShippingAddress)
	partnerRoutes.PUT("/customers/:id/billing-address", customerHandler.SetBillingAddress)
	partnerRoutes.POST("/customers/:id/activate", customerHandler.Activate)
	partnerRoutes.POST("/customers/:id/deactivate", customerHandler.Deactivate)
	partnerRoutes.POST("/customers/:id/block", requireCap(identity.CapUserManage), customerHandler.Block)
	partnerRoutes.POST("/customers/:id/unblock", requireCap(identity.CapUserManage), customerHandler.Unblock)
	partnerRoutes.DELETE("/customers/:id", customerHandler.Delete)
	partnerRoutes.GET("/customers/:id/orders", orderHandler.ListByCustomer)
	partnerRoutes.GET("/customers/:id/reviews", reviewHandler.ListByCustomer)

	// Ordering
	orderingRoutes := router.NewDomainGroup("ordering", "")
	orderingRoutes.POST("/orders", requireCap(identity.CapOrderPlace), orderHandler.Place)
	orderingRoutes.GET("/orders", requireCap(identity.CapOrderView), orderHandler.List)
	orderingRoutes.GET("/orders/summary", requireCap(identity.CapOrderView), orderHandler.StatusSummary)
	orderingRoutes.GET("/orders/number/:order_number", requireCap(identity.CapOrderView), orderHandler.GetByOrderNumber)
	orderingRoutes.GET("/orders/:id", requireCap(identity.CapOrderView), orderHandler.GetByID)
	orderingRoutes.POST("/orders/:id/transition", requireCap(identity.CapOrderTransition), orderHandler.Transition)
	orderingRoutes.POST("/orders/:id/cancel", requireCap(identity.CapOrderCancel), orderHandler.Cancel)
	orderingRoutes.PUT("/orders/:id/payment-status", requireCap(identity.CapOrderTransition), orderHandler.UpdatePaymentStatus)

	// Billing: plans and subscriptions
	billingRoutes := router.NewDomainGroup("billing", "")
	billingRoutes.POST("/plans", requireCap(identity.CapPlanManage), planHandler.Create)
	billingRoutes.GET("/plans", planHandler.List)
	billingRoutes.GET("/plans/code/:code", planHandler.GetByCode)
	billingRoutes.GET("/plans/:id", planHandler.GetByID)
	billingRoutes.PUT("/plans/:id", requireCap(identity.CapPlanManage), planHandler.UpdateDetails)
	billingRoutes.PUT("/plans/:id/pricing", requireCap(identity.CapPlanManage), planHandler.UpdatePricing)
	billingRoutes.PUT("/plans/:id/features", requireCap(identity.CapPlanManage), planHandler.SetFeature)
	billingRoutes.DELETE("/plans/:id/features/:name", requireCap(identity.CapPlanManage), planHandler.RemoveFeature)
	billingRoutes.POST("/plans/:id/activate", requireCap(identity.CapPlanManage), planHandler.Activate)
	billingRoutes.POST("/plans/:id/deactivate", requireCap(identity.CapPlanManage), planHandler.Deactivate)
	billingRoutes.POST("/subscriptions", subscriptionHandler.Subscribe)
	billingRoutes.GET("/subscriptions/summary", requireCap(identity.CapSubscriptionManage), subscriptionHandler.StatusSummary)
	billingRoutes.GET("/subscriptions/status/:status", requireCap(identity.CapSubscriptionManage), subscriptionHandler.ListByStatus)
	billingRoutes.POST("/subscriptions/payments/:payment_id/retry", subscriptionHandler.RetryPayment)
	billingRoutes.GET("/subscriptions/:id", subscriptionHandler.GetByID)
	billingRoutes.POST("/subscriptions/:id/cancel", subscriptionHandler.Cancel)
	billingRoutes.POST("/subscriptions/:id/reactivate", subscriptionHandler.Reactivate)
	billingRoutes.POST("/subscriptions/:id/change-plan", subscriptionHandler.ChangePlan)
	billingRoutes.POST("/subscriptions/:id/suspend", requireCap(identity.CapSubscriptionManage), subscriptionHandler.Suspend)
	billingRoutes.POST("/subscriptions/:id/resume", requireCap(identity.CapSubscriptionManage), subscriptionHandler.Resume)
	billingRoutes.POST("/subscriptions/:id/payments", subscriptionHandler.RecordPayment)
	billingRoutes.GET("/subscriptions/:id/payments", subscriptionHandler.ListPayments)
	billingRoutes.GET("/subscriptions/:id/invoices", subscriptionHandler.ListInvoices)
	billingRoutes.POST("/subscriptions/:id/usage", requireCap(identity.CapUsageTrack), subscriptionHandler.TrackUsage)
	billingRoutes.GET("/subscriptions/:id/usage", subscriptionHandler.GetUsage)

	// Reviews: submission, moderation, rating aggregates
	reviewRoutes := router.NewDomainGroup("reviews", "")
	reviewRoutes.POST("/reviews", requireCap(identity.CapReviewSubmit), reviewHandler.Submit)
	reviewRoutes.GET("/reviews/moderation-queue", requireCap(identity.CapReviewModerate), reviewHandler.ListAwaitingModeration)
	reviewRoutes.GET("/reviews/moderation-overview", requireCap(identity.CapReviewModerate), reviewHandler.ModerationOverview)
	reviewRoutes.GET("/reviews/:id", reviewHandler.GetByID)
	reviewRoutes.PUT("/reviews/:id", reviewHandler.UpdateContent)
	reviewRoutes.POST("/reviews/:id/approve", requireCap(identity.CapReviewModerate), reviewHandler.Approve)
	reviewRoutes.POST("/reviews/:id/reject", requireCap(identity.CapReviewModerate), reviewHandler.Reject)
	reviewRoutes.POST("/reviews/:id/flag", reviewHandler.Flag)
	reviewRoutes.POST("/reviews/:id/helpful", reviewHandler.MarkHelpful)
	reviewRoutes.POST("/reviews/:id/report", reviewHandler.Report)
	reviewRoutes.DELETE("/reviews/:id", requireCap(identity.CapReviewModerate), reviewHandler.Delete)
	reviewRoutes.GET("/products/:id/reviews", reviewHandler.ListByProduct)
	reviewRoutes.GET("/products/:id/rating", reviewHandler.RatingSummary)

	// Search and recommendations (public storefront discovery)
	searchRoutes := router.NewDomainGroup("search", "")
	searchRoutes.GET("/search/products", searchHandler.SearchProducts)
	searchRoutes.GET("/search/vendors", searchHandler.SearchVendors)
	searchRoutes.GET("/search/suggest", searchHandler.Suggest)
	searchRoutes.GET("/recommendations/trending", searchHandler.GetTrending)
	searchRoutes.GET("/recommendations/products/:product_id/similar", searchHandler.GetSimilar)
	searchRoutes.POST("/recommendations/cross-sell", searchHandler.GetCrossSell)

	// Analytics dashboards
	analyticsRoutes := router.NewDomainGroup("analytics", "/analytics")
	analyticsRoutes.Use(requireCap(identity.CapAnalyticsView))
	analyticsRoutes.GET("/overview", analyticsHandler.GetOverview)
	analyticsRoutes.GET("/revenue-trend", analyticsHandler.GetRevenueTrend)
	analyticsRoutes.GET("/top-products", analyticsHandler.GetTopProducts)
	analyticsRoutes.GET("/vendor-ranking", analyticsHandler.GetVendorRanking)
	analyticsRoutes.GET("/vendors/:vendor_id/dashboard", analyticsHandler.GetVendorDashboard)
	analyticsRoutes.GET("/vendors/:vendor_id/usage", analyticsHandler.GetUsageSummary)
	analyticsRoutes.POST("/refresh", analyticsHandler.RefreshDashboard)

	// Identity administration: users and tenants
	identityRoutes := router.NewDomainGroup("identity", "")
	identityRoutes.POST("/users", requireCap(identity.CapUserManage), userHandler.Create)
	identityRoutes.GET("/users", requireCap(identity.CapUserManage), userHandler.List)
	identityRoutes.GET("/users/:id", requireCap(identity.CapUserManage), userHandler.GetByID)
	identityRoutes.PUT("/users/:id", requireCap(identity.CapUserManage), userHandler.Update)
	identityRoutes.PUT("/users/:id/role", requireCap(identity.CapUserManage), userHandler.ChangeRole)
	identityRoutes.PUT("/users/:id/vendor", requireCap(identity.CapUserManage), userHandler.AttachVendor)
	identityRoutes.PUT("/users/:id/customer", requireCap(identity.CapUserManage), userHandler.AttachCustomer)
	identityRoutes.POST("/users/:id/activate", requireCap(identity.CapUserManage), userHandler.Activate)
	identityRoutes.POST("/users/:id/deactivate", requireCap(identity.CapUserManage), userHandler.Deactivate)
	identityRoutes.POST("/users/:id/lock", requireCap(identity.CapUserManage), userHandler.Lock)
	identityRoutes.POST("/users/:id/unlock", requireCap(identity.CapUserManage), userHandler.Unlock)
	identityRoutes.POST("/users/:id/reset-password", requireCap(identity.CapUserManage), userHandler.ResetPassword)
	identityRoutes.DELETE("/users/:id", requireCap(identity.CapUserManage), userHandler.Delete)
	identityRoutes.POST("/tenants", requireCap(identity.CapTenantManage), tenantHandler.Create)
	identityRoutes.GET("/tenants", requireCap(identity.CapTenantManage), tenantHandler.List)
	identityRoutes.GET("/tenants/code/:code", requireCap(identity.CapTenantManage), tenantHandler.GetByCode)
	identityRoutes.GET("/tenants/:id", requireCap(identity.CapTenantManage), tenantHandler.GetByID)
	identityRoutes.GET("/tenants/:id/stats", requireCap(identity.CapTenantManage), tenantHandler.GetStats)
	identityRoutes.PUT("/tenants/:id", requireCap(identity.CapTenantManage), tenantHandler.Update)
	identityRoutes.PUT("/tenants/:id/domain", requireCap(identity.CapTenantManage), tenantHandler.SetDomain)
	identityRoutes.PUT("/tenants/:id/plan", requireCap(identity.CapTenantManage), tenantHandler.SetPlan)
	identityRoutes.POST("/tenants/:id/activate", requireCap(identity.CapTenantManage), tenantHandler.Activate)
	identityRoutes.POST("/tenants/:id/deactivate", requireCap(identity.CapTenantManage), tenantHandler.Deactivate)
	identityRoutes.POST("/tenants/:id/suspend", requireCap(identity.CapTenantManage), tenantHandler.Suspend)
	identityRoutes.DELETE("/tenants/:id", requireCap(identity.CapTenantManage), tenantHandler.Delete)

	// Operational admin surface: outbox inspection and retry
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.Use(requireCap(identity.CapTenantManage))
	adminRoutes.GET("/outbox/stats", outboxHandler.GetStats)
	adminRoutes.GET("/outbox/dead-letters", outboxHandler.ListDeadLetters)
	adminRoutes.POST("/outbox/dead-letters/retry-all", outboxHandler.RetryAll)
	adminRoutes.GET("/outbox/entries/:id", outboxHandler.GetEntry)
	adminRoutes.POST("/outbox/entries/:id/retry", outboxHandler.RetryEntry)

	// Register all domain groups
	r.Register(authRoutes).
		Register(catalogRoutes).
		Register(partnerRoutes).
		Register(orderingRoutes).
		Register(billingRoutes).
		Register(reviewRoutes).
		Register(searchRoutes).
		Register(analyticsRoutes).
		Register(identityRoutes).
		Register(adminRoutes)

	// Register system routes with swagger-documented handlers
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
