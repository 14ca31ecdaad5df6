// Package main runs the InvisiReel HTTP API with the session WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/invisireel/backend/config"
	"github.com/invisireel/backend/internal/analytics"
	"github.com/invisireel/backend/internal/auth"
	"github.com/invisireel/backend/internal/catalog"
	"github.com/invisireel/backend/internal/creation"
	"github.com/invisireel/backend/internal/gateway/speech"
	"github.com/invisireel/backend/internal/gateway/stock"
	"github.com/invisireel/backend/internal/gateway/upload"
	"github.com/invisireel/backend/internal/middleware"
	"github.com/invisireel/backend/internal/profile"
	"github.com/invisireel/backend/internal/realtime"
	"github.com/invisireel/backend/internal/session"
	"github.com/invisireel/backend/internal/uploads"
	"github.com/invisireel/backend/internal/videos"
	"github.com/invisireel/backend/pkg/database"
	"github.com/invisireel/backend/pkg/queue"
	"github.com/invisireel/backend/pkg/redis"
	"github.com/invisireel/backend/pkg/response"
	"github.com/invisireel/backend/pkg/storage"
)

const (
	flowIdleTimeout   = 30 * time.Minute
	flowSweepInterval = 5 * time.Minute
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	var pool *pgxpool.Pool
	if dsn := cfg.Database.DSN(); dsn != "" {
		pool, err = database.NewPostgresPool(ctx, dsn, logger)
		if err != nil {
			logger.Warn("database disabled; using in-memory stores", zap.Error(err))
			pool = nil
		} else {
			defer pool.Close()
			if err := database.Migrate(ctx, pool); err != nil {
				logger.Fatal("migrate", zap.Error(err))
			}
		}
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis disabled", zap.Error(err))
		rdb = nil
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Bucket:               cfg.AWS.UploadsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	// Identity
	var revocations auth.Revocations = auth.NewMemoryRevocations()
	if rdb != nil {
		revocations = auth.NewRedisRevocations(rdb.Raw())
	}
	provider := newIdentityProvider(cfg, pool, revocations, logger)
	var notifier session.Notifier = session.NewLocalNotifier()
	var hub *realtime.Hub
	if rdb != nil {
		notifier = session.NewRedisNotifier(rdb.Raw(), logger)
		pubsub := realtime.NewRedisPubSub(rdb.Raw(), logger)
		hub = realtime.NewHub(logger, pubsub, pubsub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}
	authHandler := auth.NewHandler(provider, notifier, logger)

	// Video records
	var videoStore videos.Store = videos.NewMemoryStore()
	var uploadStore uploads.Store = uploads.NewMemoryStore()
	if pool != nil {
		videoStore = videos.NewRepository(pool)
		uploadStore = uploads.NewRepository(pool)
	}

	var (
		presigner   videos.Presigner
		objectStore catalog.ObjectStore
		uploadFiles uploads.Files
	)
	if s3Client != nil {
		presigner = s3Client
		objectStore = s3Client
		uploadFiles = s3Client
	}
	videoHandler := videos.NewHandler(videoStore, presigner, logger)
	analyticsHandler := analytics.NewHandler(videoStore, logger)

	// Catalog and providers
	cat, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		logger.Warn("catalog override ignored", zap.Error(err), zap.String("file", cfg.Catalog.File))
		cat = catalog.Default()
	}
	if cfg.Supabase.Configured() {
		src, err := catalog.NewSupabaseTemplates(cfg.Supabase.URL, cfg.Supabase.TableKey())
		if err != nil {
			logger.Warn("template table disabled", zap.Error(err))
		} else {
			cat = cat.WithSource(src, logger)
		}
	}
	speechClient := speech.NewClient(cfg.ElevenLabs.APIKey, cfg.ElevenLabs.BaseURL, cfg.ElevenLabs.Model)
	stockClient := stock.NewClient(cfg.Pexels.APIKey, cfg.Pexels.BaseURL)
	catalogHandler := catalog.NewHandler(cat, speechClient, stockClient, objectStore, logger)

	// Profile
	var updater profile.MetadataUpdater
	if provider != nil {
		updater = provider
	}
	profileHandler := profile.NewHandler(updater, notifier, newSubscriptionStore(cfg, pool, logger), cat, videoStore, logger)

	// Publishing
	uploadHandler := uploads.NewHandler(uploads.Config{
		Store:       uploadStore,
		Files:       uploadFiles,
		Queue:       queue.NewQueue(rdb.Raw(), logger),
		Uploader:    upload.NewClient(cfg.Upload.Endpoint, cfg.Upload.APIKey),
		Videos:      videoStore,
		ReceiverKey: cfg.Upload.APIKey,
		Logger:      logger,
	})

	// Creation flows
	processor := creation.NewSimulatedProcessor(cfg.Creation.ProcessingDelay, cfg.Creation.PlaceholderVideoURL, cfg.Creation.PlaceholderThumbnail)
	registry := creation.NewRegistry(videoStore, processor, logger)
	registry.OnChange(func(f *creation.Flow, s creation.State) {
		if f.Demo() {
			return
		}
		hub.PublishToUser(f.Owner().String(), realtime.EventFlowUpdated, creation.NewFlowView(f, s))
	})
	creationHandler := creation.NewHandler(registry, logger)

	if cfg.DemoMode() {
		logger.Warn("no identity provider configured; running in demo mode")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "demo": cfg.DemoMode()})
	})

	var sessionProvider session.Provider
	if provider != nil {
		sessionProvider = provider
	}
	withSession := middleware.Session(sessionProvider, logger)

	authGroup := router.Group("/auth", withSession)
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", authHandler.Me)
	}

	// Open API: catalog, creation flows (demo mode without identity), upload receiver
	api := router.Group("/api", withSession)
	{
		api.GET("/templates", catalogHandler.Templates)
		api.GET("/flow-templates", catalogHandler.FlowTemplates)
		api.GET("/music", catalogHandler.Music)
		api.GET("/plans", catalogHandler.Plans)
		api.GET("/voices", catalogHandler.Voices)
		api.GET("/stock/search", catalogHandler.StockSearch)
		api.GET("/stock/popular", catalogHandler.StockPopular)
		api.POST("/speech/synthesize", catalogHandler.Synthesize)

		api.POST("/flows", creationHandler.Create)
		api.GET("/flows/:id", creationHandler.Get)
		api.POST("/flows/:id/actions", creationHandler.Dispatch)
		api.DELETE("/flows/:id", creationHandler.Delete)

		api.POST("/youtube/upload", uploadHandler.Receive)
	}

	// Signed-in API
	user := api.Group("", middleware.RequireIdentity())
	{
		user.GET("/videos", videoHandler.List)
		user.GET("/videos/stats", videoHandler.Stats)
		user.GET("/videos/:id", videoHandler.Get)
		user.PATCH("/videos/:id", videoHandler.Update)
		user.DELETE("/videos/:id", videoHandler.Delete)
		user.GET("/videos/:id/download", videoHandler.Download)
		user.POST("/videos/:id/publish", uploadHandler.Publish)
		user.GET("/uploads", uploadHandler.List)

		user.GET("/analytics", analyticsHandler.Get)

		user.GET("/profile", profileHandler.Get)
		user.PATCH("/profile", profileHandler.Update)
		user.GET("/profile/export", profileHandler.Export)
	}

	// WebSocket (token in query; absent token runs the tab in demo mode)
	router.GET("/ws/session", realtime.ServeWs(hub, sessionProvider, notifier, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go sweepFlows(sweepCtx, registry, logger)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.Bool("demo", cfg.DemoMode()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sweepCancel()
	registry.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newIdentityProvider returns nil when no provider is usable (demo mode).
func newIdentityProvider(cfg *config.Config, pool *pgxpool.Pool, revocations auth.Revocations, logger *zap.Logger) auth.IdentityProvider {
	switch cfg.ResolvedAuthProvider() {
	case config.AuthProviderSupabase:
		p, err := auth.NewSupabaseProvider(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.JWTSecret, logger)
		if err != nil {
			logger.Warn("supabase auth disabled", zap.Error(err))
			return nil
		}
		logger.Info("identity provider", zap.String("provider", config.AuthProviderSupabase))
		return p.WithRevocations(revocations)
	case config.AuthProviderLocal:
		if pool == nil {
			logger.Warn("local auth needs a database; running in demo mode")
			return nil
		}
		logger.Info("identity provider", zap.String("provider", config.AuthProviderLocal))
		jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.ExpireHours)
		return auth.NewLocalProvider(auth.NewRepository(pool), jwtService, logger).WithRevocations(revocations)
	}
	return nil
}

// newSubscriptionStore prefers the database, then the hosted table API. Nil means everyone is on FREE.
func newSubscriptionStore(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) profile.SubscriptionStore {
	if pool != nil {
		return profile.NewRepository(pool)
	}
	if !cfg.Supabase.Configured() {
		return nil
	}
	subs, err := profile.NewSupabaseSubscriptions(cfg.Supabase.URL, cfg.Supabase.TableKey())
	if err != nil {
		logger.Warn("subscription table disabled", zap.Error(err))
		return nil
	}
	return subs
}

func sweepFlows(ctx context.Context, registry *creation.Registry, logger *zap.Logger) {
	ticker := time.NewTicker(flowSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Sweep(flowIdleTimeout); n > 0 {
				logger.Info("idle creation flows closed", zap.Int("count", n), zap.Int("live", registry.Len()))
			}
		}
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
