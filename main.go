package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boozebuddy/backend/common/auth"
	"github.com/boozebuddy/backend/common/logger"
	"github.com/boozebuddy/backend/common/middleware"
	"github.com/boozebuddy/backend/controllers"
	"github.com/boozebuddy/backend/database"
	awspkg "github.com/boozebuddy/backend/pkg/aws"
	"github.com/boozebuddy/backend/repository"
	"github.com/boozebuddy/backend/routes"
	"github.com/boozebuddy/backend/services"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "booze-buddy"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	awsCfg, err := awspkg.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}

	var sink io.Writer
	if cfg.CloudWatchEnabled {
		cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Printf("CloudWatch Logs disabled: %v", err)
		} else {
			sink = cw
		}
	}
	zapLogger, err := logger.New(cfg.Env, sink)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	zap.L().Info("AWS Configuration",
		zap.String("AWS_ENDPOINT", cfg.AWS.Endpoint),
		zap.String("AWS_S3_ENDPOINT", cfg.AWS.S3Endpoint),
		zap.String("AWS_REGION", cfg.AWS.Region),
	)

	// --- 1. Storage ---

	mongoDB, err := database.Connect(ctx, cfg.MongoURL, cfg.MongoDBName)
	if err != nil {
		zap.L().Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	users := repository.NewUserRepository(mongoDB.DB)

	var products repository.ProductRepo
	switch cfg.DocumentStore {
	case "dynamodb":
		products = repository.NewDynamoAdapter(dynamodb.NewFromConfig(awsCfg), cfg.ProductsTable)
	default:
		products = repository.NewProductRepository(mongoDB.DB)
	}
	if err := products.EnsureIndexes(ctx); err != nil {
		zap.L().Warn("Failed to ensure product indexes", zap.Error(err))
	}
	if err := users.EnsureIndexes(ctx); err != nil {
		zap.L().Warn("Failed to ensure user indexes", zap.Error(err))
	}

	blobs := awspkg.NewS3BlobStore(awspkg.NewS3Client(awsCfg, cfg.AWS.S3Endpoint), cfg.Bucket)
	rdb := database.NewRedis(ctx, cfg.RedisURL)

	var events services.EventPublisher
	if cfg.DistributionTopicArn != "" {
		events = awspkg.NewSNSClient(awsCfg)
	}

	// --- 2. Dependency Injection ---

	ledger := services.NewLedger(products, users, zapLogger)
	distributor := services.NewDistributor(ledger, products, users, blobs, services.NewSVGQRRenderer(), events,
		services.DistributorConfig{
			PublicBaseURL: cfg.PublicBaseURL,
			Concurrency:   cfg.DistributionConcurrency,
			TopicArn:      cfg.DistributionTopicArn,
		}, zapLogger)
	aggregator := services.NewAggregator(products)
	retriever := services.NewRetriever(blobs, cfg.SignedURLTTL, zapLogger)
	catalog := services.NewCatalog(products, blobs, zapLogger)

	// Cached listings must expire before the URLs inside them.
	cacheTTL := controllers.DefaultCacheTTL
	if cfg.SignedURLTTL/2 < cacheTTL {
		cacheTTL = cfg.SignedURLTTL / 2
	}
	cache := controllers.NewCacheManager(rdb, cacheTTL)

	ctrl := routes.Controllers{
		Products:      controllers.NewProductController(catalog, users),
		Distributions: controllers.NewDistributionController(distributor, users, cache),
		Analytics:     controllers.NewAnalyticsController(aggregator, users),
		QRCodes:       controllers.NewQRCodeController(retriever, users, cache),
		Scans:         controllers.NewScanController(ledger, catalog),
	}

	// --- 3. HTTP Server & Middleware ---

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middleware.MetricsMiddleware(awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled), serviceName))
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), controllers.DistributionTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	limiter := middleware.NewRateLimiter(rate.Limit(5), 20, 10*time.Minute)
	stopSweep := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				limiter.Sweep(now)
			case <-stopSweep:
				return
			}
		}
	}()

	routes.RegisterRoutes(r, ctrl, auth.NewTokenVerifier(cfg.JWTSecret), limiter)

	// --- 4. Graceful Shutdown ---

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("Booze Buddy service starting", zap.String("port", cfg.Port), zap.String("document_store", cfg.DocumentStore))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down Booze Buddy service...")
	close(stopSweep)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		zap.L().Error("Failed to close Redis", zap.Error(err))
	}
	if err := mongoDB.Close(shutdownCtx); err != nil {
		zap.L().Error("Failed to close MongoDB", zap.Error(err))
	}

	zap.L().Info("Booze Buddy service stopped gracefully")
}
