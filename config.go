package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	awspkg "github.com/boozebuddy/backend/pkg/aws"

	"go.uber.org/zap"
)

// Config holds all environment variables for the service.
type Config struct {
	Port          string
	Env           string
	JWTSecret     string
	MongoURL      string
	MongoDBName   string
	DocumentStore string // "mongo" or "dynamodb"
	ProductsTable string
	RedisURL      string
	CORSOrigins   []string

	Bucket                  string
	PublicBaseURL           string
	SignedURLTTL            time.Duration
	DistributionConcurrency int
	DistributionTopicArn    string

	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string

	AWS awspkg.Settings
}

// LoadConfig loads environment variables into Config and validates them.
// If AWS_USE_SECRETS=true the JWT secret and Mongo URL are read from the
// key/value secret AWS_SECRET_NAME, falling back to the env values on failure.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                 getenv("PORT", "8086"),
		Env:                  getenv("ENV", "development"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		MongoURL:             os.Getenv("MONGO_DB_URL"),
		MongoDBName:          getenv("MONGO_DB_NAME", "boozebuddy"),
		DocumentStore:        getenv("DOCUMENT_STORE", "mongo"),
		ProductsTable:        getenv("DDB_TABLE_PRODUCTS", "Products"),
		RedisURL:             os.Getenv("REDIS_URL"),
		CORSOrigins:          strings.Split(getenv("CORS_ALLOWED_ORIGINS", "*"), ","),
		Bucket:               getenv("AWS_S3_BUCKET", "booze-buddy"),
		PublicBaseURL:        os.Getenv("PUBLIC_BASE_URL"),
		DistributionTopicArn: os.Getenv("SNS_DISTRIBUTION_TOPIC_ARN"),
		CloudWatchEnabled:    os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchNamespace:  os.Getenv("CLOUDWATCH_NAMESPACE"),
		CloudWatchLogGroup:   os.Getenv("CLOUDWATCH_LOG_GROUP"),
		AWS:                  awspkg.SettingsFromEnv(),
	}

	ttl, err := getenvInt("SIGNED_URL_TTL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	cfg.SignedURLTTL = time.Duration(ttl) * time.Second

	if cfg.DistributionConcurrency, err = getenvInt("DISTRIBUTION_CONCURRENCY", 8); err != nil {
		return nil, err
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background(), cfg.AWS); err == nil {
			sm := awspkg.NewSecretsClient(awsCfg)
			name := getenv("AWS_SECRET_NAME", "boozebuddy/app")
			cfg.JWTSecret = sm.SecretFieldOr(context.Background(), name, "JWT_SECRET", cfg.JWTSecret)
			cfg.MongoURL = sm.SecretFieldOr(context.Background(), name, "MONGO_DB_URL", cfg.MongoURL)
		} else {
			zap.L().Warn("Secrets Manager unavailable, using environment", zap.Error(err))
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.MongoURL == "" {
		return nil, fmt.Errorf("MONGO_DB_URL is required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("PUBLIC_BASE_URL is required")
	}
	if cfg.DocumentStore != "mongo" && cfg.DocumentStore != "dynamodb" {
		return nil, fmt.Errorf("DOCUMENT_STORE must be mongo or dynamodb, got %q", cfg.DocumentStore)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}
