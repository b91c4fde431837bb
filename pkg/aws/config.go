package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Settings are the AWS connection parameters read from the environment.
type Settings struct {
	Region     string
	Endpoint   string // generic endpoint, e.g. http://localstack:4566
	S3Endpoint string // overrides Endpoint for S3 only
	AccessKey  string
	SecretKey  string
}

// SettingsFromEnv reads AWS_REGION, AWS_ENDPOINT, AWS_S3_ENDPOINT,
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.
func SettingsFromEnv() Settings {
	s := Settings{
		Region:     os.Getenv("AWS_REGION"),
		Endpoint:   os.Getenv("AWS_ENDPOINT"),
		S3Endpoint: os.Getenv("AWS_S3_ENDPOINT"),
		AccessKey:  os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey:  os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	if s.Region == "" {
		s.Region = "us-east-1"
	}
	if s.S3Endpoint == "" {
		s.S3Endpoint = s.Endpoint
	}
	return s
}

// LoadAWSConfig loads AWS config and supports a LocalStack endpoint. When an
// endpoint is set every SDK client targets it instead of AWS.
func LoadAWSConfig(ctx context.Context, s Settings) (sdkaws.Config, error) {
	cfgOpts := []func(*config.LoadOptions) error{
		config.WithRegion(s.Region),
	}
	if s.AccessKey != "" || s.SecretKey != "" {
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, ""),
		))
	}
	if s.Endpoint != "" {
		resolver := sdkaws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (sdkaws.Endpoint, error) {
			return sdkaws.Endpoint{
				URL:               s.Endpoint,
				SigningRegion:     s.Region,
				HostnameImmutable: true,
			}, nil
		})
		cfgOpts = append(cfgOpts, config.WithEndpointResolverWithOptions(resolver))
	}

	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}
	return cfg, nil
}
