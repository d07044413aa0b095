package infra

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"equipviz.dev/backend/internal/app/appconfig"
)

// S3 builds the archive bucket client. Static credentials take precedence over
// the default AWS credential chain.
func S3(conf *appconfig.Config) (*s3.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(conf.ArchiveS3Region),
	}
	if conf.AWSAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AWSAccessKey, conf.AWSSecretKey, ""),
		))
	}

	awsConf, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.Error().Err(err).Msg("infra: s3: failed to load aws configuration")
		return nil, err
	}

	return s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if conf.ArchiveS3Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.ArchiveS3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
