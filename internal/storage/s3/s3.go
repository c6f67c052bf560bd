// Package s3 stores listing photos in an S3-compatible bucket (Cloudflare R2
// in production). The API never proxies image bytes: clients PUT to a
// presigned URL and the wizard only records the object key.
package s3

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config is read from AWS_* variables. Endpoint is empty for AWS proper.
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

func ConfigFromEnv() Config {
	c := Config{
		Endpoint:        os.Getenv("AWS_ENDPOINT"),
		Region:          os.Getenv("AWS_REGION"),
		Bucket:          os.Getenv("AWS_BUCKET"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	if c.Region == "" {
		c.Region = "auto"
	}
	return c
}

type S3Client struct {
	Client    *s3.Client
	Presigner *s3.PresignClient
	Bucket    string
}

// NewR2Client builds a client from ConfigFromEnv.
func NewR2Client(ctx context.Context) (*S3Client, error) {
	c := ConfigFromEnv()
	if c.Bucket == "" {
		return nil, errors.New("AWS_BUCKET not set")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newClient(awsCfg, c), nil
}

func newClient(awsCfg aws.Config, c Config) *S3Client {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Client{Client: client, Presigner: s3.NewPresignClient(client), Bucket: c.Bucket}
}
