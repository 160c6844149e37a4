// Package awsconf builds the shared aws.Config used by the Bedrock, S3, Secrets Manager and
// Cognito clients.
package awsconf

import (
	"context"
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/songquanpeng/prompt-studio/common/config"
)

var (
	loadOnce sync.Once
	loaded   aws.Config
	loadErr  error
)

// Load returns the process-wide AWS configuration, loading it on first use.
func Load(ctx context.Context) (aws.Config, error) {
	loadOnce.Do(func() {
		loaded, loadErr = New(ctx, config.AWSRegion, config.AWSAccessKeyID, config.AWSSecretAccessKey, config.AWSSessionToken)
	})
	return loaded, loadErr
}

// New loads an aws.Config. Static credentials are used only when both keys are set; otherwise the
// default chain (task role, shared profile) applies. Retries are capped at config.VendorMaxAttempts
// total attempts.
func New(ctx context.Context, region, accessKey, secretKey, sessionToken string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryer(func() aws.Retryer {
			attempts := config.VendorMaxAttempts
			if attempts < 1 {
				attempts = 1
			}
			return retry.AddWithMaxAttempts(retry.NewStandard(), attempts)
		}),
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, sessionToken)))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "load aws config")
	}
	return cfg, nil
}
