package secret

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/common/logger"
)

// GetSecretValueAPI is the subset of the Secrets Manager client used here.
type GetSecretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerStore reads secrets from AWS Secrets Manager.
type SecretsManagerStore struct {
	client GetSecretValueAPI
}

func NewSecretsManagerStore(cfg aws.Config) *SecretsManagerStore {
	return &SecretsManagerStore{client: secretsmanager.NewFromConfig(cfg)}
}

// NewSecretsManagerStoreWithClient is used by tests and callers that already hold a client.
func NewSecretsManagerStoreWithClient(client GetSecretValueAPI) *SecretsManagerStore {
	return &SecretsManagerStore{client: client}
}

func (s *SecretsManagerStore) GetSecretString(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", &SecretRetrievalError{Name: name, Err: errors.New("secret name is empty")}
	}

	ctx, cancel := context.WithTimeout(ctx, config.VendorTimeout)
	defer cancel()

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			logger.Logger.Error("secrets manager rejected lookup",
				zap.String("secret", name),
				zap.String("code", apiErr.ErrorCode()))
		}
		return "", &SecretRetrievalError{Name: name, Err: err}
	}

	switch {
	case out.SecretString != nil:
		return *out.SecretString, nil
	case len(out.SecretBinary) > 0:
		return string(out.SecretBinary), nil
	default:
		return "", &SecretRetrievalError{Name: name, Err: errors.New("secret has no value")}
	}
}
