// Package cognito signs users in against an Amazon Cognito user pool whose app client
// configuration is kept in a secret.
package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/common/secret"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrChallengeRequired is returned when the pool asks for a follow-up step (new password, MFA)
	// that this app does not implement.
	ErrChallengeRequired = errors.New("additional sign-in challenge required, complete it in the Cognito hosted UI")
)

// Config is the JSON document stored in the COGNITO_SECRET_NAME secret.
type Config struct {
	PoolID          string `json:"pool_id"`
	AppClientID     string `json:"app_client_id"`
	AppClientSecret string `json:"app_client_secret"`
}

// InitiateAuthAPI is the subset of the Cognito client used here.
type InitiateAuthAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

type Authenticator struct {
	cfg    Config
	client InitiateAuthAPI
}

// LoadConfig reads the pool configuration from the named secret.
func LoadConfig(ctx context.Context, store secret.Store, secretName string) (Config, error) {
	var cfg Config
	if err := secret.GetJSON(ctx, store, secretName, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.PoolID == "" || cfg.AppClientID == "" {
		return Config{}, &secret.SecretRetrievalError{Name: secretName, Err: errors.New("pool_id and app_client_id are required")}
	}
	return cfg, nil
}

func NewAuthenticator(cfg Config, awsCfg aws.Config) *Authenticator {
	if region := regionFromPoolID(cfg.PoolID); region != "" {
		awsCfg = awsCfg.Copy()
		awsCfg.Region = region
	}
	return &Authenticator{cfg: cfg, client: cognitoidentityprovider.NewFromConfig(awsCfg)}
}

func NewAuthenticatorWithClient(cfg Config, client InitiateAuthAPI) *Authenticator {
	return &Authenticator{cfg: cfg, client: client}
}

// Login verifies the credentials and returns the canonical username.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	params := map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	}
	if a.cfg.AppClientSecret != "" {
		params["SECRET_HASH"] = SecretHash(username, a.cfg.AppClientID, a.cfg.AppClientSecret)
	}

	ctx, cancel := context.WithTimeout(ctx, config.VendorTimeout)
	defer cancel()

	out, err := a.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(a.cfg.AppClientID),
		AuthParameters: params,
	})
	if err != nil {
		var notAuthorized *types.NotAuthorizedException
		var notFound *types.UserNotFoundException
		if errors.As(err, &notAuthorized) || errors.As(err, &notFound) {
			return "", ErrInvalidCredentials
		}
		return "", errors.Wrap(err, "cognito initiate auth")
	}
	if out.ChallengeName != "" {
		return "", errors.Wrapf(ErrChallengeRequired, "challenge %s", out.ChallengeName)
	}
	if out.AuthenticationResult == nil {
		return "", errors.New("cognito returned no authentication result")
	}
	return username, nil
}

// SecretHash computes the SECRET_HASH parameter required by app clients that have a secret.
func SecretHash(username, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// regionFromPoolID extracts "eu-west-1" from "eu-west-1_AbCdEf".
func regionFromPoolID(poolID string) string {
	region, _, ok := strings.Cut(poolID, "_")
	if !ok {
		return ""
	}
	return region
}
