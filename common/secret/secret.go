// Package secret resolves named secrets (API keys, auth configuration) from AWS Secrets Manager.
package secret

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Laisky/errors/v2"
)

// Store returns the string value of a named secret.
type Store interface {
	GetSecretString(ctx context.Context, name string) (string, error)
}

// Invalidator is implemented by stores that cache values and can forget one.
type Invalidator interface {
	Invalidate(name string)
}

// SecretRetrievalError annotates a failed lookup with the secret name.
type SecretRetrievalError struct {
	Name string
	Err  error
}

func (e *SecretRetrievalError) Error() string {
	return fmt.Sprintf("failed to retrieve secret %q (check the secret exists and this app may read it): %v", e.Name, e.Err)
}

func (e *SecretRetrievalError) Unwrap() error { return e.Err }

// GetJSON fetches a secret whose value is a JSON object and decodes it into out.
func GetJSON(ctx context.Context, store Store, name string, out any) error {
	raw, err := store.GetSecretString(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &SecretRetrievalError{Name: name, Err: errors.Wrap(err, "secret is not a JSON object")}
	}
	return nil
}

// StaticStore serves secrets from memory. The CLI uses it when keys come from flags or env.
type StaticStore map[string]string

func (s StaticStore) GetSecretString(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok {
		return "", &SecretRetrievalError{Name: name, Err: errors.New("secret not found")}
	}
	return v, nil
}
