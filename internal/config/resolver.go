package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"bjugstad/fleetsync/internal/common"
	"bjugstad/fleetsync/internal/constants"
	"bjugstad/fleetsync/internal/logging"
)

// MissingConfigError is returned by Require when a name resolves nowhere.
type MissingConfigError struct {
	Name string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("config %q not found in environment or secret store", e.Name)
}

// SecretSource looks up a named secret in external storage. The production
// implementation is repositories.SecretRepository (app_secrets table).
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Resolver resolves named configuration values: live environment first,
// then the process cache, then the secret store. Secret-store hits are
// cached without expiry; secrets are treated as immutable for the process
// lifetime. Environment hits are never cached so a live override always
// wins.
type Resolver struct {
	cache   common.CacheInterface
	secrets SecretSource
}

func NewResolver(cache common.CacheInterface, secrets SecretSource) *Resolver {
	return &Resolver{cache: cache, secrets: secrets}
}

const cacheKeyPrefix = "config:"

// Get resolves a value or returns *MissingConfigError.
func (r *Resolver) Get(ctx context.Context, name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}

	cacheKey := cacheKeyPrefix + name
	if v, found := r.cache.Get(cacheKey); found {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}

	if r.secrets == nil {
		return "", &MissingConfigError{Name: name}
	}

	v, err := r.secrets.GetSecret(ctx, name)
	if err != nil || v == "" {
		return "", &MissingConfigError{Name: name}
	}

	r.cache.Set(cacheKey, v, 0)
	return v, nil
}

// Require resolves a value and fails the caller's run when it is absent.
func (r *Resolver) Require(ctx context.Context, name string) (string, error) {
	v, err := r.Get(ctx, name)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", &MissingConfigError{Name: name}
	}
	return v, nil
}

// Optional resolves a value, returning nil instead of failing. All lookup
// failures are swallowed.
func (r *Resolver) Optional(ctx context.Context, name string) *string {
	v, err := r.Get(ctx, name)
	if err != nil || v == "" {
		return nil
	}
	return &v
}

// MaxPages returns the pagination safety cap, falling back to the default
// when SYNC_MAX_PAGES is unset or not a positive integer.
func (r *Resolver) MaxPages(ctx context.Context) int {
	raw := r.Optional(ctx, constants.ConfigKeySyncMaxPages)
	if raw == nil {
		return constants.DefaultMaxPages
	}
	n, err := strconv.Atoi(*raw)
	if err != nil || n <= 0 {
		logging.Warn("invalid SYNC_MAX_PAGES, using default",
			"value", *raw, "default", constants.DefaultMaxPages)
		return constants.DefaultMaxPages
	}
	return n
}
