package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjugstad/fleetsync/internal/common"
	"bjugstad/fleetsync/internal/constants"
)

type fakeSecrets struct {
	values map[string]string
	err    error
	calls  int
}

func (f *fakeSecrets) GetSecret(_ context.Context, name string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.values[name], nil
}

func newTestResolver(secrets SecretSource) *Resolver {
	return NewResolver(common.NewCacheService(0), secrets)
}

func TestResolverPrefersEnvironment(t *testing.T) {
	t.Setenv("FS_TEST_KEY", "from-env")

	secrets := &fakeSecrets{values: map[string]string{"FS_TEST_KEY": "from-store"}}
	r := newTestResolver(secrets)

	v, err := r.Require(context.Background(), "FS_TEST_KEY")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
	assert.Zero(t, secrets.calls, "secret store must not be consulted when env is set")
}

func TestResolverFallsBackToSecretStoreAndCaches(t *testing.T) {
	secrets := &fakeSecrets{values: map[string]string{"FS_SECRET": "s3cret"}}
	r := newTestResolver(secrets)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, err := r.Require(ctx, "FS_SECRET")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", v)
	}

	assert.Equal(t, 1, secrets.calls, "second and third lookups must hit the cache")
}

func TestResolverRequireMissing(t *testing.T) {
	secrets := &fakeSecrets{values: map[string]string{}}
	r := newTestResolver(secrets)

	_, err := r.Require(context.Background(), "FS_ABSENT")
	var missing *MissingConfigError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "FS_ABSENT", missing.Name)
}

func TestResolverRequireWithoutSecretStore(t *testing.T) {
	r := newTestResolver(nil)

	_, err := r.Require(context.Background(), "FS_ABSENT")
	var missing *MissingConfigError
	assert.ErrorAs(t, err, &missing)
}

func TestResolverOptionalSwallowsFailures(t *testing.T) {
	secrets := &fakeSecrets{err: errors.New("store unreachable")}
	r := newTestResolver(secrets)

	assert.Nil(t, r.Optional(context.Background(), "FS_ABSENT"))
}

func TestResolverOptionalPresent(t *testing.T) {
	t.Setenv("FS_OPT", "yes")
	r := newTestResolver(nil)

	v := r.Optional(context.Background(), "FS_OPT")
	require.NotNil(t, v)
	assert.Equal(t, "yes", *v)
}

func TestMaxPages(t *testing.T) {
	r := newTestResolver(nil)
	ctx := context.Background()

	assert.Equal(t, constants.DefaultMaxPages, r.MaxPages(ctx))

	t.Setenv(constants.ConfigKeySyncMaxPages, "50")
	assert.Equal(t, 50, r.MaxPages(ctx))

	t.Setenv(constants.ConfigKeySyncMaxPages, "nope")
	assert.Equal(t, constants.DefaultMaxPages, r.MaxPages(ctx))
}
