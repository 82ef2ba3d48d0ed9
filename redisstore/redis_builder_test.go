package redisstore

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagcore/flagcore-go/flog"
)

func TestBuilderDefaults(t *testing.T) {
	b := DataStore()
	assert.Equal(t, DefaultPrefix, b.prefix)
	assert.Equal(t, DefaultURL, b.url)
}

func TestBuilderEmptyOverridesFallBackToDefaults(t *testing.T) {
	b := DataStore().Prefix("").URL("")
	assert.Equal(t, DefaultPrefix, b.prefix)
	assert.Equal(t, DefaultURL, b.url)
}

func TestBuilderHostAndPort(t *testing.T) {
	b := DataStore().HostAndPort("redis.example.com", 6380)
	assert.Equal(t, "redis://redis.example.com:6380", b.url)
}

func TestBuilderBuildConnectsUsingURL(t *testing.T) {
	server := miniredis.RunT(t)
	store, err := DataStore().URL("redis://" + server.Addr()).Prefix("myapp").Build(&flog.Loggers{})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, "myapp", store.prefix)
	assert.False(t, store.Initialized())
}

func TestBuilderInvalidURL(t *testing.T) {
	_, err := DataStore().URL("not-a-valid-redis-url").Build(&flog.Loggers{})
	assert.Error(t, err)
}
