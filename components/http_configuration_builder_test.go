package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPConfigurationBuilderDefaults(t *testing.T) {
	config, err := HTTPConfiguration().Build("my-sdk-key")
	require.NoError(t, err)
	assert.Equal(t, "my-sdk-key", config.Headers.Get("Authorization"))
	assert.Contains(t, config.Headers.Get("User-Agent"), "FlagcoreGo")

	client := config.CreateHTTPClient()
	assert.Equal(t, DefaultConnectTimeout, client.Timeout)
}

func TestHTTPConfigurationBuilderCustomHeaders(t *testing.T) {
	config, err := HTTPConfiguration().
		ConnectTimeout(10 * time.Second).
		Header("X-Custom", "value").
		Wrapper("my-wrapper", "1.0.0").
		Build("my-sdk-key")
	require.NoError(t, err)
	assert.Equal(t, "value", config.Headers.Get("X-Custom"))
	assert.Equal(t, "my-wrapper/1.0.0", config.Headers.Get("X-Flagcore-Wrapper"))

	client := config.CreateHTTPClient()
	assert.Equal(t, 10*time.Second, client.Timeout)
}

func TestHTTPConfigurationBuilderInvalidProxyURL(t *testing.T) {
	_, err := HTTPConfiguration().ProxyURL("://not-a-url").Build("key")
	assert.Error(t, err)
}
