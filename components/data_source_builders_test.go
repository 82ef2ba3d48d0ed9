package components

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

func testContext() ClientContext {
	return ClientContext{
		SDKKey: "test-key",
		Store:  datastore.NewInMemory(),
		HTTP: HTTPConfig{
			Headers:          make(http.Header),
			CreateHTTPClient: func() *http.Client { return http.DefaultClient },
		},
		Loggers: &flog.Loggers{},
	}
}

func TestStreamingDataSourceBuilder(t *testing.T) {
	s := StreamingDataSource()
	assert.Equal(t, DefaultInitialReconnectDelay, s.initialReconnectDelay)

	s.InitialReconnectDelay(time.Minute)
	assert.Equal(t, time.Minute, s.initialReconnectDelay)

	s.InitialReconnectDelay(0)
	assert.Equal(t, DefaultInitialReconnectDelay, s.initialReconnectDelay)

	s.BaseURI("https://custom.example.com")
	assert.Equal(t, "https://custom.example.com", s.baseURI)

	ds, err := s.Build(testContext())
	require.NoError(t, err)
	require.NotNil(t, ds)
	ds.Stop()
}

func TestPollingDataSourceBuilder(t *testing.T) {
	p := PollingDataSource()
	assert.Equal(t, DefaultPollInterval, p.pollInterval)

	p.PollInterval(time.Minute)
	assert.Equal(t, time.Minute, p.pollInterval)

	p.PollInterval(time.Second)
	assert.Equal(t, MinimumPollInterval, p.pollInterval, "intervals below the minimum are raised to it")

	ds, err := p.Build(testContext())
	require.NoError(t, err)
	require.NotNil(t, ds)
	ds.Stop()
}

func TestExternalUpdatesOnly(t *testing.T) {
	ds, err := ExternalUpdatesOnly().Build(testContext())
	require.NoError(t, err)
	assert.True(t, ds.Initialized(), "daemon mode reports initialized immediately")
}
