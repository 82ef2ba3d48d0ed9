package components

import (
	"time"

	"github.com/flagcore/flagcore-go/internal/datasource"
)

// DefaultStreamingBaseURI is the default streaming endpoint.
const DefaultStreamingBaseURI = "https://stream.flagcore.io"

// DefaultPollingBaseURI is the default polling endpoint.
const DefaultPollingBaseURI = "https://app.flagcore.io"

// DefaultInitialReconnectDelay is the default value for
// StreamingDataSourceBuilder.InitialReconnectDelay.
const DefaultInitialReconnectDelay = time.Second

// DefaultPollInterval is the default value for PollingDataSourceBuilder.PollInterval.
const DefaultPollInterval = 30 * time.Second

// MinimumPollInterval is the lowest poll interval the SDK will honor.
const MinimumPollInterval = 30 * time.Second

// StreamingDataSourceBuilder configures the streaming data source.
//
// By default, the SDK uses a streaming connection to receive flag data. To
// customize it, obtain a builder with StreamingDataSource, set its
// properties, and pass it as the DataSource of a client Config.
type StreamingDataSourceBuilder struct {
	baseURI               string
	initialReconnectDelay time.Duration
}

// StreamingDataSource returns a configurable factory for the streaming data source.
func StreamingDataSource() *StreamingDataSourceBuilder {
	return &StreamingDataSourceBuilder{
		baseURI:               DefaultStreamingBaseURI,
		initialReconnectDelay: DefaultInitialReconnectDelay,
	}
}

// BaseURI sets the streaming service base URI.
func (b *StreamingDataSourceBuilder) BaseURI(uri string) *StreamingDataSourceBuilder {
	if uri != "" {
		b.baseURI = uri
	}
	return b
}

// InitialReconnectDelay sets the starting delay before the first reconnect
// attempt; the streaming connection backs off exponentially, with jitter,
// on repeated failures.
func (b *StreamingDataSourceBuilder) InitialReconnectDelay(delay time.Duration) *StreamingDataSourceBuilder {
	if delay <= 0 {
		b.initialReconnectDelay = DefaultInitialReconnectDelay
	} else {
		b.initialReconnectDelay = delay
	}
	return b
}

// Build is called internally by the client to construct the data source.
func (b *StreamingDataSourceBuilder) Build(context ClientContext) (datasource.DataSource, error) {
	client := context.HTTP.CreateHTTPClient()
	return datasource.NewStreamingDataSource(
		context.Store,
		client,
		b.baseURI,
		context.HTTP.Headers,
		b.initialReconnectDelay,
		context.Loggers,
	), nil
}

// PollingDataSourceBuilder configures the polling data source.
type PollingDataSourceBuilder struct {
	baseURI      string
	pollInterval time.Duration
}

// PollingDataSource returns a configurable factory for the polling data source.
func PollingDataSource() *PollingDataSourceBuilder {
	return &PollingDataSourceBuilder{
		baseURI:      DefaultPollingBaseURI,
		pollInterval: DefaultPollInterval,
	}
}

// BaseURI sets the polling service base URI.
func (b *PollingDataSourceBuilder) BaseURI(uri string) *PollingDataSourceBuilder {
	if uri != "" {
		b.baseURI = uri
	}
	return b
}

// PollInterval sets how often the SDK polls for flag data. Values below
// MinimumPollInterval are raised to it.
func (b *PollingDataSourceBuilder) PollInterval(interval time.Duration) *PollingDataSourceBuilder {
	if interval < MinimumPollInterval {
		b.pollInterval = MinimumPollInterval
	} else {
		b.pollInterval = interval
	}
	return b
}

// Build is called internally by the client to construct the data source.
func (b *PollingDataSourceBuilder) Build(context ClientContext) (datasource.DataSource, error) {
	client := context.HTTP.CreateHTTPClient()
	return datasource.NewPollingDataSource(
		context.Store,
		client,
		b.baseURI,
		context.HTTP.Headers,
		b.pollInterval,
		context.Loggers,
	), nil
}

type externalUpdatesOnlyFactory struct{}

// Build implements DataSourceFactory.
func (externalUpdatesOnlyFactory) Build(context ClientContext) (datasource.DataSource, error) {
	return datasource.NewNullDataSource(), nil
}

// ExternalUpdatesOnly returns a data source factory for "daemon mode": the
// SDK reads flag data written by an external process (such as a relay
// proxy) directly into a shared persistent store, and never contacts
// the flag data service itself.
func ExternalUpdatesOnly() DataSourceFactory {
	return externalUpdatesOnlyFactory{}
}
