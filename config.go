package flagcore

import (
	"github.com/flagcore/flagcore-go/components"
)

// Config exposes advanced configuration options for the client.
//
// All fields are optional, so a zero-value Config is always valid. Each
// factory field is normally set using the corresponding builder in the
// components package:
//
//	var config flagcore.Config
//	config.Events = components.SendEvents().FlushInterval(10 * time.Second)
type Config struct {
	// DataSource selects how flag/segment data is kept synchronized.
	//
	// If nil, the default is components.StreamingDataSource(). Other
	// options are components.PollingDataSource() and
	// components.ExternalUpdatesOnly() (daemon mode, for use alongside a
	// relay process that already writes to DataStore).
	//
	// If Offline is true, DataSource is ignored.
	DataSource components.DataSourceFactory

	// DataStore selects where flag/segment data is held.
	//
	// If nil, the default is components.InMemoryDataStore(). To share
	// state across multiple client processes or survive a restart, use
	// components.PersistentDataStore(redisstore.DataStore()...).
	DataStore components.DataStoreFactory

	// Events configures analytics event delivery.
	//
	// If nil, the default is components.SendEvents(). Use
	// components.NoEvents() to disable event delivery entirely.
	//
	// If Offline is true, event delivery is always off and Events is ignored.
	Events components.EventProcessorFactory

	// HTTP configures the client's network connection behavior (proxy, TLS,
	// timeouts, custom headers).
	//
	// If nil, the default is components.HTTPConfiguration().
	//
	// If Offline is true, HTTP is still built (so an invalid configuration is
	// still reported as an error) but no request is ever made with it.
	HTTP *components.HTTPConfigurationBuilder

	// Logging configures the client's log destination and verbosity.
	//
	// If nil, the default is components.Logging().
	Logging *components.LoggingConfigurationBuilder

	// Offline, if true, makes the client never contact the network: data
	// source and event delivery are both disabled, and every variation call
	// returns its caller-supplied default.
	Offline bool

	// LogEvaluationErrors, if true, logs a warning for every evaluation that
	// falls back to a default value due to an error (missing flag, wrong
	// type, etc).
	LogEvaluationErrors bool
}
