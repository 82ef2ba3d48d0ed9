// Package components provides builder-style factories for the pluggable
// parts of a client: the data source, the data store, the event
// processor, HTTP transport, and logging. Each builder's Build method
// takes a ClientContext and returns the concrete implementation, mirroring
// how the client facade assembles a Config into running subsystems.
package components

import (
	"net/http"

	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/internal/datasource"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

// ClientContext carries the shared state every component builder needs in
// order to construct its concrete implementation.
type ClientContext struct {
	SDKKey  string
	Store   datastore.Store
	HTTP    HTTPConfig
	Loggers *flog.Loggers
}

// HTTPConfig is the result of building an HTTPConfigurationBuilder: a
// client factory plus the headers every request should carry.
type HTTPConfig struct {
	CreateHTTPClient func() *http.Client
	Headers          http.Header
}

// DataSourceFactory builds the DataSource a client uses to populate its store.
type DataSourceFactory interface {
	Build(context ClientContext) (datasource.DataSource, error)
}
