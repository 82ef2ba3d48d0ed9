package components

import (
	"github.com/flagcore/flagcore-go/internal/datastore"
	"github.com/flagcore/flagcore-go/redisstore"
)

// redisDataStoreFactory adapts a *redisstore.Builder (which builds from a
// *flog.Loggers) to the DataStoreFactory shape (which builds from a
// ClientContext), so it can be passed to Config the same way InMemoryDataStore is.
type redisDataStoreFactory struct {
	builder *redisstore.Builder
}

// Build implements DataStoreFactory.
func (f redisDataStoreFactory) Build(context ClientContext) (datastore.Store, error) {
	return f.builder.Build(context.Loggers)
}

// PersistentDataStore wraps a Redis-backed store builder as a DataStoreFactory,
// for deployments that want flag data to survive a client restart or be
// shared across multiple client processes.
//
//	components.PersistentDataStore(redisstore.DataStore().URL("redis://localhost:6379"))
func PersistentDataStore(builder *redisstore.Builder) DataStoreFactory {
	return redisDataStoreFactory{builder: builder}
}
