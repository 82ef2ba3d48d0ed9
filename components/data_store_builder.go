package components

import (
	"github.com/flagcore/flagcore-go/internal/datastore"
)

type inMemoryDataStoreFactory struct{}

// DataStoreFactory builds the Store a client's evaluator reads from.
type DataStoreFactory interface {
	Build(context ClientContext) (datastore.Store, error)
}

// Build implements DataStoreFactory.
func (inMemoryDataStoreFactory) Build(context ClientContext) (datastore.Store, error) {
	return datastore.NewInMemory(), nil
}

// InMemoryDataStore returns the default, non-persistent data store factory.
//
// To use a persistent backend such as Redis instead, see redisstore.DataStore.
func InMemoryDataStore() DataStoreFactory {
	return inMemoryDataStoreFactory{}
}
