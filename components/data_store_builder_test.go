package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDataStoreBuilder(t *testing.T) {
	store, err := InMemoryDataStore().Build(testContext())
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.False(t, store.Initialized())
}
