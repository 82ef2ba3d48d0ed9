package redisstore

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

func testStore(t *testing.T) *Store {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return newStore(client, "testprefix", &flog.Loggers{})
}

func TestRedisStoreStartsUninitialized(t *testing.T) {
	store := testStore(t)
	assert.False(t, store.Initialized())
}

func TestRedisStoreInitAndGet(t *testing.T) {
	store := testStore(t)
	flag := fmodel.FeatureFlag{Key: "flag1", Version: 1}
	segment := fmodel.Segment{Key: "seg1", Version: 1}

	err := store.Init(map[datastore.Kind]map[string]datastore.Item{
		datastore.Features: {"flag1": flag},
		datastore.Segments: {"seg1": segment},
	})
	require.NoError(t, err)
	assert.True(t, store.Initialized())

	got, err := store.Get(datastore.Features, "flag1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, flag, got)

	gotSeg, err := store.Get(datastore.Segments, "seg1")
	require.NoError(t, err)
	assert.Equal(t, segment, gotSeg)

	missing, err := store.Get(datastore.Features, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedisStoreAll(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Init(map[datastore.Kind]map[string]datastore.Item{
		datastore.Features: {
			"a": fmodel.FeatureFlag{Key: "a", Version: 1},
			"b": fmodel.FeatureFlag{Key: "b", Version: 1},
		},
	}))

	all, err := store.All(datastore.Features)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRedisStoreUpsertIgnoresStaleVersion(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Upsert(datastore.Features, fmodel.FeatureFlag{Key: "flag1", Version: 5}))
	require.NoError(t, store.Upsert(datastore.Features, fmodel.FeatureFlag{Key: "flag1", Version: 3}))

	got, err := store.Get(datastore.Features, "flag1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.GetVersion())
}

func TestRedisStoreUpsertAppliesNewerVersion(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Upsert(datastore.Features, fmodel.FeatureFlag{Key: "flag1", Version: 1}))
	require.NoError(t, store.Upsert(datastore.Features, fmodel.FeatureFlag{Key: "flag1", Version: 2}))

	got, err := store.Get(datastore.Features, "flag1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.GetVersion())
}

func TestRedisStoreDelete(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Upsert(datastore.Features, fmodel.FeatureFlag{Key: "flag1", Version: 1}))
	require.NoError(t, store.Delete(datastore.Features, "flag1", 2))

	got, err := store.Get(datastore.Features, "flag1")
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := store.All(datastore.Features)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRedisStoreKeyNamespacing(t *testing.T) {
	store := testStore(t)
	assert.Equal(t, "testprefix:features", store.kindKey(datastore.Features))
	assert.Equal(t, "testprefix:$inited", store.initedRedisKey())
}
