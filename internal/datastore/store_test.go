package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flagcore/flagcore-go/fmodel"
)

func TestUpsertRejectsOlderVersion(t *testing.T) {
	s := NewInMemory()
	assert.NoError(t, s.Init(map[Kind]map[string]Item{
		Features: {"f": fmodel.FeatureFlag{Key: "f", Version: 5}},
	}))

	assert.NoError(t, s.Upsert(Features, fmodel.FeatureFlag{Key: "f", Version: 4}))
	item, err := s.Get(Features, "f")
	assert.NoError(t, err)
	assert.Equal(t, 5, item.GetVersion())

	assert.NoError(t, s.Upsert(Features, fmodel.FeatureFlag{Key: "f", Version: 6}))
	item, err = s.Get(Features, "f")
	assert.NoError(t, err)
	assert.Equal(t, 6, item.GetVersion())
}

func TestGetReturnsNilForDeletedItem(t *testing.T) {
	s := NewInMemory()
	assert.NoError(t, s.Init(map[Kind]map[string]Item{
		Features: {"f": fmodel.FeatureFlag{Key: "f", Version: 1}},
	}))
	assert.NoError(t, s.Delete(Features, "f", 2))
	item, err := s.Get(Features, "f")
	assert.NoError(t, err)
	assert.Nil(t, item)
}

func TestDeleteIsNoOpForOlderVersion(t *testing.T) {
	s := NewInMemory()
	assert.NoError(t, s.Init(map[Kind]map[string]Item{
		Features: {"f": fmodel.FeatureFlag{Key: "f", Version: 5}},
	}))
	assert.NoError(t, s.Delete(Features, "f", 3))
	item, err := s.Get(Features, "f")
	assert.NoError(t, err)
	if assert.NotNil(t, item) {
		assert.Equal(t, 5, item.GetVersion())
	}
}

func TestAllExcludesDeletedItems(t *testing.T) {
	s := NewInMemory()
	assert.NoError(t, s.Init(map[Kind]map[string]Item{
		Features: {
			"a": fmodel.FeatureFlag{Key: "a", Version: 1},
			"b": fmodel.FeatureFlag{Key: "b", Version: 1, Deleted: true},
		},
	}))
	all, err := s.All(Features)
	assert.NoError(t, err)
	assert.Len(t, all, 1)
	_, ok := all["a"]
	assert.True(t, ok)
}

func TestNotInitializedUntilInitCalled(t *testing.T) {
	s := NewInMemory()
	assert.False(t, s.Initialized())
	assert.NoError(t, s.Init(map[Kind]map[string]Item{}))
	assert.True(t, s.Initialized())
}
