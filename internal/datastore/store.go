// Package datastore defines the versioned, kind-namespaced feature store
// contract and its default in-memory implementation.
package datastore

import (
	"sync"

	"github.com/flagcore/flagcore-go/fmodel"
)

// Item is anything the store can hold: fmodel.FeatureFlag and fmodel.Segment
// both satisfy this.
type Item interface {
	GetKey() string
	GetVersion() int
	IsDeleted() bool
}

// Kind namespaces items within the store (flags vs. segments).
type Kind interface {
	String() string
	MakeDeletedItem(key string, version int) Item
}

type featureFlagKind struct{}

func (featureFlagKind) String() string { return "features" }
func (featureFlagKind) MakeDeletedItem(key string, version int) Item {
	return fmodel.FeatureFlag{Key: key, Version: version, Deleted: true}
}

type segmentKind struct{}

func (segmentKind) String() string { return "segments" }
func (segmentKind) MakeDeletedItem(key string, version int) Item {
	return fmodel.Segment{Key: key, Version: version, Deleted: true}
}

// Features and Segments are the two kinds of data the core store holds.
var (
	Features Kind = featureFlagKind{}
	Segments Kind = segmentKind{}
)

// AllKinds lists every Kind a store must be prepared to hold.
var AllKinds = []Kind{Features, Segments}

// Store is the contract implemented by the in-memory store and any
// pluggable external backend (e.g. redisstore.Store): an atomic
// bulk-initialization operation plus version-checked upserts.
type Store interface {
	// Init atomically replaces the entire store contents.
	Init(allData map[Kind]map[string]Item) error
	// Get returns a single item, or nil if absent or deleted.
	Get(kind Kind, key string) (Item, error)
	// All returns every non-deleted item of a kind.
	All(kind Kind) (map[string]Item, error)
	// Upsert stores item unless an existing entry has version >= item's version.
	Upsert(kind Kind, item Item) error
	// Delete is a versioned upsert of a deletion tombstone.
	Delete(kind Kind, key string, version int) error
	// Initialized reports whether Init has ever succeeded.
	Initialized() bool
}

// InMemory is the default Store implementation: a reader-writer-locked map
// of maps. Readers never observe a partially applied Init.
type InMemory struct {
	mu            sync.RWMutex
	allData       map[Kind]map[string]Item
	isInitialized bool
}

// NewInMemory creates an empty, uninitialized in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{allData: make(map[Kind]map[string]Item)}
}

// Get returns a single item, or nil if absent or deleted.
func (s *InMemory) Get(kind Kind, key string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item := s.allData[kind][key]
	if item == nil || item.IsDeleted() {
		return nil, nil
	}
	return item, nil
}

// All returns every non-deleted item of a kind.
func (s *InMemory) All(kind Kind) (map[string]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make(map[string]Item)
	for k, v := range s.allData[kind] {
		if !v.IsDeleted() {
			ret[k] = v
		}
	}
	return ret, nil
}

// Init atomically replaces the entire store contents.
func (s *InMemory) Init(allData map[Kind]map[string]Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := make(map[Kind]map[string]Item, len(allData))
	for kind, items := range allData {
		copied := make(map[string]Item, len(items))
		for k, v := range items {
			copied[k] = v
		}
		fresh[kind] = copied
	}
	s.allData = fresh
	s.isInitialized = true
	return nil
}

// Upsert stores item unless an existing entry has version >= item's version.
func (s *InMemory) Upsert(kind Kind, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allData[kind] == nil {
		s.allData[kind] = make(map[string]Item)
	}
	items := s.allData[kind]
	old := items[item.GetKey()]
	if old == nil || old.GetVersion() < item.GetVersion() {
		items[item.GetKey()] = item
	}
	return nil
}

// Delete is a versioned upsert of a deletion tombstone.
func (s *InMemory) Delete(kind Kind, key string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allData[kind] == nil {
		s.allData[kind] = make(map[string]Item)
	}
	items := s.allData[kind]
	old := items[key]
	if old == nil || old.GetVersion() < version {
		items[key] = kind.MakeDeletedItem(key, version)
	}
	return nil
}

// Initialized reports whether Init has ever succeeded.
func (s *InMemory) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isInitialized
}
