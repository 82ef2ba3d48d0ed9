package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

const initedKey = "$inited"

// Store is a Redis-backed datastore.Store: each Kind is a Redis hash
// (key -> JSON item), with a sentinel string key marking that Init has run.
// Upsert uses an optimistic WATCH/MULTI transaction so concurrent writers
// (e.g. two client processes sharing the same Redis instance) never
// silently clobber a higher-versioned item.
type Store struct {
	client  *redis.Client
	prefix  string
	loggers *flog.Loggers
}

func newStore(client *redis.Client, prefix string, loggers *flog.Loggers) *Store {
	if loggers == nil {
		loggers = &flog.Loggers{}
	}
	loggers.SetPrefix("redisstore:")
	return &Store{client: client, prefix: prefix, loggers: loggers}
}

func (s *Store) kindKey(kind datastore.Kind) string {
	return fmt.Sprintf("%s:%s", s.prefix, kind.String())
}

func (s *Store) initedRedisKey() string {
	return fmt.Sprintf("%s:%s", s.prefix, initedKey)
}

// Init atomically replaces the entire store contents.
func (s *Store) Init(allData map[datastore.Kind]map[string]datastore.Item) error {
	ctx := context.Background()
	pipe := s.client.TxPipeline()
	for _, kind := range datastore.AllKinds {
		pipe.Del(ctx, s.kindKey(kind))
	}
	for kind, items := range allData {
		baseKey := s.kindKey(kind)
		for key, item := range items {
			data, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("failed to marshal %s key %s: %w", kind, key, err)
			}
			pipe.HSet(ctx, baseKey, key, data)
		}
	}
	pipe.Set(ctx, s.initedRedisKey(), "", 0)
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns a single item, or nil if absent or deleted.
func (s *Store) Get(kind datastore.Kind, key string) (datastore.Item, error) {
	ctx := context.Background()
	raw, err := s.client.HGet(ctx, s.kindKey(kind), key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item, err := unmarshalItem(kind, []byte(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s key %s: %w", kind, key, err)
	}
	if item.IsDeleted() {
		return nil, nil
	}
	return item, nil
}

// All returns every non-deleted item of a kind.
func (s *Store) All(kind datastore.Kind) (map[string]datastore.Item, error) {
	ctx := context.Background()
	raw, err := s.client.HGetAll(ctx, s.kindKey(kind)).Result()
	if err != nil {
		return nil, err
	}
	result := make(map[string]datastore.Item, len(raw))
	for key, value := range raw {
		item, err := unmarshalItem(kind, []byte(value))
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s key %s: %w", kind, key, err)
		}
		if !item.IsDeleted() {
			result[key] = item
		}
	}
	return result, nil
}

// Upsert stores item unless an existing entry has version >= item's version.
func (s *Store) Upsert(kind datastore.Kind, item datastore.Item) error {
	ctx := context.Background()
	baseKey := s.kindKey(kind)
	key := item.GetKey()

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s key %s: %w", kind, key, err)
	}

	txf := func(tx *redis.Tx) error {
		existingRaw, err := tx.HGet(ctx, baseKey, key).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			existing, parseErr := unmarshalItem(kind, []byte(existingRaw))
			if parseErr == nil && existing.GetVersion() >= item.GetVersion() {
				s.loggers.Debugf("attempted to upsert key %s with a version that is the same or older: %d",
					key, item.GetVersion())
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, baseKey, key, data)
			return nil
		})
		return err
	}

	err = s.client.Watch(ctx, txf, baseKey)
	if err == redis.TxFailedErr {
		s.loggers.Debug("concurrent modification detected, retrying upsert")
		return s.Upsert(kind, item)
	}
	return err
}

// Delete is a versioned upsert of a deletion tombstone.
func (s *Store) Delete(kind datastore.Kind, key string, version int) error {
	return s.Upsert(kind, kind.MakeDeletedItem(key, version))
}

// Initialized reports whether Init has ever succeeded.
func (s *Store) Initialized() bool {
	ctx := context.Background()
	n, err := s.client.Exists(ctx, s.initedRedisKey()).Result()
	return err == nil && n > 0
}

func unmarshalItem(kind datastore.Kind, raw []byte) (datastore.Item, error) {
	switch kind {
	case datastore.Features:
		var f fmodel.FeatureFlag
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		return f, nil
	case datastore.Segments:
		var seg fmodel.Segment
		if err := json.Unmarshal(raw, &seg); err != nil {
			return nil, err
		}
		return seg, nil
	}
	return nil, fmt.Errorf("unrecognized kind %s", kind.String())
}
