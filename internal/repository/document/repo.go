// Package document persists tender notices in the key-value store. The
// store is the source of truth; the in-process lexical and vector indexes
// are projections rebuilt from it on startup.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maplebid/tendex/internal/db"
	"github.com/maplebid/tendex/internal/domain"
)

const keyPrefix = "tendex:tender:"

// loadBatch bounds one HGetAllMulti round-trip during snapshot load.
const loadBatch = 200

// store is the consumer interface for tender persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Stored is a persisted tender together with its embedding (nil when the
// tender was stored before an embedding could be computed).
type Stored struct {
	Doc    domain.Document
	Vector []float32
}

// Repo implements the ingest and search services' document storage.
type Repo struct {
	store store
}

// New creates a tender repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put creates or updates a tender. Returns true if created.
func (r *Repo) Put(ctx context.Context, doc *domain.Document, vec []float32) (bool, error) {
	key := docKey(doc.ID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, storageErr("check exists "+key, err)
	}

	if err := r.store.HSet(ctx, key, buildHashFields(doc, vec)); err != nil {
		return false, storageErr("hset "+key, err)
	}

	return !exists, nil
}

// Get returns a tender by ID.
func (r *Repo) Get(ctx context.Context, id string) (Stored, error) {
	key := docKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return Stored{}, storageErr("hgetall "+key, err)
	}
	// HGETALL on a missing key returns an empty map, not an error.
	if len(m) == 0 {
		return Stored{}, domain.ErrNotFound
	}
	doc, vec := parseHashFields(id, m)
	return Stored{Doc: doc, Vector: vec}, nil
}

// Delete removes a tender.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := docKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return storageErr("check exists "+key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return storageErr("del "+key, err)
	}
	return nil
}

// All streams every stored tender in batches. Used for the startup
// snapshot load that rebuilds the in-process indexes.
func (r *Repo) All(ctx context.Context, fn func(Stored) error) error {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return storageErr("scan", err)
	}

	for start := 0; start < len(keys); start += loadBatch {
		end := start + loadBatch
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]

		maps, err := r.store.HGetAllMulti(ctx, batch)
		if err != nil {
			return storageErr("hgetall batch", err)
		}
		for i, m := range maps {
			if len(m) == 0 {
				continue
			}
			doc, vec := parseHashFields(docID(batch[i]), m)
			if err := fn(Stored{Doc: doc, Vector: vec}); err != nil {
				return err
			}
		}
	}
	return nil
}

func docKey(id string) string {
	return keyPrefix + id
}

func docID(key string) string {
	return strings.TrimPrefix(key, keyPrefix)
}

// storageErr tags store failures so the transport layer can answer 503.
// Key-not-found is handled by callers and never reaches here.
func storageErr(op string, err error) error {
	if errors.Is(err, db.ErrKeyNotFound) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
