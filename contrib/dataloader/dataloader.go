// Package dataloader batches and reorders keyed loads. The relation
// package uses it to eager load a relation for many parents with a
// handful of IN queries instead of one query per parent.
//
// # Basic Usage
//
// Load the children of many parents and hand each parent its own slice:
//
//	posts, err := dataloader.Load(ctx, userIDs, 500, func(ctx context.Context, ids []string) ([]*Post, error) {
//	    return manager.GetTo[Post](ctx, m.SelectFromTable("posts", func(q *query.Builder) {
//	        q.In("user_id", ids)
//	    }))
//	})
//	grouped := dataloader.GroupByKey(posts, func(p *Post) string { return p.UserID })
//	ordered := dataloader.OrderGroupsByKeys(userIDs, grouped)
//	// ordered[i] holds the posts of userIDs[i]
package dataloader

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when an entity is not found in a batch result.
var ErrNotFound = errors.New("dataloader: entity not found")

// DefaultBatchSize bounds the number of keys sent in one batch.
const DefaultBatchSize = 500

// maxConcurrentBatches limits the batches Load runs at the same time.
const maxConcurrentBatches = 4

// KeyFunc extracts a key from an entity.
type KeyFunc[K comparable, V any] func(V) K

// BatchFunc loads the entities of a batch of keys. The result may be in
// any order and may miss keys.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, error)

// Unique returns keys without duplicates, keeping the first occurrence.
func Unique[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Chunk splits keys into batches of at most size keys. A size below one
// puts every key in a single batch.
func Chunk[K any](keys []K, size int) [][]K {
	if len(keys) == 0 {
		return nil
	}
	if size < 1 || size >= len(keys) {
		return [][]K{keys}
	}
	out := make([][]K, 0, (len(keys)+size-1)/size)
	for size < len(keys) {
		keys, out = keys[size:], append(out, keys[:size:size])
	}
	return append(out, keys)
}

// Load deduplicates keys, splits them into batches of size and runs fn
// for every batch. Batches run concurrently and the first error cancels
// the rest. Values are returned in batch order.
func Load[K comparable, V any](ctx context.Context, keys []K, size int, fn BatchFunc[K, V]) ([]V, error) {
	batches := Chunk(Unique(keys), size)
	switch len(batches) {
	case 0:
		return nil, nil
	case 1:
		return fn(ctx, batches[0])
	}
	results := make([][]V, len(batches))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)
	for i, batch := range batches {
		g.Go(func() error {
			vs, err := fn(ctx, batch)
			if err != nil {
				return err
			}
			results[i] = vs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []V
	for _, vs := range results {
		out = append(out, vs...)
	}
	return out, nil
}

// OrderByKeys reorders entities to match the order of requested keys.
// Missing entities are represented as zero values with corresponding errors.
//
// The result has the same length and order as keys, so result[i] belongs
// to keys[i].
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = ErrNotFound
		}
	}
	return result, errs
}

// OrderByKeysNoError reorders entities to match the order of requested keys.
// Returns zero values for missing entities without errors.
// Use this when missing entities are acceptable (e.g., optional relationships).
func OrderByKeysNoError[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) []V {
	result, _ := OrderByKeys(keys, values, keyFn)
	return result
}

// GroupByKey groups entities by a key function.
// Useful for one-to-many relationships where multiple entities share the same foreign key.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}

// OrderGroupsByKeys reorders grouped entities to match the order of requested keys.
// Returns a slice of slices where each inner slice contains entities for that key.
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	result := make([][]V, len(keys))
	for i, key := range keys {
		result[i] = groups[key]
	}
	return result
}
