// Package catalog composes the content store, the tag index and the
// result cache into the operations the presentation layers call:
// upload, update, remove, lookup and search.
package catalog

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tagcask/tagcask/internal/cache"
	"github.com/tagcask/tagcask/internal/index"
	"github.com/tagcask/tagcask/internal/query"
	"github.com/tagcask/tagcask/internal/store"
)

// Catalog is a cheaply copyable handle over shared state. The index
// and the store mutator are each guarded by a single mutex: at most
// one index operation and one store mutation run at a time. The cache
// keeps its own per-map try-locks and is never waited on.
type Catalog struct {
	idx     *index.DB
	files   *store.ContentStore
	hasher  *store.Hasher
	results *cache.Cache
	idxMu   *sync.Mutex
	storeMu *sync.Mutex
}

// New wires a catalog over an opened index and content store.
func New(idx *index.DB, files *store.ContentStore, hasher *store.Hasher) Catalog {
	return Catalog{
		idx:     idx,
		files:   files,
		hasher:  hasher,
		results: cache.New(),
		idxMu:   &sync.Mutex{},
		storeMu: &sync.Mutex{},
	}
}

// dropCacheErr logs a skipped cache write and moves on. Caching is an
// optimization; a lost write never fails the triggering operation.
func dropCacheErr(op string, err error) {
	if err != nil {
		log.Printf("cache write skipped during %s: %v", op, err)
	}
}

// Upload ingests the file at srcPath under the given tags. Identical
// byte content is deduplicated: a second upload of the same bytes
// updates the existing record instead of storing a second copy.
func (c Catalog) Upload(srcPath string, tags map[string]bool, notes, transcript string) (*index.File, error) {
	for tag := range tags {
		if err := query.ValidateTagName(tag); err != nil {
			return nil, fmt.Errorf("upload %s: %w", srcPath, err)
		}
	}

	hash, err := c.hasher.HashFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", srcPath, err)
	}

	file := &index.File{
		Hash:       hash,
		Name:       filepath.Base(srcPath),
		Path:       srcPath,
		Tags:       tags,
		Notes:      notes,
		Transcript: transcript,
	}
	if err := c.Update(file); err != nil {
		return nil, err
	}
	return file, nil
}

// Update applies a record's tag set, notes and transcript. A hash not
// seen before is materialized into the store and inserted first. An
// empty tag set deletes the file outright: no tags means the file
// does not exist. Every carried tag's usage counter is bumped by one;
// counters drift and are repaired by SyncTagCount on demand.
func (c Catalog) Update(file *index.File) error {
	dropCacheErr("update", c.results.ClearResults())

	c.idxMu.Lock()
	defer c.idxMu.Unlock()

	existing, err := c.idx.FileByHash(file.Hash)
	switch {
	case errors.Is(err, index.ErrNotFound):
		storedPath, err := c.materialize(file.Path, file.Hash)
		if err != nil {
			return fmt.Errorf("update %s: %w", file.Hash, err)
		}
		file.Path = storedPath
		if err := c.idx.AddFile(file); err != nil {
			return fmt.Errorf("update %s: %w", file.Hash, err)
		}
	case err != nil:
		return fmt.Errorf("update %s: %w", file.Hash, err)
	default:
		file.Path = existing.Path
		file.UploadedAt = existing.UploadedAt
		if len(file.Tags) == 0 {
			return c.deleteLocked(existing)
		}
	}

	dropCacheErr("update", c.results.PutFile(file))

	if err := c.idx.UpdateTags(file); err != nil {
		return fmt.Errorf("update %s: %w", file.Hash, err)
	}
	for _, tag := range file.TagList() {
		if err := c.idx.AddTag(tag); err != nil {
			return fmt.Errorf("update %s: tag %q: %w", file.Hash, tag, err)
		}
		if err := c.idx.IncTagCount(tag); err != nil {
			return fmt.Errorf("update %s: tag %q: %w", file.Hash, tag, err)
		}
		dropCacheErr("update", c.results.EvictTagInfo(tag))
	}
	return nil
}

// Remove deletes a file by hash: each carried tag's counter is
// decremented, then the metadata row, membership rows and stored file
// go away. Counter decrements continue past individual failures and
// the errors are collected, so one bad tag row cannot strand the
// file's bytes on disk.
func (c Catalog) Remove(hash string) error {
	dropCacheErr("remove", c.results.ClearResults())

	c.idxMu.Lock()
	defer c.idxMu.Unlock()

	file, err := c.idx.FileByHash(hash)
	if err != nil {
		return fmt.Errorf("remove %s: %w", hash, err)
	}
	return c.deleteLocked(file)
}

// deleteLocked removes a known record. Caller holds idxMu.
func (c Catalog) deleteLocked(file *index.File) error {
	var errs []error
	for _, tag := range file.TagList() {
		if err := c.idx.DecTagCount(tag); err != nil {
			errs = append(errs, fmt.Errorf("tag %q: %w", tag, err))
		}
		dropCacheErr("remove", c.results.EvictTagInfo(tag))
	}

	if err := c.idx.RemoveFile(file.Hash); err != nil {
		errs = append(errs, err)
	} else {
		c.storeMu.Lock()
		if err := c.files.Remove(file.Path); err != nil {
			errs = append(errs, err)
		}
		c.storeMu.Unlock()
	}

	dropCacheErr("remove", c.results.EvictFile(file.Hash))
	dropCacheErr("remove", c.results.EvictThumbnails(file.Hash))

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("remove %s: %w", file.Hash, err)
	}
	return nil
}

func (c Catalog) materialize(srcPath, hash string) (string, error) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	return c.files.Materialize(srcPath, hash)
}

// Lookup returns the record for a hash, read through the cache.
// Returns index.ErrNotFound for unknown hashes.
func (c Catalog) Lookup(hash string) (*index.File, error) {
	if file := c.results.File(hash); file != nil {
		return file, nil
	}

	c.idxMu.Lock()
	file, err := c.idx.FileByHash(hash)
	c.idxMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", hash, err)
	}

	dropCacheErr("lookup", c.results.PutFile(file))
	return file, nil
}

// Search parses the query text and returns the hashes of matching
// files in lexicographic order. Results are cached under the query's
// canonical form until the next mutation.
func (c Catalog) Search(text string) ([]string, error) {
	expr, err := query.Parse(text)
	if err != nil {
		return nil, err
	}

	key := expr.String()
	if hashes, ok := c.results.Results(key); ok {
		return hashes, nil
	}

	c.idxMu.Lock()
	hashes, err := c.searchLocked(expr)
	c.idxMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}

	dropCacheErr("search", c.results.PutResults(key, hashes))
	return hashes, nil
}

// searchLocked seeds candidates from the rarest plain tag in the
// expression, falling back to a full scan when the expression carries
// no plain tag, then filters each candidate against its current tags.
func (c Catalog) searchLocked(expr query.Search) ([]string, error) {
	candidates, err := c.seedCandidates(expr)
	if err != nil {
		return nil, err
	}

	matches := make([]string, 0, len(candidates))
	for hash := range candidates {
		file, err := c.idx.FileByHash(hash)
		if errors.Is(err, index.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if expr.Match(file.Tags) {
			matches = append(matches, hash)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (c Catalog) seedCandidates(expr query.Search) (map[string]bool, error) {
	seed, ok := expr.CheapestTag(func(tag string) int64 {
		count, err := c.idx.TagCount(tag)
		if err != nil {
			return 0
		}
		return count
	})
	if !ok {
		return c.idx.AllHashes()
	}

	hashes, err := c.idx.HashesForTag(seed)
	if errors.Is(err, index.ErrUnknownTag) {
		return nil, nil
	}
	return hashes, err
}

// TagInfo returns a tag's usage counter, read through the cache.
// Returns index.ErrUnknownTag for tags with no counter row.
func (c Catalog) TagInfo(tag string) (*index.TagInfo, error) {
	if info := c.results.TagInfo(tag); info != nil {
		return info, nil
	}

	c.idxMu.Lock()
	info, err := c.idx.TagInfoByName(tag)
	c.idxMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("tag info %q: %w", tag, err)
	}

	dropCacheErr("tag info", c.results.PutTagInfo(info))
	return info, nil
}

// SyncTagCount recomputes a tag's counter from the membership table.
func (c Catalog) SyncTagCount(tag string) (int64, error) {
	c.idxMu.Lock()
	defer c.idxMu.Unlock()

	count, err := c.idx.SyncTagCount(tag)
	if err != nil {
		return 0, fmt.Errorf("sync %q: %w", tag, err)
	}
	dropCacheErr("sync", c.results.EvictTagInfo(tag))
	return count, nil
}

// TagsStartingWith groups matching tag names into buckets by usage
// count ascending, for autocomplete ranking.
func (c Catalog) TagsStartingWith(prefix string) ([]index.TagBucket, error) {
	c.idxMu.Lock()
	defer c.idxMu.Unlock()
	return c.idx.TagsStartingWith(prefix)
}

// AllHashes returns every indexed content hash in lexicographic order.
func (c Catalog) AllHashes() ([]string, error) {
	c.idxMu.Lock()
	set, err := c.idx.AllHashes()
	c.idxMu.Unlock()
	if err != nil {
		return nil, err
	}

	hashes := make([]string, 0, len(set))
	for hash := range set {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)
	return hashes, nil
}

// FileCount returns the number of indexed files.
func (c Catalog) FileCount() (int64, error) {
	c.idxMu.Lock()
	defer c.idxMu.Unlock()
	return c.idx.FileCount()
}

// TagCount returns the number of tags with a live counter row.
func (c Catalog) TagCount() (int64, error) {
	c.idxMu.Lock()
	defer c.idxMu.Unlock()
	return c.idx.TagStatsCount()
}

// StoreSize returns the total bytes held in the content store.
func (c Catalog) StoreSize() (int64, error) {
	return c.files.Size()
}

// Ping verifies the index connection is alive.
func (c Catalog) Ping() error {
	return c.idx.Ping()
}

// Cache exposes the result cache, for thumbnail consumers.
func (c Catalog) Cache() *cache.Cache {
	return c.results
}
