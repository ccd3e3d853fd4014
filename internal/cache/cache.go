// Package cache provides the in-memory read-through maps in front of
// the index: file records, tag info, search results and thumbnail
// handles. Every map sits behind its own lock and is only ever
// touched with non-blocking lock attempts, so contention degrades to
// a miss instead of stalling the caller.
package cache

import (
	"errors"
	"sync"

	"github.com/tagcask/tagcask/internal/index"
)

// ErrContended is returned by cache writes that lost a lock attempt.
// Callers log and drop it; a skipped write is never a failure of the
// triggering operation.
var ErrContended = errors.New("cache lock contended, write skipped")

// ThumbLabel identifies one rendered thumbnail of a stored file.
type ThumbLabel struct {
	Hash   string
	Width  int
	Height int
}

// Cache bundles the four maps. Locks are per map: contention on
// thumbnails never blocks a tag info read.
type Cache struct {
	filesMu   sync.RWMutex
	files     map[string]*index.File
	tagsMu    sync.RWMutex
	tags      map[string]*index.TagInfo
	resultsMu sync.RWMutex
	results   map[string][]string
	thumbsMu  sync.RWMutex
	thumbs    map[ThumbLabel]string
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		files:   make(map[string]*index.File),
		tags:    make(map[string]*index.TagInfo),
		results: make(map[string][]string),
		thumbs:  make(map[ThumbLabel]string),
	}
}

// File returns the cached record for a hash, or nil on absence or
// lock contention. Both are ordinary misses.
func (c *Cache) File(hash string) *index.File {
	if !c.filesMu.TryRLock() {
		return nil
	}
	defer c.filesMu.RUnlock()
	return c.files[hash]
}

// PutFile caches a record under its hash.
func (c *Cache) PutFile(file *index.File) error {
	if !c.filesMu.TryLock() {
		return ErrContended
	}
	defer c.filesMu.Unlock()
	c.files[file.Hash] = file
	return nil
}

// EvictFile drops the record for a hash.
func (c *Cache) EvictFile(hash string) error {
	if !c.filesMu.TryLock() {
		return ErrContended
	}
	defer c.filesMu.Unlock()
	delete(c.files, hash)
	return nil
}

// TagInfo returns the cached info for a tag, or nil.
func (c *Cache) TagInfo(tag string) *index.TagInfo {
	if !c.tagsMu.TryRLock() {
		return nil
	}
	defer c.tagsMu.RUnlock()
	return c.tags[tag]
}

// PutTagInfo caches tag info under the tag name.
func (c *Cache) PutTagInfo(info *index.TagInfo) error {
	if !c.tagsMu.TryLock() {
		return ErrContended
	}
	defer c.tagsMu.Unlock()
	c.tags[info.Name] = info
	return nil
}

// EvictTagInfo drops the info for a tag.
func (c *Cache) EvictTagInfo(tag string) error {
	if !c.tagsMu.TryLock() {
		return ErrContended
	}
	defer c.tagsMu.Unlock()
	delete(c.tags, tag)
	return nil
}

// Results returns the cached hash list for a canonical query string.
// The second return distinguishes a cached empty result from a miss.
func (c *Cache) Results(query string) ([]string, bool) {
	if !c.resultsMu.TryRLock() {
		return nil, false
	}
	defer c.resultsMu.RUnlock()
	hashes, ok := c.results[query]
	return hashes, ok
}

// PutResults caches the result hashes of a search.
func (c *Cache) PutResults(query string, hashes []string) error {
	if !c.resultsMu.TryLock() {
		return ErrContended
	}
	defer c.resultsMu.Unlock()
	c.results[query] = hashes
	return nil
}

// ClearResults empties the whole search-results map. Called on every
// mutation: coarse invalidation keeps correctness simple at the cost
// of hit rate.
func (c *Cache) ClearResults() error {
	if !c.resultsMu.TryLock() {
		return ErrContended
	}
	defer c.resultsMu.Unlock()
	clear(c.results)
	return nil
}

// Thumbnail returns the cached rendered path for a label, or "".
func (c *Cache) Thumbnail(label ThumbLabel) string {
	if !c.thumbsMu.TryRLock() {
		return ""
	}
	defer c.thumbsMu.RUnlock()
	return c.thumbs[label]
}

// PutThumbnail caches the rendered path for a label.
func (c *Cache) PutThumbnail(label ThumbLabel, path string) error {
	if !c.thumbsMu.TryLock() {
		return ErrContended
	}
	defer c.thumbsMu.Unlock()
	c.thumbs[label] = path
	return nil
}

// EvictThumbnails drops every rendered size of a hash.
func (c *Cache) EvictThumbnails(hash string) error {
	if !c.thumbsMu.TryLock() {
		return ErrContended
	}
	defer c.thumbsMu.Unlock()
	for label := range c.thumbs {
		if label.Hash == hash {
			delete(c.thumbs, label)
		}
	}
	return nil
}
