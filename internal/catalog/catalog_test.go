package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagcask/tagcask/internal/index"
	"github.com/tagcask/tagcask/internal/store"
)

func newCatalog(t *testing.T) Catalog {
	t.Helper()
	dir := t.TempDir()

	idx, err := index.New(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	files, err := store.Open(filepath.Join(dir, "store"))
	require.NoError(t, err)

	return New(idx, files, store.NewHasher("blake3", 0))
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func tags(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func storedFileCount(t *testing.T, c Catalog) int {
	t.Helper()
	entries, err := os.ReadDir(c.files.FilesDir())
	require.NoError(t, err)
	return len(entries)
}

func TestUploadAndLookup(t *testing.T) {
	c := newCatalog(t)
	src := writeSource(t, "cat.png", "meow")

	file, err := c.Upload(src, tags("animal", "cat"), "a note", "")
	require.NoError(t, err)
	require.Len(t, file.Hash, 64)

	got, err := c.Lookup(file.Hash)
	require.NoError(t, err)
	assert.Equal(t, "cat.png", got.Name)
	assert.Equal(t, tags("animal", "cat"), got.Tags)
	assert.Equal(t, "a note", got.Notes)
	assert.NotEqual(t, src, got.Path)
	assert.FileExists(t, got.Path)
}

func TestUploadRejectsBadTag(t *testing.T) {
	c := newCatalog(t)
	src := writeSource(t, "cat.png", "meow")

	_, err := c.Upload(src, tags("-bad"), "", "")
	require.Error(t, err)
}

func TestUploadDedup(t *testing.T) {
	c := newCatalog(t)
	first := writeSource(t, "one.bin", "same bytes")
	second := writeSource(t, "two.bin", "same bytes")

	a, err := c.Upload(first, tags("dup"), "", "")
	require.NoError(t, err)
	b, err := c.Upload(second, tags("dup", "again"), "", "")
	require.NoError(t, err)

	assert.Equal(t, a.Hash, b.Hash)
	count, err := c.FileCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 1, storedFileCount(t, c))

	got, err := c.Lookup(a.Hash)
	require.NoError(t, err)
	assert.Equal(t, tags("dup", "again"), got.Tags)
}

func TestUpdateRoundTrip(t *testing.T) {
	c := newCatalog(t)
	src := writeSource(t, "doc.txt", "contents")

	file, err := c.Upload(src, tags("draft"), "", "")
	require.NoError(t, err)

	file.Tags = tags("final", "reviewed")
	file.Transcript = "spoken words"
	require.NoError(t, c.Update(file))

	got, err := c.Lookup(file.Hash)
	require.NoError(t, err)
	assert.Equal(t, tags("final", "reviewed"), got.Tags)
	assert.Equal(t, "spoken words", got.Transcript)
}

func TestUpdateEmptyTagsDeletes(t *testing.T) {
	c := newCatalog(t)
	src := writeSource(t, "gone.txt", "ephemeral")

	file, err := c.Upload(src, tags("temp"), "", "")
	require.NoError(t, err)
	stored := file.Path

	file.Tags = nil
	require.NoError(t, c.Update(file))

	_, err = c.Lookup(file.Hash)
	assert.ErrorIs(t, err, index.ErrNotFound)
	assert.NoFileExists(t, stored)
	assert.Equal(t, 0, storedFileCount(t, c))
}

func TestRemove(t *testing.T) {
	c := newCatalog(t)
	src := writeSource(t, "bye.txt", "so long")

	file, err := c.Upload(src, tags("farewell"), "", "")
	require.NoError(t, err)

	require.NoError(t, c.Remove(file.Hash))

	_, err = c.Lookup(file.Hash)
	assert.ErrorIs(t, err, index.ErrNotFound)
	assert.Equal(t, 0, storedFileCount(t, c))

	err = c.Remove(file.Hash)
	assert.ErrorIs(t, err, index.ErrNotFound)
}

func TestCounterSyncMatchesMembership(t *testing.T) {
	c := newCatalog(t)

	const n = 5
	for i := 0; i < n; i++ {
		src := writeSource(t, "f.txt", string(rune('a'+i)))
		_, err := c.Upload(src, tags("bulk"), "", "")
		require.NoError(t, err)
	}

	// Re-tag one file a few times so the counter drifts upward.
	hashes, err := c.AllHashes()
	require.NoError(t, err)
	file, err := c.Lookup(hashes[0])
	require.NoError(t, err)
	require.NoError(t, c.Update(file))
	require.NoError(t, c.Update(file))

	info, err := c.TagInfo("bulk")
	require.NoError(t, err)
	assert.Greater(t, info.Count, int64(n))

	count, err := c.SyncTagCount("bulk")
	require.NoError(t, err)
	assert.EqualValues(t, n, count)
}

func TestSearch(t *testing.T) {
	c := newCatalog(t)

	beach := writeSource(t, "beach.png", "beach pixels")
	city := writeSource(t, "city.png", "city pixels")
	forest := writeSource(t, "forest.png", "forest pixels")

	bf, err := c.Upload(beach, tags("sunset", "sea"), "", "")
	require.NoError(t, err)
	cf, err := c.Upload(city, tags("sunset", "night"), "", "")
	require.NoError(t, err)
	ff, err := c.Upload(forest, tags("trees"), "", "")
	require.NoError(t, err)

	hashes, err := c.Search("sunset -night")
	require.NoError(t, err)
	assert.Equal(t, []string{bf.Hash}, hashes)

	hashes, err = c.Search("sunset ~sea ~night")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{bf.Hash, cf.Hash}, hashes)

	// No file carries both group members, so the negated group
	// matches everything. No plain tag exists outside the negation,
	// which also exercises the full-scan fallback.
	hashes, err = c.Search("-[sunset trees]")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{bf.Hash, cf.Hash, ff.Hash}, hashes)

	hashes, err = c.Search("trees -sunset")
	require.NoError(t, err)
	assert.Equal(t, []string{ff.Hash}, hashes)

	hashes, err = c.Search("nosuchtag")
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestSearchColdAndWarmAgree(t *testing.T) {
	c := newCatalog(t)

	for _, content := range []string{"x", "y", "z"} {
		src := writeSource(t, "n.txt", content)
		_, err := c.Upload(src, tags("note", "v"+content), "", "")
		require.NoError(t, err)
	}

	cold, err := c.Search("note")
	require.NoError(t, err)
	warm, err := c.Search("note")
	require.NoError(t, err)
	assert.Equal(t, cold, warm)
	assert.Len(t, cold, 3)
}

func TestSearchInvalidatedByMutation(t *testing.T) {
	c := newCatalog(t)

	src := writeSource(t, "a.txt", "alpha")
	file, err := c.Upload(src, tags("keep"), "", "")
	require.NoError(t, err)

	hashes, err := c.Search("keep")
	require.NoError(t, err)
	require.Len(t, hashes, 1)

	require.NoError(t, c.Remove(file.Hash))

	hashes, err = c.Search("keep")
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestSearchRejectsBadQuery(t *testing.T) {
	c := newCatalog(t)

	_, err := c.Search("[unclosed")
	require.Error(t, err)
	_, err = c.Search("dangling -")
	require.Error(t, err)
}

func TestTagsStartingWith(t *testing.T) {
	c := newCatalog(t)

	for i, content := range []string{"1", "2", "3"} {
		src := writeSource(t, "p.txt", content)
		tagSet := tags("photo")
		if i == 0 {
			tagSet["phone"] = true
		}
		_, err := c.Upload(src, tagSet, "", "")
		require.NoError(t, err)
	}

	buckets, err := c.TagsStartingWith("ph")
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, []string{"phone"}, buckets[0].Tags)
	assert.Equal(t, []string{"photo"}, buckets[1].Tags)
}
