package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagcask/tagcask/internal/index"
)

func TestFileRoundTrip(t *testing.T) {
	c := New()

	assert.Nil(t, c.File("deadbeef"))

	f := &index.File{Hash: "deadbeef", Name: "photo.png"}
	require.NoError(t, c.PutFile(f))
	assert.Same(t, f, c.File("deadbeef"))

	require.NoError(t, c.EvictFile("deadbeef"))
	assert.Nil(t, c.File("deadbeef"))
}

func TestTagInfoRoundTrip(t *testing.T) {
	c := New()

	info := &index.TagInfo{Name: "sunset", Count: 3}
	require.NoError(t, c.PutTagInfo(info))
	assert.Same(t, info, c.TagInfo("sunset"))

	require.NoError(t, c.EvictTagInfo("sunset"))
	assert.Nil(t, c.TagInfo("sunset"))
}

func TestResultsDistinguishEmptyFromMiss(t *testing.T) {
	c := New()

	_, ok := c.Results("sunset -beach")
	assert.False(t, ok)

	require.NoError(t, c.PutResults("sunset -beach", []string{}))
	hashes, ok := c.Results("sunset -beach")
	assert.True(t, ok)
	assert.Empty(t, hashes)
}

func TestClearResults(t *testing.T) {
	c := New()

	require.NoError(t, c.PutResults("a", []string{"h1"}))
	require.NoError(t, c.PutResults("b", []string{"h2", "h3"}))

	require.NoError(t, c.ClearResults())

	_, ok := c.Results("a")
	assert.False(t, ok)
	_, ok = c.Results("b")
	assert.False(t, ok)
}

func TestThumbnails(t *testing.T) {
	c := New()

	small := ThumbLabel{Hash: "abc", Width: 64, Height: 64}
	big := ThumbLabel{Hash: "abc", Width: 512, Height: 512}
	other := ThumbLabel{Hash: "def", Width: 64, Height: 64}

	require.NoError(t, c.PutThumbnail(small, "/tmp/abc-64.png"))
	require.NoError(t, c.PutThumbnail(big, "/tmp/abc-512.png"))
	require.NoError(t, c.PutThumbnail(other, "/tmp/def-64.png"))

	assert.Equal(t, "/tmp/abc-64.png", c.Thumbnail(small))

	require.NoError(t, c.EvictThumbnails("abc"))
	assert.Empty(t, c.Thumbnail(small))
	assert.Empty(t, c.Thumbnail(big))
	assert.Equal(t, "/tmp/def-64.png", c.Thumbnail(other))
}

func TestContendedReadIsMiss(t *testing.T) {
	c := New()
	f := &index.File{Hash: "cafe"}
	require.NoError(t, c.PutFile(f))

	c.filesMu.Lock()
	assert.Nil(t, c.File("cafe"))
	assert.ErrorIs(t, c.PutFile(f), ErrContended)
	c.filesMu.Unlock()

	assert.Same(t, f, c.File("cafe"))
}
