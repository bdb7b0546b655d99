package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := New(time.Minute)

	c.Set("k", "v")
	got, found := c.GetValue("k")
	require.True(t, found)
	assert.Equal(t, "v", got)

	_, found = c.GetValue("missing")
	assert.False(t, found)
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute)

	c.Set("k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, found := c.GetValue("k")
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	c := New(time.Minute)

	c.Set("k", "v")
	c.Delete("k")

	_, found := c.GetValue("k")
	assert.False(t, found)
	assert.Equal(t, 0, c.Size())
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New(time.Minute)

	urls := []string{"http://x/a.jpg", "http://x/b.jpg"}
	require.NoError(t, c.Marshal("thumbnails_1", urls))

	var got []string
	found, err := c.Unmarshal("thumbnails_1", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, urls, got)

	found, err = c.Unmarshal("thumbnails_2", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
