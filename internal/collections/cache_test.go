package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCollectionPreResolved(t *testing.T) {
	c := New()
	uid, ok := c.Lookup(Path(DefaultScope, DefaultCollection))
	assert.True(t, ok)
	assert.Equal(t, uint32(0), uid)
}

func TestStoreAndLookup(t *testing.T) {
	c := New()
	c.Store(Path("inventory", "airline"), 9)

	uid, ok := c.Lookup(Path("inventory", "airline"))
	assert.True(t, ok)
	assert.Equal(t, uint32(9), uid)
}

func TestInvalidateRemovesEntry(t *testing.T) {
	c := New()
	c.Store(Path("inventory", "airline"), 9)
	c.Invalidate(Path("inventory", "airline"))

	_, ok := c.Lookup(Path("inventory", "airline"))
	assert.False(t, ok)
}

func TestClearResetsToDefaultOnly(t *testing.T) {
	c := New()
	c.Store(Path("inventory", "airline"), 9)
	c.Clear()

	_, ok := c.Lookup(Path("inventory", "airline"))
	assert.False(t, ok)

	_, ok = c.Lookup(Path(DefaultScope, DefaultCollection))
	assert.True(t, ok)
}

func TestIsDefault(t *testing.T) {
	assert.True(t, IsDefault("_default", "_default"))
	assert.False(t, IsDefault("inventory", "airline"))
}
