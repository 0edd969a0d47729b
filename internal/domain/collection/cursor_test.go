package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor_Wraps(t *testing.T) {
	c := NewCursor([]Restaurant{{Name: "a"}, {Name: "b"}, {Name: "c"}})

	cur, ok := c.Current()
	assert.True(t, ok)
	assert.Equal(t, "a", cur.Name)

	prev, _ := c.Prev()
	assert.Equal(t, "c", prev.Name)
	assert.Equal(t, 2, c.Index())

	next, _ := c.Next()
	assert.Equal(t, "a", next.Name)
	next, _ = c.Next()
	assert.Equal(t, "b", next.Name)
}

func TestCursor_Empty(t *testing.T) {
	c := NewCursor(nil)

	_, ok := c.Current()
	assert.False(t, ok)
	_, ok = c.Next()
	assert.False(t, ok)
	_, ok = c.Prev()
	assert.False(t, ok)
	assert.Equal(t, -1, c.Index())
}

func TestCursor_Select(t *testing.T) {
	c := NewCursor([]Restaurant{{Name: "a"}, {Name: "b"}})

	r, ok := c.Select(1)
	assert.True(t, ok)
	assert.Equal(t, "b", r.Name)

	_, ok = c.Select(5)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Index())
}
