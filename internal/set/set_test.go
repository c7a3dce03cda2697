package set_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/set"
)

func TestSet(t *testing.T) {
	t.Run("can create from elements", func(t *testing.T) {
		s := set.Of(1, 2, 3)
		assert.Equal(t, 3, s.Size())
		assert.True(t, s.Contains(2))
		assert.False(t, s.Contains(4))
	})
	t.Run("zero value is usable", func(t *testing.T) {
		var s set.Set[string]
		assert.Equal(t, 0, s.Size())
		assert.False(t, s.Contains("x"))
		s.Add("x")
		assert.True(t, s.Contains("x"))
	})
	t.Run("can delete elements", func(t *testing.T) {
		s := set.Of(1, 2)
		s.Delete(1, 3)
		assert.True(t, s.Equal(set.Of(2)))
	})
	t.Run("can clear", func(t *testing.T) {
		s := set.Of(1, 2)
		s.Clear()
		assert.Equal(t, 0, s.Size())
	})
	t.Run("slice contains all elements", func(t *testing.T) {
		s := set.Of("a", "b")
		assert.ElementsMatch(t, []string{"a", "b"}, s.Slice())
	})
	t.Run("clone is independent", func(t *testing.T) {
		s := set.Of(1)
		c := s.Clone()
		c.Add(2)
		assert.False(t, s.Contains(2))
	})
	t.Run("all yields every element", func(t *testing.T) {
		s := set.Of(1, 2, 3)
		got := set.Collect(s.All())
		assert.True(t, got.Equal(s))
	})
}

func TestSetOperations(t *testing.T) {
	a := set.Of(1, 2, 3)
	b := set.Of(3, 4)
	t.Run("union", func(t *testing.T) {
		assert.True(t, set.Union(a, b).Equal(set.Of(1, 2, 3, 4)))
	})
	t.Run("intersect", func(t *testing.T) {
		assert.True(t, set.Intersect(a, b).Equal(set.Of(3)))
	})
	t.Run("difference", func(t *testing.T) {
		assert.True(t, set.Difference(a, b).Equal(set.Of(1, 2)))
	})
}
