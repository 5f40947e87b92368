package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityIDPacking(t *testing.T) {
	id := NewEntityID(7, 3)
	assert.Equal(t, uint32(7), id.Index())
	assert.Equal(t, uint32(3), id.Generation())
	assert.False(t, id.IsZero())
	assert.True(t, EntityID(0).IsZero())
}

func TestEntityPoolReusesLowestIndex(t *testing.T) {
	p := NewEntityPool(4)
	ids := make([]EntityID, 5)
	for i := range ids {
		ids[i] = p.Create()
		assert.Equal(t, uint32(i), ids[i].Index())
		assert.Equal(t, uint32(1), ids[i].Generation())
	}

	require.True(t, p.Destroy(ids[3]))
	require.True(t, p.Destroy(ids[1]))
	require.False(t, p.Destroy(ids[1]), "double destroy is ignored")
	assert.Equal(t, 3, p.Len())

	a := p.Create()
	b := p.Create()
	c := p.Create()
	assert.Equal(t, uint32(1), a.Index())
	assert.Equal(t, uint32(2), a.Generation())
	assert.Equal(t, uint32(3), b.Index())
	assert.Equal(t, uint32(5), c.Index())
	assert.Equal(t, 6, p.Cap())
}

func TestEntityPoolStaleIDs(t *testing.T) {
	p := NewEntityPool(0)
	old := p.Create()
	require.True(t, p.Alive(old))

	p.Destroy(old)
	assert.False(t, p.Alive(old))
	_, ok := p.Current(old.Index())
	assert.False(t, ok)

	fresh := p.Create()
	assert.Equal(t, old.Index(), fresh.Index())
	assert.NotEqual(t, old, fresh)
	assert.False(t, p.Alive(old))
	assert.True(t, p.Alive(fresh))

	cur, ok := p.Current(fresh.Index())
	assert.True(t, ok)
	assert.Equal(t, fresh, cur)

	assert.False(t, p.Alive(NewEntityID(99, 1)))
	assert.False(t, p.Alive(0))
}

func TestEntitySetIterationUnderMutation(t *testing.T) {
	s := newEntitySet()
	for i := uint32(0); i < 4; i++ {
		s.add(NewEntityID(i, 1))
	}

	var seen []uint32
	s.each(func(id EntityID) {
		seen = append(seen, id.Index())
		switch id.Index() {
		case 0:
			s.remove(NewEntityID(2, 1))
			s.add(NewEntityID(9, 1))
		case 1:
			s.remove(NewEntityID(1, 1))
		}
	})
	assert.Equal(t, []uint32{0, 1, 3, 9}, seen)
	assert.Equal(t, 3, s.len())
	assert.False(t, s.has(NewEntityID(2, 1)))

	// Compaction runs once iteration ends and tombstones dominate.
	s.remove(NewEntityID(0, 1))
	assert.Equal(t, 2, s.len())
	assert.Zero(t, s.holes)
	var after []uint32
	s.each(func(id EntityID) { after = append(after, id.Index()) })
	assert.Equal(t, []uint32{3, 9}, after)
}

func TestEntitySetRejoinDuringIteration(t *testing.T) {
	s := newEntitySet()
	for i := uint32(0); i < 3; i++ {
		s.add(NewEntityID(i, 1))
	}

	visits := map[uint32]int{}
	s.each(func(id EntityID) {
		visits[id.Index()]++
		require.Less(t, visits[id.Index()], 2, "entity %d visited twice", id.Index())
		// Leave and rejoin, the way a component replacement does.
		require.True(t, s.remove(id))
		require.True(t, s.add(id))
		if id.Index() == 0 {
			s.remove(NewEntityID(2, 1))
			s.add(NewEntityID(2, 1))
		}
	})
	assert.Equal(t, map[uint32]int{0: 1, 1: 1, 2: 1}, visits)
	assert.Equal(t, 3, s.len())
	assert.Zero(t, s.holes)

	var order []uint32
	s.each(func(id EntityID) { order = append(order, id.Index()) })
	assert.Equal(t, []uint32{0, 1, 2}, order)

	// Outside iteration a rejoin goes to the back.
	s.remove(NewEntityID(0, 1))
	s.add(NewEntityID(0, 1))
	order = order[:0]
	s.each(func(id EntityID) { order = append(order, id.Index()) })
	assert.Equal(t, []uint32{1, 2, 0}, order)
}

func TestEntitySetReplacesStaleGeneration(t *testing.T) {
	s := newEntitySet()
	s.add(NewEntityID(5, 1))
	assert.True(t, s.add(NewEntityID(5, 2)))
	assert.False(t, s.has(NewEntityID(5, 1)))
	assert.True(t, s.has(NewEntityID(5, 2)))
	assert.Equal(t, 1, s.len())
}
