package ecs

import (
	"container/heap"
)

// EntityID encodes a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
// Generations start at 1, so the zero EntityID never names a live entity.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

// indexHeap is a min-heap of freed slot indices so CreateEntity always
// reuses the lowest free index first.
type indexHeap []uint32

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(uint32)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// EntityPool manages entity allocation with generational indices and a free list.
type EntityPool struct {
	generations []uint32
	alive       []bool
	freeList    indexHeap
	nextIndex   uint32
	live        int
}

func NewEntityPool(capacity int) *EntityPool {
	if capacity <= 0 {
		capacity = 1024
	}
	return &EntityPool{
		generations: make([]uint32, 0, capacity),
		alive:       make([]bool, 0, capacity),
		freeList:    make(indexHeap, 0, capacity/4),
	}
}

func (p *EntityPool) Create() EntityID {
	p.live++
	if p.freeList.Len() > 0 {
		idx := heap.Pop(&p.freeList).(uint32)
		p.alive[idx] = true
		return NewEntityID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	p.generations = append(p.generations, 1)
	p.alive = append(p.alive, true)
	return NewEntityID(idx, 1)
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.alive[idx] && p.generations[idx] == id.Generation()
}

// Destroy retires id and returns its index to the free list. Stale or
// already-destroyed ids are ignored.
func (p *EntityPool) Destroy(id EntityID) bool {
	if !p.Alive(id) {
		return false
	}
	idx := id.Index()
	p.alive[idx] = false
	p.generations[idx]++
	if p.generations[idx] == 0 {
		p.generations[idx] = 1
	}
	heap.Push(&p.freeList, idx)
	p.live--
	return true
}

// Current returns the id currently occupying index, if any.
func (p *EntityPool) Current(index uint32) (EntityID, bool) {
	if index >= p.nextIndex || !p.alive[index] {
		return 0, false
	}
	return NewEntityID(index, p.generations[index]), true
}

// Len reports the number of live ids.
func (p *EntityPool) Len() int { return p.live }

// Cap reports the number of slot indices ever handed out.
func (p *EntityPool) Cap() int { return int(p.nextIndex) }
