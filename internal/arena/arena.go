// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package arena provides bump-style allocation for the IR node types that
// live for the lifetime of a single parse: notes, bars, staves and the
// small auxiliary records (slurs, gaps, hairpins, nbar brackets) that get
// recycled across system breaks.
//
// Nodes are referred to by handle (an index into a block), never by
// pointer, so that the arena can grow without invalidating references and
// so ownership of back references inside the IR stays statically obvious.
package arena

// Handle is an opaque reference into an Arena[T]. The zero Handle is never
// issued by Alloc and can be used as a "no value" sentinel.
type Handle int

const invalidHandle Handle = 0

// Arena is a bump allocator for a single node type T. Values are appended
// to blocks of blockSize; blocks are never moved or shrunk, so a Handle
// stays valid for the arena's whole lifetime.
type Arena[T any] struct {
	blockSize int
	blocks    [][]T
}

// New returns an Arena that grows in blocks of blockSize elements.
func New[T any](blockSize int) *Arena[T] {
	if blockSize <= 0 {
		blockSize = 256
	}
	a := &Arena[T]{blockSize: blockSize}
	// Handle 0 is reserved as invalid, so block 0 holds one dummy entry.
	a.blocks = append(a.blocks, make([]T, 1, blockSize))
	return a
}

// Alloc appends v to the arena and returns a Handle that can later be
// passed to Get or Set.
func (a *Arena[T]) Alloc(v T) Handle {
	last := len(a.blocks) - 1
	blk := a.blocks[last]
	if len(blk) == cap(blk) {
		a.blocks = append(a.blocks, make([]T, 0, a.blockSize))
		last++
		blk = a.blocks[last]
	}
	idx := len(blk)
	a.blocks[last] = append(blk, v)
	return a.encode(last, idx)
}

// Get dereferences h. It panics on the invalid (zero) handle, matching the
// arena's "pointers never move, never go away mid-run" contract.
func (a *Arena[T]) Get(h Handle) *T {
	blk, idx := a.decode(h)
	return &a.blocks[blk][idx]
}

// Len returns the number of values allocated so far.
func (a *Arena[T]) Len() int {
	n := -1 // subtract the block-0 dummy slot
	for _, blk := range a.blocks {
		n += len(blk)
	}
	return n
}

// Reset discards every allocation. Existing handles become invalid.
func (a *Arena[T]) Reset() {
	a.blocks = a.blocks[:1]
	a.blocks[0] = a.blocks[0][:1]
}

func (a *Arena[T]) encode(block, idx int) Handle {
	return Handle(block*a.blockSize + idx + 1)
}

func (a *Arena[T]) decode(h Handle) (block, idx int) {
	n := int(h) - 1
	return n / a.blockSize, n % a.blockSize
}

// FreeList is a LIFO stack of recycled handles for one of the auxiliary
// record types (slur, gap, nbar, hairpin, overbeam, uolay, zerocopy-cont).
// Only the parser that owns an Arena mutates its FreeLists; there is no
// concurrent access.
type FreeList struct {
	free []Handle
}

// Push returns h to the free list for reuse at the next system break.
func (f *FreeList) Push(h Handle) {
	f.free = append(f.free, h)
}

// Pop removes and returns the most recently freed handle. ok is false if
// the list is empty.
func (f *FreeList) Pop() (h Handle, ok bool) {
	n := len(f.free)
	if n == 0 {
		return invalidHandle, false
	}
	h = f.free[n-1]
	f.free = f.free[:n-1]
	return h, true
}

// Len reports how many handles are currently recycled.
func (f *FreeList) Len() int { return len(f.free) }
