// internal/sched/readyset.go

package sched

import (
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/emirpasic/gods/trees/redblacktree"
)

// Comparator orders two tasks: negative if a runs first, positive if b does.
// Every comparator in this package ends with the task id, so no two distinct
// tasks compare equal.
type Comparator func(a, b *Task) int

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// BySJF orders by burst, then arrival, then id.
func BySJF(a, b *Task) int {
	if c := compareInt64(a.Burst, b.Burst); c != 0 {
		return c
	}
	if c := compareInt64(a.Arrival, b.Arrival); c != 0 {
		return c
	}
	return compareInt64(int64(a.ID), int64(b.ID))
}

// ByPriority orders by priority value (lower first), then arrival, then id.
func ByPriority(a, b *Task) int {
	if c := compareInt64(int64(a.Priority), int64(b.Priority)); c != 0 {
		return c
	}
	if c := compareInt64(a.Arrival, b.Arrival); c != 0 {
		return c
	}
	return compareInt64(int64(a.ID), int64(b.ID))
}

// ByArrival orders by arrival, then id.
func ByArrival(a, b *Task) int {
	if c := compareInt64(a.Arrival, b.Arrival); c != 0 {
		return c
	}
	return compareInt64(int64(a.ID), int64(b.ID))
}

// ReadyHeap is a binary min-heap of tasks under an explicit comparator.
// Keys must not change while a task is inside the heap.
type ReadyHeap struct {
	h *binaryheap.Heap
}

// NewReadyHeap creates an empty heap ordered by order.
func NewReadyHeap(order Comparator) *ReadyHeap {
	return &ReadyHeap{h: binaryheap.NewWith(func(a, b interface{}) int {
		return order(a.(*Task), b.(*Task))
	})}
}

// Push inserts t.
func (r *ReadyHeap) Push(t *Task) { r.h.Push(t) }

// Pop removes and returns the minimal task.
func (r *ReadyHeap) Pop() (*Task, bool) {
	v, ok := r.h.Pop()
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

// peek returns the minimal task without removing it.
func (r *ReadyHeap) peek() (*Task, bool) {
	v, ok := r.h.Peek()
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

// Len returns the number of tasks in the heap.
func (r *ReadyHeap) Len() int { return r.h.Size() }

// nodeKey is used as a key in the red-black tree.
type nodeKey struct {
	key int64
	id  TaskID
}

// nodeKeyCmp orders red-black tree keys: key first, then task id.
func nodeKeyCmp(a, b any) int {
	ka, kb := a.(nodeKey), b.(nodeKey)
	switch {
	case ka.key < kb.key:
		return -1
	case ka.key > kb.key:
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}

// OrderedSet keeps tasks ordered by (key, id) in a red-black tree. Unlike
// ReadyHeap it can drop an arbitrary member, which the real-time engine needs
// when an unfinished instance is abandoned.
type OrderedSet struct {
	rbt   *redblacktree.Tree
	keyOf func(*Task) int64
	keys  map[TaskID]nodeKey
}

// NewOrderedSet creates an empty set keyed by keyOf. The key is captured on Put.
func NewOrderedSet(keyOf func(*Task) int64) *OrderedSet {
	return &OrderedSet{
		rbt:   redblacktree.NewWith(nodeKeyCmp),
		keyOf: keyOf,
		keys:  make(map[TaskID]nodeKey),
	}
}

// Put inserts t, replacing any previous entry of the same task.
func (o *OrderedSet) Put(t *Task) {
	o.Remove(t)
	k := nodeKey{key: o.keyOf(t), id: t.ID}
	o.rbt.Put(k, t)
	o.keys[t.ID] = k
}

// PopMin removes and returns the leftmost task.
func (o *OrderedSet) PopMin() (*Task, bool) {
	node := o.rbt.Left()
	if node == nil {
		return nil, false
	}
	t := node.Value.(*Task)
	o.rbt.Remove(node.Key)
	delete(o.keys, t.ID)
	return t, true
}

// first returns the leftmost task without removing it.
func (o *OrderedSet) first() (*Task, bool) {
	node := o.rbt.Left()
	if node == nil {
		return nil, false
	}
	return node.Value.(*Task), true
}

// Remove deletes t if present.
func (o *OrderedSet) Remove(t *Task) bool {
	k, ok := o.keys[t.ID]
	if !ok {
		return false
	}
	o.rbt.Remove(k)
	delete(o.keys, t.ID)
	return true
}

// Len returns the number of members.
func (o *OrderedSet) Len() int { return o.rbt.Size() }
