// Package anchormap provides a hash map with stable entry references:
// pointers to entries survive any number of inserts and table growths
// and are invalidated only by deleting that particular entry.
package anchormap

import (
	"fmt"
	"math"
)

const (
	// initial table size, i.e. number of buckets; the table only
	// grows from here by doubling, it never shrinks
	minBucketCount = 1
)

// Map is a hash map of unique keys to values with the reference
// stability contract of C++'s std::unordered_map. An Insert never
// invalidates a previously obtained *Entry and a Delete invalidates
// only the entry being deleted. This is achieved by keeping all
// entries on a single linked chain that table growth never touches:
// the bucket table indexes entries indirectly, through anchors that
// point at each entry's chain predecessor.
//
// A Map must not be copied after first use.
//
// Map is not safe for concurrent use. Callers that share a Map
// between goroutines must provide their own synchronization, even for
// read-only access concurrent with a mutation.
type Map[K comparable, V any] struct {
	hasher  func(K, uint64) uint64
	seed    uint64
	table   []*anchor[K, V]
	root    Entry[K, V] // before-first sentinel; root.next is the front entry
	size    int
	growths int64
}

// Entry is a single key/value pair stored in a Map. The pointer
// returned by Find and Front stays valid until the entry is deleted;
// Value may be mutated through it.
type Entry[K comparable, V any] struct {
	Value V
	key   K
	next  *Entry[K, V]
}

// Key returns the entry's key. Keys are immutable once inserted.
func (e *Entry[K, V]) Key() K {
	return e.key
}

// Next returns the next entry in the map's traversal order, or nil
// after the last one. Together with Front it yields every entry
// exactly once, most recently inserted first.
func (e *Entry[K, V]) Next() *Entry[K, V] {
	return e.next
}

// anchor is one cell of a bucket's list. It does not hold the indexed
// entry itself but the entry's predecessor on the chain (the map's
// sentinel for the front entry), which is what makes deleting from
// the singly linked chain possible.
type anchor[K comparable, V any] struct {
	pred *Entry[K, V]
	next *anchor[K, V]
}

// Pair is a key/value pair accepted by the pair-based constructors.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// New creates an empty Map with a seeded, runtime-backed hash
// function for K.
func New[K comparable, V any]() *Map[K, V] {
	return NewWithHasher[K, V](makeHasher[K]())
}

// NewWithHasher creates an empty Map that hashes keys with hasher.
// The hasher must be deterministic for the lifetime of the map and
// should mix the seed into the result; see StringHasher for a
// ready-made example.
func NewWithHasher[K comparable, V any](hasher func(K, uint64) uint64) *Map[K, V] {
	return &Map[K, V]{
		hasher: hasher,
		seed:   makeSeed(),
		table:  make([]*anchor[K, V], minBucketCount),
	}
}

// NewFromPairs creates a Map holding the given pairs, inserted in
// argument order. Pairs repeating an earlier key are dropped, i.e.
// the first value given for a key wins.
func NewFromPairs[K comparable, V any](pairs ...Pair[K, V]) *Map[K, V] {
	return NewFromPairsWithHasher(makeHasher[K](), pairs...)
}

// NewFromPairsWithHasher is NewFromPairs with a custom hash function.
func NewFromPairsWithHasher[K comparable, V any](hasher func(K, uint64) uint64, pairs ...Pair[K, V]) *Map[K, V] {
	m := NewWithHasher[K, V](hasher)
	for _, p := range pairs {
		m.Insert(p.Key, p.Value)
	}
	return m
}

// Find returns the entry stored for key, or nil if there is none.
// The returned pointer stays valid across subsequent Insert calls
// (including ones that grow the table) until the entry is deleted.
func (m *Map[K, V]) Find(key K) *Entry[K, V] {
	bidx := m.bucketIdx(m.hasher(key, m.seed))
	for a := m.table[bidx]; a != nil; a = a.next {
		if e := a.pred.next; e.key == key {
			return e
		}
	}
	return nil
}

// Load returns a copy of the value stored for key.
// The ok result indicates whether the key was found in the map.
func (m *Map[K, V]) Load(key K) (value V, ok bool) {
	if e := m.Find(key); e != nil {
		return e.Value, true
	}
	return value, false
}

// At returns a pointer to the value stored for key. It is the map's
// one failing accessor: for an absent key it returns an error
// wrapping ErrKeyNotFound. Callers that expect absent keys should
// prefer Find or Load.
func (m *Map[K, V]) At(key K) (*V, error) {
	e := m.Find(key)
	if e == nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}
	return &e.Value, nil
}

// Ref returns a pointer to the value stored for key, inserting a zero
// value first if the key is absent. It is the equivalent of indexing
// a built-in map on the left-hand side of an assignment.
func (m *Map[K, V]) Ref(key K) *V {
	if e := m.Find(key); e != nil {
		return &e.Value
	}
	var zero V
	m.Insert(key, zero)
	// Insert links the new entry at the front of the chain.
	return &m.root.next.Value
}

// Insert stores value for key. If the key is already present the call
// is a no-op: the first inserted value wins and later inserts are
// silently dropped. Callers that need to overwrite should mutate the
// value through Find or Ref instead.
func (m *Map[K, V]) Insert(key K, value V) {
	hash := m.hasher(key, m.seed)
	bidx := m.bucketIdx(hash)
	for a := m.table[bidx]; a != nil; a = a.next {
		if a.pred.next.key == key {
			return
		}
	}
	e := &Entry[K, V]{key: key, Value: value}
	if front := m.root.next; front != nil {
		// The current front entry is about to gain a predecessor.
		// Its anchor targets the sentinel and must be repointed at
		// the new entry, or the old front becomes unlocatable.
		fa := m.anchorOf(front)
		e.next = front
		m.root.next = e
		fa.pred = e
	} else {
		m.root.next = e
	}
	m.size++
	m.table[bidx] = &anchor[K, V]{pred: &m.root, next: m.table[bidx]}
	if m.size > len(m.table) {
		m.rehash()
	}
}

// Delete removes the entry stored for key, invalidating pointers to
// that entry only. It is a no-op if the key is absent. The table
// never shrinks on deletes.
func (m *Map[K, V]) Delete(key K) {
	bidx := m.bucketIdx(m.hasher(key, m.seed))
	ap := m.bucketSlot(bidx, key)
	if ap == nil {
		return
	}
	a := *ap
	e := a.pred.next
	if e.next != nil {
		// The successor's chain predecessor changes from e to e's
		// own predecessor; its anchor must follow.
		m.anchorOf(e.next).pred = a.pred
	}
	a.pred.next = e.next
	*ap = a.next
	m.size--
}

// Clear removes all entries. The bucket count is left as is.
func (m *Map[K, V]) Clear() {
	for i := range m.table {
		m.table[i] = nil
	}
	m.root.next = nil
	m.size = 0
}

// rehash doubles the bucket count and redistributes anchors. Entries
// whose bucket index is unchanged under the larger table keep their
// anchor cell in place; the rest have the cell relinked, value
// untouched, into the new bucket. The entry chain is never modified
// here, which is what keeps outstanding entry pointers valid across
// growth.
func (m *Map[K, V]) rehash() {
	oldLen := len(m.table)
	m.table = append(m.table, make([]*anchor[K, V], oldLen)...)
	m.growths++
	for e := m.root.next; e != nil; e = e.next {
		hash := m.hasher(e.key, m.seed)
		oldIdx := hash & uint64(oldLen-1)
		newIdx := m.bucketIdx(hash)
		if oldIdx == newIdx {
			continue
		}
		ap := m.entrySlot(oldIdx, e)
		a := *ap
		*ap = a.next
		a.next = m.table[newIdx]
		m.table[newIdx] = a
	}
}

func (m *Map[K, V]) bucketIdx(hash uint64) uint64 {
	// the bucket count is always a power of two
	return hash & uint64(len(m.table)-1)
}

// bucketSlot returns the bucket list link holding the anchor cell for
// key, or nil if the key is not in bucket bidx. Returning the link
// rather than the cell lets callers unlink the cell in place.
func (m *Map[K, V]) bucketSlot(bidx uint64, key K) **anchor[K, V] {
	for ap := &m.table[bidx]; *ap != nil; ap = &(*ap).next {
		if (*ap).pred.next.key == key {
			return ap
		}
	}
	return nil
}

// entrySlot is bucketSlot by entry identity instead of key.
func (m *Map[K, V]) entrySlot(bidx uint64, e *Entry[K, V]) **anchor[K, V] {
	for ap := &m.table[bidx]; *ap != nil; ap = &(*ap).next {
		if (*ap).pred.next == e {
			return ap
		}
	}
	return nil
}

// anchorOf returns the anchor cell of a live entry.
func (m *Map[K, V]) anchorOf(e *Entry[K, V]) *anchor[K, V] {
	bidx := m.bucketIdx(m.hasher(e.key, m.seed))
	return *m.entrySlot(bidx, e)
}

// Front returns the first entry in traversal order (the most recently
// inserted one), or nil if the map is empty. Walking Front/Next
// visits every entry exactly once; the order is stable between
// mutations but otherwise unspecified.
func (m *Map[K, V]) Front() *Entry[K, V] {
	return m.root.next
}

// Range calls f for each key and value present in the map. If f
// returns false, Range stops the iteration.
//
// It is safe to delete entries, including the current one, from
// within f. Entries inserted from within f are not visited.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	for e := m.root.next; e != nil; e = e.next {
		if !f(e.key, e.Value) {
			return
		}
	}
}

// Size returns the current number of entries in the map.
func (m *Map[K, V]) Size() int {
	return m.size
}

// Empty reports whether the map holds no entries.
func (m *Map[K, V]) Empty() bool {
	return m.root.next == nil
}

// Hasher returns the hash function the map was configured with.
func (m *Map[K, V]) Hasher() func(K, uint64) uint64 {
	return m.hasher
}

// Assign replaces m's contents with a copy of src's: m is cleared and
// every entry of src is reinserted in src's traversal order. No
// storage is shared with src afterwards. Assigning a map to itself is
// a no-op.
func (m *Map[K, V]) Assign(src *Map[K, V]) {
	if m == src {
		return
	}
	m.Clear()
	for e := src.Front(); e != nil; e = e.Next() {
		m.Insert(e.key, e.Value)
	}
}

// Clone returns an independent copy of the map sharing the hash
// function and seed but none of the storage.
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := NewWithHasher[K, V](m.hasher)
	c.seed = m.seed
	c.Assign(m)
	return c
}

type mapStats struct {
	BucketCount  int
	Size         int // number of entries on the chain
	Anchors      int // number of anchor cells across all buckets
	MinBucketLen int
	MaxBucketLen int
	TotalGrowths int64
}

func (s *mapStats) Print() {
	fmt.Println("---")
	fmt.Printf("BucketCount:  %d\n", s.BucketCount)
	fmt.Printf("Size:         %d\n", s.Size)
	fmt.Printf("Anchors:      %d\n", s.Anchors)
	fmt.Printf("MinBucketLen: %d\n", s.MinBucketLen)
	fmt.Printf("MaxBucketLen: %d\n", s.MaxBucketLen)
	fmt.Printf("TotalGrowths: %d\n", s.TotalGrowths)
	fmt.Println("---")
}

// O(N) operation; use for debug purposes only
func (m *Map[K, V]) stats() mapStats {
	stats := mapStats{
		BucketCount:  len(m.table),
		TotalGrowths: m.growths,
		MinBucketLen: math.MaxInt32,
	}
	for e := m.root.next; e != nil; e = e.next {
		stats.Size++
	}
	for i := range m.table {
		bucketLen := 0
		for a := m.table[i]; a != nil; a = a.next {
			stats.Anchors++
			bucketLen++
		}
		if bucketLen < stats.MinBucketLen {
			stats.MinBucketLen = bucketLen
		}
		if bucketLen > stats.MaxBucketLen {
			stats.MaxBucketLen = bucketLen
		}
	}
	return stats
}
