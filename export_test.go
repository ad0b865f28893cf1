package anchormap

const MinBucketCount = minBucketCount

type MapStats = mapStats

func CollectMapStats[K comparable, V any](m *Map[K, V]) MapStats {
	return m.stats()
}

func MakeHasher[T comparable]() func(T, uint64) uint64 {
	return makeHasher[T]()
}

func MakeSeed() uint64 {
	return makeSeed()
}

func BucketCount[K comparable, V any](m *Map[K, V]) int {
	return len(m.table)
}

// FrontAnchored reports whether the front entry's anchor targets the
// sentinel, or true for an empty map.
func FrontAnchored[K comparable, V any](m *Map[K, V]) bool {
	front := m.root.next
	if front == nil {
		return true
	}
	return m.anchorOf(front).pred == &m.root
}

// AnchorsConsistent reports whether every entry on the chain is
// located by exactly one anchor, that anchor lives in the entry's
// bucket, and it targets the entry's chain predecessor.
func AnchorsConsistent[K comparable, V any](m *Map[K, V]) bool {
	seen := 0
	for pred := &m.root; pred.next != nil; pred = pred.next {
		e := pred.next
		bidx := m.bucketIdx(m.hasher(e.key, m.seed))
		found := 0
		for a := m.table[bidx]; a != nil; a = a.next {
			if a.pred.next == e {
				if a.pred != pred {
					return false
				}
				found++
			}
		}
		if found != 1 {
			return false
		}
		seen++
	}
	return seen == m.size
}
