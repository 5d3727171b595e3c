package gp

// diversityTable buckets individuals by content hash and confirms genuine
// duplicates with full structural comparison on collision. Each bucket
// entry keeps one representative and the number of copies seen.
type diversityTable struct {
	buckets map[uint64][]*diversityEntry
}

type diversityEntry struct {
	ind   *Individual
	count int
}

func newDiversityTable() *diversityTable {
	return &diversityTable{buckets: make(map[uint64][]*diversityEntry)}
}

func (t *diversityTable) clear() {
	t.buckets = make(map[uint64][]*diversityEntry)
}

// add records one individual and reports whether it duplicates an earlier
// one.
func (t *diversityTable) add(ind *Individual) bool {
	h := ind.Hash()
	for _, e := range t.buckets[h] {
		if e.ind.Equal(ind) {
			e.count++
			return true
		}
	}
	t.buckets[h] = append(t.buckets[h], &diversityEntry{ind: ind, count: 1})
	return false
}

// contains reports whether a structurally equal individual was already
// recorded, without recording anything.
func (t *diversityTable) contains(ind *Individual) bool {
	h := ind.Hash()
	for _, e := range t.buckets[h] {
		if e.ind.Equal(ind) {
			return true
		}
	}
	return false
}

// distinct returns the number of distinct individuals recorded.
func (t *diversityTable) distinct() int {
	n := 0
	for _, bucket := range t.buckets {
		n += len(bucket)
	}
	return n
}
