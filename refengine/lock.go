package refengine

import (
	"fmt"
	"sync"
)

// genomeBasesPerMutex is the size of one locked region: 64 Kbp, matching
// original_source/ref_lock.c's GENOME_BASES_PER_MUTEX.
const genomeBasesPerMutex = 1 << 16

// RegionLocker shards the genome into fixed 64 Kbp regions, each guarded
// by its own mutex, so a write touching a short span never blocks writers
// or readers working on a distant part of the genome. Ported directly from
// ref_lock.c's ref_lock/ref_unlock: lock ascending, unlock descending.
type RegionLocker struct {
	mus []sync.Mutex
}

// NewRegionLocker allocates one mutex per 64 Kbp of a genome nBases bases
// long (rounded up).
func NewRegionLocker(nBases uint64) *RegionLocker {
	n := (nBases + genomeBasesPerMutex - 1) / genomeBasesPerMutex
	if n == 0 {
		n = 1
	}
	return &RegionLocker{mus: make([]sync.Mutex, n)}
}

// Lock is a held span of consecutive region mutexes, returned by Lock and
// consumed by Unlock.
type Lock struct {
	first, last int
}

// Lock acquires every region mutex whose 64 Kbp span intersects
// [gposStart, gposStart+seqLen), in ascending order — the standard
// lock-ordering discipline that prevents deadlock against any other
// caller also locking in ascending order.
func (rl *RegionLocker) Lock(gposStart uint64, seqLen uint32) (Lock, error) {
	if seqLen == 0 {
		return Lock{first: -1, last: -1}, nil
	}
	lastPos := gposStart + uint64(seqLen) - 1
	first := int(gposStart / genomeBasesPerMutex)
	last := int(lastPos / genomeBasesPerMutex)
	if first < 0 || first >= len(rl.mus) || last < 0 || last >= len(rl.mus) {
		return Lock{}, fmt.Errorf("refengine: lock range [%d,%d] out of bounds [0,%d)", first, last, len(rl.mus))
	}
	for i := first; i <= last; i++ {
		rl.mus[i].Lock()
	}
	return Lock{first: first, last: last}, nil
}

// Unlock releases the mutexes held by l in descending order, mirroring
// ref_unlock — reverse order isn't required for correctness with plain
// sync.Mutex, but keeping it matches the original's discipline and costs
// nothing.
func (rl *RegionLocker) Unlock(l Lock) {
	if l.first < 0 {
		return
	}
	for i := l.last; i >= l.first; i-- {
		rl.mus[i].Unlock()
	}
}

// LockRange locks a single region by index directly — used for
// ModeInternal's one-mutex-per-synthetic-range scheme (ref_lock_range).
func (rl *RegionLocker) LockRange(rangeID int) (Lock, error) {
	if rangeID < 0 || rangeID >= len(rl.mus) {
		return Lock{}, fmt.Errorf("refengine: range id %d out of bounds [0,%d)", rangeID, len(rl.mus))
	}
	rl.mus[rangeID].Lock()
	return Lock{first: rangeID, last: rangeID}, nil
}
