package dict

import "sync"

// globalCtx is the persistent, archive-wide state for one field: the
// accumulated dictionary and hash table every VB's Ctx eventually merges
// into. It is guarded by its own mutex rather than one lock for the whole
// store, so merging FORMAT/GT doesn't block a concurrent merge of INFO/AF —
// the same per-dictionary locking granularity as move_to_front.h's
// mtf_vb_lock/mtf_global_lock pair.
type globalCtx struct {
	mu       sync.Mutex
	dictId   DictId
	didI     int
	name     string
	lType    LType
	dict     []byte
	nodes    []Node
	hash     *Hash
	mergeNum uint32
}

// Store is the archive-wide (session-wide) set of contexts, keyed by
// DictId, standing in for genozip's global z_file->contexts table.
type Store struct {
	mu       sync.Mutex // guards didI assignment and the map itself, not individual contexts
	byID     map[DictId]*globalCtx
	order    []DictId // first-seen order, preserved for deterministic section emission
}

func NewStore() *Store {
	return &Store{byID: make(map[DictId]*globalCtx)}
}

// getOrCreate returns the global context for id, creating it (with the
// next sequential DidI) if this is the first time id has been seen.
func (s *Store) getOrCreate(id DictId, name string, lt LType) *globalCtx {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gc, ok := s.byID[id]; ok {
		return gc
	}
	gc := &globalCtx{
		dictId: id,
		didI:   len(s.order),
		name:   name,
		lType:  lt,
		hash:   NewHash(),
	}
	s.byID[id] = gc
	s.order = append(s.order, id)
	return gc
}

// DidI reports the did_i assigned to id if it exists yet.
func (s *Store) DidI(id DictId) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gc, ok := s.byID[id]
	if !ok {
		return 0, false
	}
	return gc.didI, true
}

// Order returns dict ids in first-seen order, the order sections are
// written in so a fresh reader sees each dictionary defined before any
// b250 stream that references it.
func (s *Store) Order() []DictId {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DictId, len(s.order))
	copy(out, s.order)
	return out
}

// Clone produces a VB-local Ctx overlaying the current committed state of
// id's dictionary. Called once per VB per field, at VB-compute start.
func (s *Store) Clone(id DictId, name string, lt LType) *Ctx {
	gc := s.getOrCreate(id, name, lt)

	gc.mu.Lock()
	defer gc.mu.Unlock()

	c := NewCtx(id, gc.didI, name, lt)
	c.OLDict = append([]byte(nil), gc.dict...)
	c.OLNodes = append([]Node(nil), gc.nodes...)
	c.olHash = gc.hash.Clone()
	return c
}

// Merge commits a finished VB's new nodes into the global dictionary,
// returning a remap table from the VB's local word indices (indices
// produced by EvaluateSnip at or above the overlay boundary) to their
// final, archive-wide word indices. Two VBs that independently discovered
// the same new snip both remap to the single canonical global entry — the
// one that merges first wins, exactly as move_to_front.h's merge_num
// ordering requires, since VBs merge only after their output is otherwise
// finalized and merging is itself serialized by the per-dict mutex.
func (s *Store) Merge(c *Ctx) map[uint32]uint32 {
	gc := s.getOrCreate(c.DictId, c.Name, c.LType)

	gc.mu.Lock()
	defer gc.mu.Unlock()

	remap := make(map[uint32]uint32, len(c.Nodes))
	gc.mergeNum++
	for localIdx, n := range c.Nodes {
		snip := string(c.Dict[n.CharIndex : n.CharIndex+n.Len])
		if existing, ok := gc.hash.Lookup(snip, gc.mergeNum); ok {
			remap[c.totalOverlay()+uint32(localIdx)] = existing
			continue
		}
		globalIdx := uint32(len(gc.nodes))
		gc.nodes = append(gc.nodes, Node{
			CharIndex: uint32(len(gc.dict)),
			Len:       n.Len,
			WordIndex: globalIdx,
		})
		gc.dict = append(gc.dict, snip...)
		gc.hash.Insert(snip, globalIdx, gc.mergeNum)
		remap[c.totalOverlay()+uint32(localIdx)] = globalIdx
	}
	return remap
}

// RemapB250 rewrites c's b250 stream in place, translating every explicit
// word-index code through remap (indices below c's overlay boundary are
// already final global indices and pass through unchanged; ONE_UP/EMPTY/
// MISSING sentinel codes carry no index and are copied verbatim).
func RemapB250(c *Ctx, remap map[uint32]uint32) error {
	var out []byte
	pos := 0
	for pos < len(c.B250) {
		kind, idx, n, err := Decode(c.B250[pos:])
		if err != nil {
			return err
		}
		pos += n
		switch kind {
		case KindIndex:
			if mapped, ok := remap[idx]; ok {
				idx = mapped
			}
			out = AppendIndex(out, idx)
		default:
			out = AppendSentinel(out, kind)
		}
	}
	c.B250 = out
	return nil
}
