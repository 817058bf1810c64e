package vb

import (
	"bytes"
	"container/heap"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/akm0001/genozip-sub000/codec"
	"github.com/akm0001/genozip-sub000/dict"
	"github.com/akm0001/genozip-sub000/internal/pool"
	"github.com/akm0001/genozip-sub000/refengine"
	"github.com/akm0001/genozip-sub000/section"
)

// DefaultVBlockSize is the target size, in bytes, of the text range handed
// to one VBlock before the dispatcher looks for the next record boundary.
const DefaultVBlockSize = 16 << 20

type dispatcherOpts struct {
	workers   int
	vbSize    int
	pool      []*VBlock
	digest    section.DigestAlgo
	ref       *refengine.Genome
}

// Option configures a Dispatcher, following the functional-option pattern
// pbzip2's parallel.go uses for its Decompressor (BZConcurrency and kin).
type Option func(*dispatcherOpts)

// WithWorkers sets the compute pool size (default runtime.GOMAXPROCS(-1),
// matching spec.md §4.4's "fixed-size compute pool (default = detected
// cores)").
func WithWorkers(n int) Option {
	return func(o *dispatcherOpts) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithVBlockSize overrides DefaultVBlockSize.
func WithVBlockSize(n int) Option {
	return func(o *dispatcherOpts) {
		if n > 0 {
			o.vbSize = n
		}
	}
}

// WithDigest selects the running digest algorithm for the Session the
// Dispatcher creates.
func WithDigest(algo section.DigestAlgo) Option {
	return func(o *dispatcherOpts) { o.digest = algo }
}

// WithReference attaches a reference engine Genome compute threads may
// consult while segmenting (e.g. REF_EXT_STORE aligner lookups).
func WithReference(ref *refengine.Genome) Option {
	return func(o *dispatcherOpts) { o.ref = ref }
}

// Dispatcher is the one I/O thread + fixed-size compute pool described in
// spec.md §4.4: it reads VB-sized text ranges, hands each to a free
// compute slot, and joins+writes finished VBs strictly in ascending
// Index order so the archive's section layout is deterministic regardless
// of which compute goroutine finishes first.
type Dispatcher struct {
	Session *Session
	seg     Segmenter

	workers int
	vbSize  int

	jobCh chan *vbJob
	outCh chan *vbResult

	workWg sync.WaitGroup

	mu       sync.Mutex
	cond     *sync.Cond
	nextJoin uint32 // the VB index the join loop is waiting for
	pending  resultHeap
	err      error

	pool   []*VBlock
	poolMu sync.Mutex
}

type vbJob struct {
	vb *VBlock
}

type vbResult struct {
	vb  *VBlock
	err error
}

type resultHeap []*vbResult

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].vb.Index < h[j].vb.Index }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(*vbResult)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// NewDispatcher creates a Dispatcher driving seg over a fresh Session,
// applying opts in order.
func NewDispatcher(seg Segmenter, opts ...Option) *Dispatcher {
	o := dispatcherOpts{
		workers: runtime.GOMAXPROCS(-1),
		vbSize:  DefaultVBlockSize,
		digest:  section.DigestAdler32,
	}
	for _, fn := range opts {
		fn(&o)
	}
	d := &Dispatcher{
		Session:  NewSession(o.digest),
		seg:      seg,
		workers:  o.workers,
		vbSize:   o.vbSize,
		jobCh:    make(chan *vbJob, o.workers),
		outCh:    make(chan *vbResult, o.workers),
		nextJoin: 1,
	}
	d.Session.Ref = o.ref
	d.cond = sync.NewCond(&d.mu)
	d.workWg.Add(o.workers)
	for i := 0; i < o.workers; i++ {
		go func() {
			defer d.workWg.Done()
			d.compute()
		}()
	}
	return d
}

// getVBlock recycles a VBlock from the pool (spec.md §4.4 lifecycle step
// 1), allocating a new one if the pool is empty.
func (d *Dispatcher) getVBlock(index uint32) *VBlock {
	d.poolMu.Lock()
	defer d.poolMu.Unlock()
	if n := len(d.pool); n > 0 {
		vb := d.pool[n-1]
		d.pool = d.pool[:n-1]
		vb.reset(index)
		vb.Ref = d.Session.Ref
		return vb
	}
	return NewVBlock(d.Session, d.Session.Ref, index)
}

func (d *Dispatcher) putVBlock(vb *VBlock) {
	d.poolMu.Lock()
	d.pool = append(d.pool, vb)
	d.poolMu.Unlock()
}

// compute is a single compute-pool worker: it segments each VB's lines
// into contexts (spec.md §4.4 lifecycle step 3). Compression and section
// staging happen later, in finalizeVB via stageSections.
func (d *Dispatcher) compute() {
	for job := range d.jobCh {
		err := d.computeOne(job.vb)
		d.outCh <- &vbResult{vb: job.vb, err: err}
	}
}

func (d *Dispatcher) computeOne(vb *VBlock) error {
	d.seg.Initialize(vb)

	data := vb.TxtData
	for len(data) > 0 {
		nl := bytes.IndexByte(data, '\n')
		var line []byte
		if nl < 0 {
			line = data
			data = nil
		} else {
			line = data[:nl+1]
			data = data[nl+1:]
		}
		consumed, err := d.seg.SegLine(vb, line)
		if err != nil {
			return fmt.Errorf("vb %d: seg_line: %w", vb.Index, err)
		}
		vb.NLines++
		if consumed > len(line) {
			extra := consumed - len(line)
			if extra > len(data) {
				extra = len(data)
			}
			data = data[extra:]
		}
	}

	if err := d.seg.Finalize(vb); err != nil {
		return fmt.Errorf("vb %d: finalize: %w", vb.Index, err)
	}
	return nil
}

// stageSections compresses each context's dict/b250/local streams into
// vb.Sections. It must run after mergeAndRewrite: b250 is only valid to
// compress once it has been rewritten through the dict store's merge remap
// (spec.md §4.5 — "each VB's b250 is rewritten after its own merge"), so
// this is called from finalizeVB rather than from computeOne.
func stageSections(vb *VBlock) error {
	for _, c := range vb.Contexts() {
		if len(c.Nodes) > 0 {
			raw := dict.EncodeDictPayload(c)
			payload, id, err := compressStream(raw)
			if err != nil {
				return fmt.Errorf("vb %d: compress dict for %s: %w", vb.Index, c.Name, err)
			}
			vb.Sections = append(vb.Sections, Section{
				Type: section.Dict, DictId: c.DictId, Codec: uint8(id), Payload: payload, OrigLen: len(raw),
			})
		}
		if len(c.B250) > 0 {
			payload, id, err := compressStream(c.B250)
			if err != nil {
				return fmt.Errorf("vb %d: compress b250 for %s: %w", vb.Index, c.Name, err)
			}
			vb.Sections = append(vb.Sections, Section{
				Type: section.B250, DictId: c.DictId, Codec: uint8(id), Payload: payload, OrigLen: len(c.B250),
			})
		}
		if c.Local != nil && c.Local.Len() > 0 {
			payload, id, err := compressStream(c.Local.Bytes)
			if err != nil {
				return fmt.Errorf("vb %d: compress local for %s: %w", vb.Index, c.Name, err)
			}
			vb.Sections = append(vb.Sections, Section{
				Type: section.Local, DictId: c.DictId, Codec: uint8(id), Payload: payload, OrigLen: c.Local.Len(),
			})
		}
	}
	return nil
}

// compressStream picks a codec for src via codec.AssignBest, which
// benchmarks the candidate set and returns the winner's compressed bytes
// directly alongside the chosen codec id.
func compressStream(src []byte) ([]byte, codec.Type, error) {
	id, out, err := codec.AssignBest(src, false)
	if err != nil {
		return nil, codec.NONE, err
	}
	return out, id, nil
}

// Run drives the full pipeline: it reads line-delimited VB-sized ranges
// from r via ReadVBlocks, dispatches them to the compute pool, joins
// finished VBs strictly in ascending Index order, merges each joined VB's
// contexts into the Session's dictionary store and then calls write with
// its staged sections, before the VB is recycled. Run blocks until r is
// exhausted and every VB has been joined.
func (d *Dispatcher) Run(r io.Reader, write func(*VBlock) error) error {
	joinDone := make(chan error, 1)
	go func() {
		joinDone <- d.join(write)
	}()

	if err := d.dispatchAll(r); err != nil {
		close(d.jobCh)
		d.workWg.Wait()
		close(d.outCh)
		<-joinDone
		return err
	}

	close(d.jobCh)
	d.workWg.Wait()
	close(d.outCh)
	return <-joinDone
}

// dispatchAll is the I/O thread of spec.md §4.4: it reads VB-sized ranges
// respecting record boundaries (via the segmenter's Unconsumed callback,
// lifecycle step 2) and hands each to the compute pool.
func (d *Dispatcher) dispatchAll(r io.Reader) error {
	var tail []byte
	var index uint32
	buf := make([]byte, d.vbSize)
	for {
		n, rerr := io.ReadFull(r, buf)
		if n == 0 && rerr != nil {
			if rerr == io.EOF {
				break
			}
			if rerr == io.ErrUnexpectedEOF {
				break
			}
			return rerr
		}
		// chunk is a transient splice of the previous tail and this read;
		// every VB boundary churns one of these, so it's drawn from the
		// size-stratified scratch pool rather than allocated fresh each
		// time around the loop.
		chunkBuf := pool.GetBuffer(len(tail) + n)
		copy(chunkBuf, tail)
		copy(chunkBuf[len(tail):], buf[:n])
		chunk := chunkBuf
		tail = nil

		if rerr == nil {
			tailLen, uerr := d.seg.Unconsumed(chunk)
			if uerr != nil {
				pool.PutBuffer(chunkBuf)
				return uerr
			}
			if tailLen > 0 {
				tail = append([]byte(nil), chunk[len(chunk)-tailLen:]...)
				chunk = chunk[:len(chunk)-tailLen]
			}
		}

		index++
		vb := d.getVBlock(index)
		vb.TxtData = append(vb.TxtData[:0], chunk...)
		pool.PutBuffer(chunkBuf)
		d.jobCh <- &vbJob{vb: vb}

		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	return nil
}

// join is the other half of the I/O thread: it receives finished VBs in
// whatever order compute slots complete them, holds back any that have
// arrived out of order in a min-heap, and merges, calls write and
// recycles strictly in ascending Index order.
func (d *Dispatcher) join(write func(*VBlock) error) error {
	var pending resultHeap
	expected := uint32(1)
	var firstErr error

	for res := range d.outCh {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		heap.Push(&pending, res)
		for len(pending) > 0 && pending[0].vb.Index == expected {
			r := heap.Pop(&pending).(*vbResult)
			expected++
			if firstErr == nil && r.err == nil {
				if err := d.finalizeVB(r.vb, write); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			d.putVBlock(r.vb)
		}
	}
	return firstErr
}

// finalizeVB merges a joined VB's contexts into the dictionary store,
// stages its sections, advances the running digest and calls write with
// the VB's staged sections (spec.md §4.4 lifecycle step 4). It adds no
// entries to the Session's random-access index.
func (d *Dispatcher) finalizeVB(vbk *VBlock, write func(*VBlock) error) error {
	if err := vbk.mergeAndRewrite(); err != nil {
		return err
	}
	if err := stageSections(vbk); err != nil {
		return err
	}
	d.Session.Digest.Write(vbk.TxtData)
	if err := write(vbk); err != nil {
		return err
	}
	for _, c := range vbk.Contexts() {
		if d.Session.DictPending(c.DictId) {
			d.Session.RecordSection(section.SectionListEntry{
				DictId: c.DictId, VBlockI: vbk.Index, SectionType: section.Dict,
			})
		}
	}
	return nil
}
