// Package vb implements the per-thread VBlock working set and the I/O +
// compute pipeline that drives it: Session, VBlock and Dispatcher from
// spec.md §4.4. A Session replaces genozip's process-wide z_file/txt_file/
// evb globals with one explicit value owning the dictionary store, the
// reference engine and the running digest, threaded through every compute
// call instead of reached for as ambient state.
package vb

import (
	"sync"

	"github.com/akm0001/genozip-sub000/dict"
	"github.com/akm0001/genozip-sub000/refengine"
	"github.com/akm0001/genozip-sub000/section"
)

// Session is the archive-wide state shared by every VBlock: the
// dictionary store, the random-access index being accumulated, the
// reference engine (nil if none is in use) and the running digest. It is
// the explicit replacement for genozip's z_file/evb globals.
type Session struct {
	Store  *dict.Store
	RA     *section.RAStore
	Ref    *refengine.Genome
	Digest *section.Digest

	mu          sync.Mutex
	dictsDone   map[dict.DictId]bool // dictionaries already flushed to the section list
	sectionList *section.SectionList
}

// NewSession creates a Session with a fresh dictionary store, random-access
// index and section list. algo selects the running digest's algorithm
// (Adler32 by default; MD5 under --test/--md5, per spec.md §4.4).
func NewSession(algo section.DigestAlgo) *Session {
	return &Session{
		Store:       dict.NewStore(),
		RA:          section.NewRAStore(),
		Digest:      section.NewDigest(algo),
		dictsDone:   make(map[dict.DictId]bool),
		sectionList: section.NewSectionList(),
	}
}

// SectionList returns the Session's accumulating section-list index, the
// one later written as the SEC_SECTION_LIST tail section.
func (s *Session) SectionList() *section.SectionList { return s.sectionList }

// RecordSection appends an entry to the Session's section list under its
// own lock; called by the I/O thread as each section is written.
func (s *Session) RecordSection(e section.SectionListEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sectionList.Append(e)
}

// DictPending reports true the first time it is called for id and false
// on every later call; it does not track whether id's dictionary has
// gained content since then. The I/O thread calls this once per dict per
// VB finalize.
func (s *Session) DictPending(id dict.DictId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dictsDone[id] {
		return false
	}
	s.dictsDone[id] = true
	return true
}
