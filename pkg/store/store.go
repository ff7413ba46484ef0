// Package store implements the GlobalStore: a map of global name to
// tree.Node root guarded by a single reader-writer lock, the value/path
// indexes that back FSEARCH, the store-level query cache, and the
// snapshot-isolated Transaction overlay. The locking discipline follows a
// sync.RWMutex-guarded in-memory store, generalized from a flat key/value
// map to a subscript tree.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/cuemby/mumpsdb/pkg/errs"
	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/tree"
)

// Journal receives one textual command record per successful mutation, for
// append-only durability. Implemented by pkg/persistence.AOFWriter.
type Journal interface {
	Append(record string)
}

// Notifier is the replication collaborator's consumption interface:
// non-blocking, best-effort. Implemented by pkg/replication.Broker.
type Notifier interface {
	OnMutation(kind, global string, path mvalue.Path, value mvalue.Value)
}

// GlobalStore owns every live tree.Node reachable from a global name.
type GlobalStore struct {
	mu      sync.RWMutex
	globals map[string]*tree.Node
	idx     *indexes
	cache   *queryCache

	journal  Journal
	notifier Notifier
}

// Option configures a GlobalStore at construction.
type Option func(*GlobalStore)

func WithJournal(j Journal) Option     { return func(s *GlobalStore) { s.journal = j } }
func WithNotifier(n Notifier) Option   { return func(s *GlobalStore) { s.notifier = n } }
func WithCacheSize(n int) Option       { return func(s *GlobalStore) { s.cache = newQueryCache(n) } }

// SetJournal attaches the journal collaborator after construction, so
// startup replay (which itself mutates the store via Set/Kill) can run
// before the AOF is wired in and avoid re-recording the records it's
// replaying.
func (s *GlobalStore) SetJournal(j Journal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal = j
}

// SetNotifier attaches the replication collaborator after construction, for
// the same reason SetJournal exists: startup replay should not flood a
// freshly wired replication broker with every record the AOF already
// contains from before this process started.
func (s *GlobalStore) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// New creates an empty GlobalStore.
func New(opts ...Option) *GlobalStore {
	s := &GlobalStore{
		globals: make(map[string]*tree.Node),
		idx:     newIndexes(),
		cache:   newQueryCache(10000),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NormalizeGlobalName prefixes '^' if absent and rejects blank names.
func NormalizeGlobalName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errs.Validation("global name must not be empty")
	}
	if !strings.HasPrefix(name, "^") {
		name = "^" + name
	}
	if name == "^" {
		return "", errs.Validation("global name must not be empty")
	}
	return name, nil
}

// NormalizePath canonicalizes each subscript element (integer-looking
// strings become integer subscripts) per ingest rules.
func NormalizePath(path mvalue.Path) mvalue.Path {
	out := make(mvalue.Path, len(path))
	for i, s := range path {
		out[i] = mvalue.CanonicalSub(s)
	}
	return out
}

// Set writes value at globalName/path, creating the global and any
// intermediate nodes as needed. It refreshes both indexes and, on success,
// enqueues one AOF record and notifies the replication collaborator.
func (s *GlobalStore) Set(globalName string, path mvalue.Path, value mvalue.Value) error {
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return err
	}
	path = NormalizePath(path)

	s.mu.Lock()
	root, ok := s.globals[name]
	if !ok {
		root = tree.New()
		s.globals[name] = root
	}
	old := root.Get(path)
	if old != nil {
		s.idx.remove(name, path, *old)
	}
	root.Set(path, value)
	s.idx.add(name, path, value)
	s.cache.invalidate(cacheKey(name, path))
	s.mu.Unlock()

	s.emit("SET", name, path, value)
	return nil
}

// Get returns the value at globalName/path, or nil if absent.
func (s *GlobalStore) Get(globalName string, path mvalue.Path) (*mvalue.Value, error) {
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return nil, err
	}
	path = NormalizePath(path)
	key := cacheKey(name, path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.cache.get(key); ok {
		return v, nil
	}
	root, ok := s.globals[name]
	if !ok {
		s.cache.put(key, nil)
		return nil, nil
	}
	v := root.Get(path)
	s.cache.put(key, v)
	return v, nil
}

// Kill removes globalName/path. An empty path destroys the whole global.
func (s *GlobalStore) Kill(globalName string, path mvalue.Path) error {
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return err
	}
	path = NormalizePath(path)

	s.mu.Lock()
	root, ok := s.globals[name]
	if !ok {
		s.mu.Unlock()
		s.emit("KILL", name, path, mvalue.NullValue)
		return nil
	}
	if len(path) == 0 {
		for _, pv := range root.AllPathsWithValues() {
			s.idx.remove(name, pv.Path, pv.Value)
		}
		delete(s.globals, name)
		s.idx.removeGlobal(name)
	} else {
		removed := root.Query(path, 1<<30)
		for _, pv := range removed {
			full := append(append(mvalue.Path{}, path...), pv.Path...)
			s.idx.remove(name, full, pv.Value)
		}
		root.Remove(path)
		if root.IsEmpty() {
			delete(s.globals, name)
		}
	}
	s.cache.invalidateGlobal(name)
	s.mu.Unlock()

	s.emit("KILL", name, path, mvalue.NullValue)
	return nil
}

// Query delegates to the global root's Query.
func (s *GlobalStore) Query(globalName string, path mvalue.Path, depth int) ([]tree.PathValue, error) {
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return nil, err
	}
	path = NormalizePath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	root, ok := s.globals[name]
	if !ok {
		return nil, nil
	}
	return root.Query(path, depth), nil
}

// ListGlobalNames returns every known global name in stable sorted order.
func (s *GlobalStore) ListGlobalNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.globals))
	for n := range s.globals {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FastSearchHit is one (global, path, value) triple returned by FastSearch.
type FastSearchHit struct {
	Global string
	Path   mvalue.Path
	Value  mvalue.Value
}

// FastSearch consults the value index, then reverifies every candidate
// against the live tree before returning it — index entries are hints,
// never authoritative.
func (s *GlobalStore) FastSearch(value mvalue.Value) []FastSearchHit {
	text := value.Text()

	s.mu.RLock()
	candidates := s.idx.candidates(text)
	var hits []FastSearchHit
	var stale []hint
	for _, c := range candidates {
		root, ok := s.globals[c.global]
		if !ok {
			stale = append(stale, c)
			continue
		}
		v := root.Get(c.path)
		if v == nil || !v.Equal(value) {
			stale = append(stale, c)
			continue
		}
		hits = append(hits, FastSearchHit{Global: c.global, Path: c.path, Value: *v})
	}
	s.mu.RUnlock()

	if len(stale) > 0 {
		s.mu.Lock()
		for _, c := range stale {
			s.idx.remove(c.global, c.path, value)
		}
		s.mu.Unlock()
	}
	return hits
}

// Root returns the live root for globalName, or nil. The store's read lock
// is released before Root returns, so a caller traversing the node races
// concurrent writers; WithRoot runs a traversal under the read lock
// instead.
func (s *GlobalStore) Root(globalName string) *tree.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return nil
	}
	return s.globals[name]
}

// WithRoot runs fn with the global's root under the store's read lock, so
// callers doing a multi-step traversal (ZWRITE subtree dump, $ORDER) see a
// single consistent snapshot rather than racing a concurrent writer
// between steps. root is nil if the global does not exist.
func (s *GlobalStore) WithRoot(globalName string, fn func(root *tree.Node)) error {
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.globals[name])
	return nil
}

// Stats summarizes store size for the STATS command.
type Stats struct {
	GlobalCount int
	TotalNodes  int
	CacheSize   int
	IndexSize   int
}

func (s *GlobalStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, root := range s.globals {
		total += root.CountNodes()
	}
	return Stats{
		GlobalCount: len(s.globals),
		TotalNodes:  total,
		CacheSize:   s.cache.size(),
		IndexSize:   s.idx.size(),
	}
}

func (s *GlobalStore) emit(op string, globalName string, path mvalue.Path, value mvalue.Value) {
	if s.journal != nil {
		s.journal.Append(formatRecord(op, globalName, path, value))
	}
	if s.notifier != nil {
		s.notifier.OnMutation(op, globalName, path, value)
	}
}

// SnapshotGlobals returns the live global map for the persistence layer to
// serialize. The caller must not mutate the returned nodes.
func (s *GlobalStore) SnapshotGlobals() map[string]*tree.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]*tree.Node, len(s.globals))
	for k, v := range s.globals {
		cp[k] = v
	}
	return cp
}

// LoadGlobals atomically replaces the store's contents (used by snapshot
// restore on startup) and rebuilds the indexes from it.
func (s *GlobalStore) LoadGlobals(globals map[string]*tree.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals = globals
	s.idx.rebuildFrom(globals)
	s.cache = newQueryCache(s.cache.maxSize)
}
