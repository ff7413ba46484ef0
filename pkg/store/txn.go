package store

import (
	"sort"
	"sync"

	"github.com/cuemby/mumpsdb/pkg/errs"
	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/tree"
)

// Transaction is a snapshot-isolated staging area: Begin deep-copies every
// global into a private map, subsequent Set/Get/Kill by this caller see and
// mutate only that copy, Commit atomically swaps it in for the live store
// under the store's exclusive lock, and Rollback discards it. Concurrent
// non-transactional writers proceed against the live store the whole time;
// their effects are last-writer-wins against a commit, by design — this
// trades serializability for simple, tree-bounded deep-copy reasoning.
type Transaction struct {
	mu      sync.Mutex
	store   *GlobalStore
	globals map[string]*tree.Node
	idx     *indexes
	done    bool
}

// Begin deep-copies the live store into a new Transaction.
func (s *GlobalStore) Begin() *Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	globals := make(map[string]*tree.Node, len(s.globals))
	for name, root := range s.globals {
		globals[name] = root.DeepCopy()
	}
	idx := newIndexes()
	idx.rebuildFrom(globals)
	return &Transaction{store: s, globals: globals, idx: idx}
}

func (t *Transaction) checkActive() error {
	if t.done {
		return errs.TxConflict("transaction is no longer active")
	}
	return nil
}

// Set mirrors GlobalStore.Set against the transaction's private copy.
func (t *Transaction) Set(globalName string, path mvalue.Path, value mvalue.Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return err
	}
	path = NormalizePath(path)

	root, ok := t.globals[name]
	if !ok {
		root = tree.New()
		t.globals[name] = root
	}
	if old := root.Get(path); old != nil {
		t.idx.remove(name, path, *old)
	}
	root.Set(path, value)
	t.idx.add(name, path, value)
	return nil
}

// Get mirrors GlobalStore.Get against the transaction's private copy.
func (t *Transaction) Get(globalName string, path mvalue.Path) (*mvalue.Value, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return nil, err
	}
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return nil, err
	}
	path = NormalizePath(path)
	root, ok := t.globals[name]
	if !ok {
		return nil, nil
	}
	return root.Get(path), nil
}

// Kill mirrors GlobalStore.Kill against the transaction's private copy.
func (t *Transaction) Kill(globalName string, path mvalue.Path) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return err
	}
	path = NormalizePath(path)
	root, ok := t.globals[name]
	if !ok {
		return nil
	}
	if len(path) == 0 {
		for _, pv := range root.AllPathsWithValues() {
			t.idx.remove(name, pv.Path, pv.Value)
		}
		delete(t.globals, name)
		return nil
	}
	for _, pv := range root.Query(path, 1<<30) {
		full := append(append(mvalue.Path{}, path...), pv.Path...)
		t.idx.remove(name, full, pv.Value)
	}
	root.Remove(path)
	if root.IsEmpty() {
		delete(t.globals, name)
	}
	return nil
}

// Query mirrors GlobalStore.Query against the transaction's private copy.
func (t *Transaction) Query(globalName string, path mvalue.Path, depth int) ([]tree.PathValue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return nil, err
	}
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return nil, err
	}
	path = NormalizePath(path)
	root, ok := t.globals[name]
	if !ok {
		return nil, nil
	}
	return root.Query(path, depth), nil
}

// ListGlobalNames mirrors GlobalStore.ListGlobalNames against the
// transaction's private copy.
func (t *Transaction) ListGlobalNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.globals))
	for n := range t.globals {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Root returns the transaction-local root for globalName, or nil.
func (t *Transaction) Root(globalName string) *tree.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	name, err := NormalizeGlobalName(globalName)
	if err != nil {
		return nil
	}
	return t.globals[name]
}

// Commit atomically replaces the live store's globals with this
// transaction's map under the store's exclusive lock and rebuilds the
// indexes from the committed snapshot.
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	t.store.mu.Lock()
	t.store.globals = t.globals
	t.store.idx.rebuildFrom(t.globals)
	t.store.cache = newQueryCache(t.store.cache.maxSize)
	t.store.mu.Unlock()
	t.done = true
	return nil
}

// Rollback discards the transaction's private copy.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkActive(); err != nil {
		return err
	}
	t.done = true
	return nil
}
