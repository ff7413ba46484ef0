package store

import (
	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/tree"
)

// indexes maintains the two reverse-lookup structures used by FSEARCH:
// valueText -> set of global names, and global -> valueText -> set of
// (path-key, Path) entries. Entries are hints, never authoritative —
// fastSearch always reverifies against the live tree before returning a
// hit, and a stale hint is pruned opportunistically when found.
type indexes struct {
	valueIndex     map[string]map[string]struct{}
	pathValueIndex map[string]map[string]map[string]mvalue.Path
}

func newIndexes() *indexes {
	return &indexes{
		valueIndex:     make(map[string]map[string]struct{}),
		pathValueIndex: make(map[string]map[string]map[string]mvalue.Path),
	}
}

func (ix *indexes) add(globalName string, path mvalue.Path, v mvalue.Value) {
	if v.IsNull() {
		return
	}
	text := v.Text()
	if ix.valueIndex[text] == nil {
		ix.valueIndex[text] = make(map[string]struct{})
	}
	ix.valueIndex[text][globalName] = struct{}{}

	byValue, ok := ix.pathValueIndex[globalName]
	if !ok {
		byValue = make(map[string]map[string]mvalue.Path)
		ix.pathValueIndex[globalName] = byValue
	}
	paths, ok := byValue[text]
	if !ok {
		paths = make(map[string]mvalue.Path)
		byValue[text] = paths
	}
	paths[path.Key()] = append(mvalue.Path{}, path...)
}

// remove drops the (global, path, value) hint. Called both when a value is
// overwritten with a different value and when a path is killed.
func (ix *indexes) remove(globalName string, path mvalue.Path, v mvalue.Value) {
	if v.IsNull() {
		return
	}
	text := v.Text()
	if byValue, ok := ix.pathValueIndex[globalName]; ok {
		if paths, ok := byValue[text]; ok {
			delete(paths, path.Key())
			if len(paths) == 0 {
				delete(byValue, text)
			}
		}
		if len(byValue) == 0 {
			delete(ix.pathValueIndex, globalName)
		}
	}
	if globals, ok := ix.valueIndex[text]; ok {
		if !ix.globalStillHasValue(globalName, text) {
			delete(globals, globalName)
			if len(globals) == 0 {
				delete(ix.valueIndex, text)
			}
		}
	}
}

func (ix *indexes) globalStillHasValue(globalName, valueText string) bool {
	byValue, ok := ix.pathValueIndex[globalName]
	if !ok {
		return false
	}
	paths, ok := byValue[valueText]
	return ok && len(paths) > 0
}

// removeGlobal drops every index entry belonging to globalName, used when a
// whole global is killed.
func (ix *indexes) removeGlobal(globalName string) {
	if byValue, ok := ix.pathValueIndex[globalName]; ok {
		for text := range byValue {
			if globals, ok := ix.valueIndex[text]; ok {
				delete(globals, globalName)
				if len(globals) == 0 {
					delete(ix.valueIndex, text)
				}
			}
		}
	}
	delete(ix.pathValueIndex, globalName)
}

// candidates returns (globalName, Path) hints for paths indexed as holding
// valueText, without verifying against the live tree.
type hint struct {
	global string
	path   mvalue.Path
}

func (ix *indexes) candidates(valueText string) []hint {
	var out []hint
	globals, ok := ix.valueIndex[valueText]
	if !ok {
		return nil
	}
	for g := range globals {
		byValue := ix.pathValueIndex[g]
		if byValue == nil {
			continue
		}
		for _, p := range byValue[valueText] {
			out = append(out, hint{global: g, path: p})
		}
	}
	return out
}

// size reports the total number of path-value hints, used by STATS.
func (ix *indexes) size() int {
	n := 0
	for _, byValue := range ix.pathValueIndex {
		for _, paths := range byValue {
			n += len(paths)
		}
	}
	return n
}

// rebuildFrom discards all entries and rebuilds from the live global map,
// used after a transaction commit replaces the store wholesale.
func (ix *indexes) rebuildFrom(globals map[string]*tree.Node) {
	ix.valueIndex = make(map[string]map[string]struct{})
	ix.pathValueIndex = make(map[string]map[string]map[string]mvalue.Path)
	for name, root := range globals {
		for _, pv := range root.AllPathsWithValues() {
			ix.add(name, pv.Path, pv.Value)
		}
	}
}
