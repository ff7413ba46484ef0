// Package persistence implements the two cooperating durability mechanisms:
// a periodic compressed snapshot of the full GlobalStore and a background
// append-only operation log (AOF) that replays through the command parser
// on startup. Grounded on the snapshot/restore shape of a Raft FSM
// (encode/decode a point-in-time copy of the state machine as JSON), without
// the consensus machinery a single-writer core has no use for.
package persistence

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/store"
	"github.com/cuemby/mumpsdb/pkg/tree"
)

var snapshotMagic = [4]byte{'M', 'D', 'B', 'S'}

const snapshotVersion uint8 = 1

// entry is one (global, path, value) triple — the flattened form every
// global's tree serializes to, independent of the tree's internal node
// layout.
type entry struct {
	Global string       `json:"global"`
	Path   mvalue.Path  `json:"path"`
	Value  mvalue.Value `json:"value"`
}

// WriteSnapshot writes an uncompressed magic/version header followed by a
// gzip-compressed stream of JSON objects, one per (global, path, value)
// triple currently live in s.
func WriteSnapshot(w io.Writer, s *store.GlobalStore) error {
	if _, err := w.Write(snapshotMagic[:]); err != nil {
		return fmt.Errorf("write snapshot magic: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, snapshotVersion); err != nil {
		return fmt.Errorf("write snapshot version: %w", err)
	}

	gw := gzip.NewWriter(w)
	enc := json.NewEncoder(gw)

	globals := s.SnapshotGlobals()
	for name, root := range globals {
		for _, pv := range root.AllPathsWithValues() {
			if err := enc.Encode(entry{Global: name, Path: pv.Path, Value: pv.Value}); err != nil {
				gw.Close()
				return fmt.Errorf("encode snapshot entry: %w", err)
			}
		}
	}
	return gw.Close()
}

// ReadSnapshot reads a snapshot written by WriteSnapshot and replaces s's
// contents with it in a single atomic swap.
func ReadSnapshot(r io.Reader, s *store.GlobalStore) error {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return fmt.Errorf("read snapshot magic: %w", err)
	}
	if magic != snapshotMagic {
		return errors.New("not a mumpsdb snapshot file")
	}
	var version uint8
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return fmt.Errorf("read snapshot version: %w", err)
	}
	if version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", version)
	}

	gr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open snapshot gzip stream: %w", err)
	}
	defer gr.Close()

	globals := make(map[string]*tree.Node)
	dec := json.NewDecoder(bufio.NewReader(gr))
	for {
		var e entry
		if err := dec.Decode(&e); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("decode snapshot entry: %w", err)
		}
		root, ok := globals[e.Global]
		if !ok {
			root = tree.New()
			globals[e.Global] = root
		}
		root.Set(e.Path, e.Value)
	}

	s.LoadGlobals(globals)
	return nil
}
