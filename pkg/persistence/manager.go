package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/mumpsdb/pkg/log"
	"github.com/cuemby/mumpsdb/pkg/metrics"
	"github.com/cuemby/mumpsdb/pkg/store"
)

// Manager owns the snapshot file, the AOF writer, and the periodic snapshot
// task. It implements both store.Journal (Append forwards to its AOFWriter) and
// the executor's Persister interface, so DUMP/LOAD can force an out-of-band
// save/load without either package depending on the other.
type Manager struct {
	store        *store.GlobalStore
	snapshotPath string
	aofPath      string
	interval     time.Duration

	aof    *AOFWriter
	ticker *time.Ticker
	stopCh chan struct{}
}

// New opens the AOF at aofPath (creating it if absent) and returns a Manager
// ready to Bootstrap and Start. The store itself does not record new
// mutations to this AOF until the same writer is attached to it with
// store.SetJournal (or store.WithJournal) — see NewWithAOF for building the
// Manager around a writer the caller holds for that purpose.
func New(s *store.GlobalStore, snapshotPath, aofPath string, interval time.Duration) (*Manager, error) {
	aof, err := NewAOFWriter(aofPath, 4096)
	if err != nil {
		return nil, err
	}
	return NewWithAOF(s, snapshotPath, aofPath, aof, interval), nil
}

// NewWithAOF builds a Manager around an AOFWriter the caller already
// opened, so the caller can attach the same writer to the store with
// store.SetJournal once Bootstrap has replayed the existing log.
func NewWithAOF(s *store.GlobalStore, snapshotPath, aofPath string, aof *AOFWriter, interval time.Duration) *Manager {
	return &Manager{
		store:        s,
		snapshotPath: snapshotPath,
		aofPath:      aofPath,
		interval:     interval,
		aof:          aof,
		stopCh:       make(chan struct{}),
	}
}

// Append satisfies store.Journal, forwarding to the AOF writer.
func (m *Manager) Append(record string) { m.aof.Append(record) }

// Bootstrap loads the snapshot file if present, then replays the AOF tail
// through the store directly (no horizon is recorded, so the whole file is
// replayed every time).
func (m *Manager) Bootstrap() error {
	if err := m.LoadSnapshot(); err != nil {
		return err
	}
	n, err := Replay(m.aofPath, m.store)
	if err != nil {
		return fmt.Errorf("replay aof: %w", err)
	}
	log.WithComponent("persistence").Info().Int("records", n).Msg("replayed aof records on startup")
	return nil
}

// SaveSnapshot writes a fresh snapshot via a temp-file-then-rename swap, so
// a crash mid-write never corrupts the previous snapshot.
func (m *Manager) SaveSnapshot() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SnapshotDuration)

	dir := filepath.Dir(m.snapshotPath)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := WriteSnapshot(tmp, m.store); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpPath, m.snapshotPath); err != nil {
		os.Remove(tmpPath)
		metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("rename snapshot into place: %w", err)
	}
	metrics.SnapshotsTotal.WithLabelValues("ok").Inc()
	return nil
}

// LoadSnapshot replaces the store's contents with the snapshot file's, or
// leaves the store untouched if no snapshot exists yet.
func (m *Manager) LoadSnapshot() error {
	f, err := os.Open(m.snapshotPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f, m.store)
}

// Start begins the periodic snapshot task; it runs until Stop is called.
func (m *Manager) Start() {
	m.ticker = time.NewTicker(m.interval)
	go func() {
		for {
			select {
			case <-m.ticker.C:
				if err := m.SaveSnapshot(); err != nil {
					log.WithComponent("persistence").Error().Err(err).Msg("periodic snapshot failed")
				}
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop halts the periodic task, drains the AOF queue with a bounded
// timeout, and writes one final snapshot.
func (m *Manager) Stop() {
	if m.ticker != nil {
		m.ticker.Stop()
	}
	close(m.stopCh)
	if err := m.aof.Drain(5 * time.Second); err != nil {
		log.WithComponent("persistence").Warn().Err(err).Msg("aof drain reported an error")
	}
	if err := m.SaveSnapshot(); err != nil {
		log.WithComponent("persistence").Error().Err(err).Msg("final snapshot failed")
	}
}
