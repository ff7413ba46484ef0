package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/store"
)

func writeRawAOFLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func TestManagerSaveAndLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	s := store.New()
	require.NoError(t, s.Set("^P", mvalue.Path{mvalue.NewIntSub(1), mvalue.NewStringSub("name")}, mvalue.NewStringValue("John")))

	m, err := New(s, filepath.Join(dir, "snap.db"), filepath.Join(dir, "log.aof"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { m.aof.Close() })

	require.NoError(t, m.SaveSnapshot())

	restored := store.New()
	m2, err := New(restored, filepath.Join(dir, "snap.db"), filepath.Join(dir, "log2.aof"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { m2.aof.Close() })

	require.NoError(t, m2.LoadSnapshot())
	v, err := restored.Get("^P", mvalue.Path{mvalue.NewIntSub(1), mvalue.NewStringSub("name")})
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, "John", v.Text())
}

func TestManagerBootstrapReplaysAOFAfterSnapshot(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "snap.db")
	aofPath := filepath.Join(dir, "log.aof")

	seed := store.New()
	require.NoError(t, seed.Set("^A", nil, mvalue.NewIntValue(1)))
	seedMgr, err := New(seed, snapshotPath, aofPath, time.Hour)
	require.NoError(t, err)
	require.NoError(t, seedMgr.SaveSnapshot())

	require.NoError(t, writeRawAOFLine(aofPath, `SET ^B=2`))

	s := store.New()
	m, err := New(s, snapshotPath, aofPath, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { m.aof.Close() })

	require.NoError(t, m.Bootstrap())

	a, err := s.Get("^A", nil)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, int64(1), a.I)

	b, err := s.Get("^B", nil)
	require.NoError(t, err)
	require.NotNil(t, b)
	require.Equal(t, int64(2), b.I)
}

func TestManagerStopDrainsAndSnapshots(t *testing.T) {
	dir := t.TempDir()
	s := store.New()
	require.NoError(t, s.Set("^A", nil, mvalue.NewIntValue(7)))

	m, err := New(s, filepath.Join(dir, "snap.db"), filepath.Join(dir, "log.aof"), time.Hour)
	require.NoError(t, err)
	m.Start()
	m.Stop()

	restored := store.New()
	m2, err := New(restored, filepath.Join(dir, "snap.db"), filepath.Join(dir, "log2.aof"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { m2.aof.Close() })
	require.NoError(t, m2.LoadSnapshot())

	a, err := restored.Get("^A", nil)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, int64(7), a.I)
}
