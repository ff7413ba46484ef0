package persistence

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/store"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Set("^P", mvalue.Path{mvalue.NewIntSub(1), mvalue.NewStringSub("name")}, mvalue.NewStringValue("John")))
	require.NoError(t, s.Set("^P", mvalue.Path{mvalue.NewIntSub(1), mvalue.NewStringSub("age")}, mvalue.NewIntValue(35)))
	require.NoError(t, s.Set("^T", mvalue.Path{mvalue.NewIntSub(10)}, mvalue.NewStringValue("c")))

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, s))

	restored := store.New()
	require.NoError(t, ReadSnapshot(&buf, restored))

	v, err := restored.Get("^P", mvalue.Path{mvalue.NewIntSub(1), mvalue.NewStringSub("name")})
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, "John", v.Text())

	v, err = restored.Get("^T", mvalue.Path{mvalue.NewIntSub(10)})
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, int64(35), func() int64 {
		age, _ := restored.Get("^P", mvalue.Path{mvalue.NewIntSub(1), mvalue.NewStringSub("age")})
		return age.I
	}())
	require.Equal(t, "c", v.Text())
}

func TestReadSnapshotRejectsBadMagic(t *testing.T) {
	s := store.New()
	err := ReadSnapshot(bytes.NewReader([]byte("not-a-snapshot")), s)
	require.Error(t, err)
}
