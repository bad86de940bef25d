package golden

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordVerify(t *testing.T) {
	t.Parallel()
	s := openTest(t)
	require.NoError(t, s.Record(Entry{Name: "box3x3", CRC: 0xdeadbeef, Variant: "depthwise_conv2d_k3x3_krnpad", Backend: "ref"}))

	require.NoError(t, s.Verify("box3x3", 0xdeadbeef, "depthwise_conv2d_k3x3_krnpad"))
	require.NoError(t, s.Verify("box3x3", 0xdeadbeef, ""))

	err := s.Verify("box3x3", 0xdeadbeee, "")
	require.True(t, errors.Is(err, ErrMismatch))
	err = s.Verify("box3x3", 0xdeadbeef, "depthwise_conv2d_generic")
	require.True(t, errors.Is(err, ErrMismatch))
	err = s.Verify("missing", 1, "")
	require.True(t, errors.Is(err, ErrNotRecorded))

	e, err := s.Get("box3x3")
	require.NoError(t, err)
	require.False(t, e.Recorded.IsZero())
	require.Equal(t, "ref", e.Backend)
}

func TestRecordReplaces(t *testing.T) {
	t.Parallel()
	s := openTest(t)
	require.NoError(t, s.Record(Entry{Name: "a", CRC: 1}))
	require.NoError(t, s.Record(Entry{Name: "a", CRC: 2}))
	e, err := s.Get("a")
	require.NoError(t, err)
	require.Equal(t, uint32(2), e.CRC)
	require.Error(t, s.Record(Entry{}))
}

func TestListAndDelete(t *testing.T) {
	t.Parallel()
	s := openTest(t)
	for _, name := range []string{"conv/b", "conv/a", "pool/a"} {
		require.NoError(t, s.Record(Entry{Name: name, CRC: 7}))
	}
	all, err := s.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)

	conv, err := s.List("conv/")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	require.Equal(t, "conv/a", conv[0].Name)

	require.NoError(t, s.Delete("conv/a"))
	require.NoError(t, s.Delete("never"))
	conv, err = s.List("conv/")
	require.NoError(t, err)
	require.Len(t, conv, 1)
}

func TestOpenOnDisk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Record(Entry{Name: "persist", CRC: 42}))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Verify("persist", 42, ""))
}
