package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndRetrieve(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Store("threads/high/reddit_abc.json", []byte(`{"a":1}`)))

	data, err := s.Retrieve("threads/high/reddit_abc.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestStoreOverwrites(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Store("obj", []byte("first")))
	require.NoError(t, s.Store("obj", []byte("second")))

	data, err := s.Retrieve("obj")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestRetrieveMissingIsErrNotFound(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Retrieve("does/not/exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendAccumulates(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append("identity.log", []byte("one\n")))
	require.NoError(t, s.Append("identity.log", []byte("two\n")))

	data, err := s.Retrieve("identity.log")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestListFiltersByPrefixAndSorts(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Store("threads/high/b.json", []byte("{}")))
	require.NoError(t, s.Store("threads/high/a.json", []byte("{}")))
	require.NoError(t, s.Store("threads/low/c.json", []byte("{}")))
	require.NoError(t, s.Store("identity.log", []byte("")))

	names, err := s.List("threads/high/")
	require.NoError(t, err)
	assert.Equal(t, []string{"threads/high/a.json", "threads/high/b.json"}, names)

	all, err := s.List("threads/")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Store("obj", []byte("x")))
	require.NoError(t, s.Delete("obj"))
	require.NoError(t, s.Delete("obj"))

	_, err = s.Retrieve("obj")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmptyRootRejected(t *testing.T) {
	_, err := NewLocalStorage("")
	assert.Error(t, err)
}
