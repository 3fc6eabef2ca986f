package store

import (
	"testing"

	"github.com/herorealm/realm/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stage(t *testing.T, s *CommitStore, kv ...string) {
	t.Helper()
	cache := s.CacheWrap()
	for i := 0; i < len(kv); i += 2 {
		if kv[i+1] == "" {
			require.NoError(t, cache.Delete([]byte(kv[i])))
		} else {
			require.NoError(t, cache.Set([]byte(kv[i]), []byte(kv[i+1])))
		}
	}
	require.NoError(t, cache.Write())
}

func TestCommitStoreReload(t *testing.T) {
	dir := t.TempDir()

	s, err := NewCommitStore(dir)
	require.NoError(t, err)
	id, err := s.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(0), id.Version)

	stage(t, s, "vault", "100", "claim", "1")
	first, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)
	assert.Len(t, first.Hash, 32)

	// staged but not committed changes are lost on reload
	stage(t, s, "vault", "40")
	got, err := s.Get([]byte("vault"))
	require.NoError(t, err)
	assert.Equal(t, []byte("40"), got)
	require.NoError(t, s.LoadLatestVersion())
	got, err = s.Get([]byte("vault"))
	require.NoError(t, err)
	assert.Equal(t, []byte("100"), got)

	stage(t, s, "claim", "", "vault", "60")
	second, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.NotEqual(t, first.Hash, second.Hash)
	require.NoError(t, s.Close())

	s, err = NewCommitStore(dir)
	require.NoError(t, err)
	defer s.Close()
	id, err = s.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, second, id)

	got, err = s.Get([]byte("vault"))
	require.NoError(t, err)
	assert.Equal(t, []byte("60"), got)
	got, err = s.Get([]byte("claim"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommitStoreHashIsDeterministic(t *testing.T) {
	run := func(order ...string) CommitID {
		s, err := NewMemCommitStore()
		require.NoError(t, err)
		defer s.Close()
		stage(t, s, order...)
		id, err := s.Commit()
		require.NoError(t, err)
		return id
	}

	a := run("a", "1", "b", "2", "c", "3")
	b := run("c", "3", "a", "1", "b", "2")
	assert.Equal(t, a, b)

	c := run("a", "1", "b", "2", "c", "4")
	assert.NotEqual(t, a.Hash, c.Hash)
}

func TestCommitStoreEmptyCommitKeepsHash(t *testing.T) {
	s, err := NewMemCommitStore()
	require.NoError(t, err)
	defer s.Close()

	stage(t, s, "a", "1")
	first, err := s.Commit()
	require.NoError(t, err)
	second, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, first.Hash, second.Hash)
}

func TestCommitStoreIterator(t *testing.T) {
	s, err := NewMemCommitStore()
	require.NoError(t, err)
	defer s.Close()

	stage(t, s, "a", "1", "b", "2", "c", "3", "d", "4")
	_, err = s.Commit()
	require.NoError(t, err)
	// uncommitted changes are merged into the iteration
	stage(t, s, "b", "", "bb", "5")

	cache := s.CacheWrap()
	collect := func(it Iterator, err error) []string {
		require.NoError(t, err)
		defer it.Release()
		var keys []string
		for {
			k, _, err := it.Next()
			if errors.ErrIteratorDone.Is(err) {
				return keys
			}
			require.NoError(t, err)
			keys = append(keys, string(k))
		}
	}

	assert.Equal(t, []string{"a", "bb", "c", "d"}, collect(cache.Iterator(nil, nil)))
	assert.Equal(t, []string{"bb", "c"}, collect(cache.Iterator([]byte("b"), []byte("d"))))
	assert.Equal(t, []string{"d", "c", "bb", "a"}, collect(cache.ReverseIterator(nil, nil)))

	view := levelView{db: s.db}
	assert.Equal(t, []string{"a", "b", "c", "d"}, collect(view.Iterator(nil, nil)))
	assert.Equal(t, []string{"c", "b"}, collect(view.ReverseIterator([]byte("b"), []byte("d"))))
}
