package orm

import (
	"testing"

	"github.com/herorealm/realm/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	db := store.MemStore()

	a := NewSequence("wallets", "id")
	b := NewSequence("wallets", "other")

	latest, err := a.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), latest)

	v, err := a.NextInt(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	raw, err := a.NextVal(db)
	require.NoError(t, err)
	assert.Equal(t, EncodeSequence(2), raw)

	v, err = b.NextInt(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	latest, err = a.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), latest)
}

func TestDecodeSequence(t *testing.T) {
	v, err := DecodeSequence(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	_, err = DecodeSequence([]byte{1, 2})
	assert.Error(t, err)
}
