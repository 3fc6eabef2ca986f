package store

import "github.com/herorealm/realm"

// Storage interfaces live in the root package. The aliases keep the names
// short inside this package.

type ReadOnlyKVStore = realm.ReadOnlyKVStore
type SetDeleter = realm.SetDeleter
type KVStore = realm.KVStore
type Iterator = realm.Iterator
type CacheableKVStore = realm.CacheableKVStore
type KVCacheWrap = realm.KVCacheWrap
type CommitKVStore = realm.CommitKVStore
type CommitID = realm.CommitID

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}

// Op is either set or delete
type Op struct {
	delete bool
	key    []byte
	value  []byte
}

// SetOp is a helper to create a set operation
func SetOp(key, value []byte) Op {
	return Op{key: key, value: value}
}

// DelOp is a helper to create a del operation
func DelOp(key []byte) Op {
	return Op{key: key, delete: true}
}

// IsDelete returns true if the operation removes the key.
func (o Op) IsDelete() bool {
	return o.delete
}

// Key returns the key the operation touches.
func (o Op) Key() []byte {
	return o.key
}

// Apply performs the operation on the given store.
func (o Op) Apply(out SetDeleter) error {
	if o.delete {
		return out.Delete(o.key)
	}
	return out.Set(o.key, o.value)
}
