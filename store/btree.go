package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/herorealm/realm/errors"
)

const (
	// DefaultFreeListSize is the size we hold for free node in btree
	DefaultFreeListSize = btree.DefaultFreeListSize
)

// MemStore returns a simple implementation useful for tests.
// There is no persistence here. Writing the returned store itself drops
// all data, only its own cache wraps should be written.
func MemStore() CacheableKVStore {
	e := EmptyKVStore{}
	return NewBTreeCacheWrap(e, e, nil)
}

// BTreeCacheWrap places a btree cache over a KVStore. All reads fall through
// to the backing store for keys the cache does not know about. Writes stay
// in the cache until Write flushes them into the sink.
type BTreeCacheWrap struct {
	bt   *btree.BTree
	free *btree.FreeList
	back ReadOnlyKVStore
	sink SetDeleter
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap initializes a BTree to cache around this kv store.
// Reads fall through to back, Write flushes into sink. Usually both are the
// same store.
//
// free may be nil, but set to an existing list to reuse it
// for memory savings
func NewBTreeCacheWrap(back ReadOnlyKVStore, sink SetDeleter, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:   btree.NewWithFreeList(2, free),
		free: free,
		back: back,
		sink: sink,
	}
}

// CacheWrap layers another BTree on top of this one.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b, b.free)
}

// Write flushes all cached operations into the sink in key order and
// then clears the cache.
func (b BTreeCacheWrap) Write() error {
	var err error
	b.bt.Ascend(func(i btree.Item) bool {
		switch t := i.(type) {
		case setItem:
			err = b.sink.Set(t.key, t.value)
		case deletedItem:
			err = b.sink.Delete(t.key)
		default:
			err = errors.Wrapf(errors.ErrDatabase, "unknown item in btree: %#v", i)
		}
		return err == nil
	})
	b.Discard()
	return err
}

// Discard drops all cached operations.
func (b BTreeCacheWrap) Discard() {
	for b.bt.DeleteMin() != nil {
	}
}

// Set writes to the BTree
func (b BTreeCacheWrap) Set(key, value []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrDatabase, "empty key")
	}
	b.bt.ReplaceOrInsert(newSetItem(key, value))
	return nil
}

// Delete marks the key as removed in the BTree
func (b BTreeCacheWrap) Delete(key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrDatabase, "empty key")
	}
	b.bt.ReplaceOrInsert(newDeletedItem(key))
	return nil
}

// Get reads from btree if there, else backing store
func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	switch t := b.bt.Get(bkey{key}).(type) {
	case nil:
		return b.back.Get(key)
	case setItem:
		return t.value, nil
	case deletedItem:
		return nil, nil
	default:
		return nil, errors.Wrapf(errors.ErrDatabase, "unknown item in btree: %#v", t)
	}
}

// Has reads from btree if there, else backing store
func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	switch t := b.bt.Get(bkey{key}).(type) {
	case nil:
		return b.back.Has(key)
	case setItem:
		return true, nil
	case deletedItem:
		return false, nil
	default:
		return false, errors.Wrapf(errors.ErrDatabase, "unknown item in btree: %#v", t)
	}
}

// Iterator over a domain of keys in ascending order.
// Combines results from btree and backing store
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	parent, err := b.back.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(collectItems(b.bt, start, end, false), parent, false), nil
}

// ReverseIterator over a domain of keys in descending order.
// Combines results from btree and backing store
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	parent, err := b.back.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(collectItems(b.bt, start, end, true), parent, true), nil
}

// collectItems returns a snapshot of the cached items in [start, end).
func collectItems(bt *btree.BTree, start, end []byte, reverse bool) []btree.Item {
	var items []btree.Item
	collect := func(i btree.Item) bool {
		items = append(items, i)
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(bkey{end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items
}

// keyer is implemented by all data stored in our btree.
type keyer interface {
	Key() []byte
}

// bkey implements keyer and btree.Item
// and may be used for queries or embedded in data to store
type bkey struct {
	key []byte
}

var _ keyer = bkey{}
var _ btree.Item = bkey{}

func (k bkey) Key() []byte {
	return k.key
}

// Less returns true iff second argument is greater than first
//
// panics if the item to compare doesn't implement keyer.
func (k bkey) Less(item btree.Item) bool {
	cmp := item.(keyer).Key()
	return bytes.Compare(k.key, cmp) < 0
}

type deletedItem struct {
	bkey
}

func newDeletedItem(key []byte) deletedItem {
	return deletedItem{bkey{key}}
}

type setItem struct {
	bkey
	value []byte
}

func newSetItem(key, value []byte) setItem {
	return setItem{bkey{key}, value}
}

// EmptyKVStore holds nothing and drops all writes.
type EmptyKVStore struct{}

var _ KVStore = EmptyKVStore{}

func (EmptyKVStore) Get(key []byte) ([]byte, error) { return nil, nil }
func (EmptyKVStore) Has(key []byte) (bool, error)   { return false, nil }
func (EmptyKVStore) Set(key, value []byte) error    { return nil }
func (EmptyKVStore) Delete(key []byte) error        { return nil }

func (EmptyKVStore) Iterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

func (EmptyKVStore) ReverseIterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
