package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/herorealm/realm/errors"
)

// SliceIterator wraps an Iterator over a slice of models
type SliceIterator struct {
	data []Model
	idx  int
}

var _ Iterator = (*SliceIterator)(nil)

// NewSliceIterator creates a new Iterator over this slice
func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{
		data: data,
	}
}

// Next returns the next model of the slice.
func (s *SliceIterator) Next() (key, value []byte, err error) {
	if s.idx >= len(s.data) {
		return nil, nil, errors.ErrIteratorDone
	}
	m := s.data[s.idx]
	s.idx++
	return m.Key, m.Value, nil
}

// Release releases the Iterator.
func (s *SliceIterator) Release() {
	s.data = nil
}

// mergeIterator combines cached items with the iterator of the backing
// store. A cached item shadows a parent entry with the same key and a
// deleted item hides it.
type mergeIterator struct {
	items   []btree.Item
	idx     int
	reverse bool

	parent    Iterator
	peeked    bool
	done      bool
	peekKey   []byte
	peekValue []byte
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(items []btree.Item, parent Iterator, reverse bool) *mergeIterator {
	return &mergeIterator{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
}

func (m *mergeIterator) peek() error {
	if m.peeked || m.done {
		return nil
	}
	k, v, err := m.parent.Next()
	switch {
	case err == nil:
		m.peeked = true
		m.peekKey, m.peekValue = k, v
	case errors.ErrIteratorDone.Is(err):
		m.done = true
	default:
		return err
	}
	return nil
}

// Next returns the next visible key in iteration order.
func (m *mergeIterator) Next() (key, value []byte, err error) {
	for {
		if err := m.peek(); err != nil {
			return nil, nil, err
		}
		hasItem := m.idx < len(m.items)
		if !hasItem && m.done {
			return nil, nil, errors.ErrIteratorDone
		}
		if !hasItem {
			m.peeked = false
			return m.peekKey, m.peekValue, nil
		}

		item := m.items[m.idx]
		if !m.done {
			cmp := bytes.Compare(item.(keyer).Key(), m.peekKey)
			if m.reverse {
				cmp = -cmp
			}
			if cmp > 0 {
				m.peeked = false
				return m.peekKey, m.peekValue, nil
			}
			if cmp == 0 {
				// cache shadows the parent value
				m.peeked = false
			}
		}

		m.idx++
		if set, ok := item.(setItem); ok {
			return set.key, set.value, nil
		}
	}
}

// Release releases the parent iterator.
func (m *mergeIterator) Release() {
	m.items = nil
	m.parent.Release()
}
