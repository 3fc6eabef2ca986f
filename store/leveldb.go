package store

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/herorealm/realm/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	dataPrefix  = []byte("d/")
	versionKey  = []byte("m/version")
	rootHashKey = []byte("m/hash")
)

// CommitStore is a CommitKVStore persisted in a LevelDB database.
//
// Changes written by cache wraps are staged in memory until Commit. Each
// commit writes all staged changes in one atomic batch, together with the
// new version and hash. The hash chains the previous hash with every write
// of the block, in key order, so two nodes that applied the same blocks
// report the same hash.
type CommitStore struct {
	db     *leveldb.DB
	staged BTreeCacheWrap
	id     CommitID
}

var _ CommitKVStore = (*CommitStore)(nil)

// NewCommitStore opens (or creates) the database found at dir.
func NewCommitStore(dir string) (*CommitStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", dir, err)
	}
	return newCommitStore(db)
}

// NewMemCommitStore returns a CommitStore that keeps the database in memory.
func NewMemCommitStore() (*CommitStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open memory storage: %s", err)
	}
	return newCommitStore(db)
}

func newCommitStore(db *leveldb.DB) (*CommitStore, error) {
	s := &CommitStore{db: db}
	if err := s.LoadLatestVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database.
func (s *CommitStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Get returns the committed or staged value of the key.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	return s.staged.Get(key)
}

// CacheWrap returns a scratch pad over the staged state. Writing it stages
// its changes for the next Commit.
func (s *CommitStore) CacheWrap() KVCacheWrap {
	return s.staged.CacheWrap()
}

// Commit persists all staged changes as the next version.
func (s *CommitStore) Commit() (CommitID, error) {
	batch := newHashingBatch(s.id.Hash)
	s.staged.sink = batch
	if err := s.staged.Write(); err != nil {
		return CommitID{}, err
	}

	next := CommitID{
		Version: s.id.Version + 1,
		Hash:    batch.sum(),
	}
	var ver [8]byte
	binary.BigEndian.PutUint64(ver[:], uint64(next.Version))
	batch.batch.Put(versionKey, ver[:])
	batch.batch.Put(rootHashKey, next.Hash)

	if err := s.db.Write(batch.batch, &opt.WriteOptions{Sync: true}); err != nil {
		return CommitID{}, errors.Wrapf(errors.ErrDatabase, "commit version %d: %s", next.Version, err)
	}
	s.id = next
	return next, nil
}

// LoadLatestVersion drops staged changes and reloads the last committed
// version.
func (s *CommitStore) LoadLatestVersion() error {
	view := levelView{db: s.db}
	s.staged = NewBTreeCacheWrap(view, EmptyKVStore{}, nil)

	raw, err := view.raw(versionKey)
	if err != nil {
		return err
	}
	if raw == nil {
		s.id = CommitID{}
		return nil
	}
	if len(raw) != 8 {
		return errors.Wrapf(errors.ErrDatabase, "corrupted version: %X", raw)
	}
	hash, err := view.raw(rootHashKey)
	if err != nil {
		return err
	}
	s.id = CommitID{
		Version: int64(binary.BigEndian.Uint64(raw)),
		Hash:    hash,
	}
	return nil
}

// LatestVersion returns the last committed version.
func (s *CommitStore) LatestVersion() (CommitID, error) {
	return s.id, nil
}

// hashingBatch collects the writes of a commit into a leveldb batch and
// folds them into the commit hash.
type hashingBatch struct {
	batch *leveldb.Batch
	prev  []byte
	buf   []byte
}

var _ SetDeleter = (*hashingBatch)(nil)

func newHashingBatch(prev []byte) *hashingBatch {
	return &hashingBatch{
		batch: new(leveldb.Batch),
		prev:  prev,
		buf:   append([]byte(nil), prev...),
	}
}

func (h *hashingBatch) Set(key, value []byte) error {
	h.batch.Put(dataKey(key), value)
	h.fold('s', key, value)
	return nil
}

func (h *hashingBatch) Delete(key []byte) error {
	h.batch.Delete(dataKey(key))
	h.fold('d', key, nil)
	return nil
}

func (h *hashingBatch) fold(op byte, key, value []byte) {
	var n [4]byte
	h.buf = append(h.buf, op)
	binary.BigEndian.PutUint32(n[:], uint32(len(key)))
	h.buf = append(h.buf, n[:]...)
	h.buf = append(h.buf, key...)
	binary.BigEndian.PutUint32(n[:], uint32(len(value)))
	h.buf = append(h.buf, n[:]...)
	h.buf = append(h.buf, value...)
}

// sum returns the previous hash unchanged if nothing was written.
func (h *hashingBatch) sum() []byte {
	if len(h.buf) == len(h.prev) {
		return append([]byte(nil), h.prev...)
	}
	return crypto.Keccak256(h.buf)
}

func dataKey(key []byte) []byte {
	return append(append(make([]byte, 0, len(dataPrefix)+len(key)), dataPrefix...), key...)
}

// levelView is a read only view of the committed data.
type levelView struct {
	db *leveldb.DB
}

var _ ReadOnlyKVStore = levelView{}

func (v levelView) raw(key []byte) ([]byte, error) {
	val, err := v.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return val, nil
}

func (v levelView) Get(key []byte) ([]byte, error) {
	return v.raw(dataKey(key))
}

func (v levelView) Has(key []byte) (bool, error) {
	ok, err := v.db.Has(dataKey(key), nil)
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

func (v levelView) Iterator(start, end []byte) (Iterator, error) {
	return &levelIterator{it: v.db.NewIterator(v.keyRange(start, end), nil)}, nil
}

func (v levelView) ReverseIterator(start, end []byte) (Iterator, error) {
	return &levelIterator{it: v.db.NewIterator(v.keyRange(start, end), nil), reverse: true}, nil
}

func (levelView) keyRange(start, end []byte) *util.Range {
	r := util.BytesPrefix(dataPrefix)
	if start != nil {
		r.Start = dataKey(start)
	}
	if end != nil {
		r.Limit = dataKey(end)
	}
	return r
}

// levelIterator adapts a leveldb iterator, stripping the data prefix.
type levelIterator struct {
	it      iterator.Iterator
	reverse bool
	started bool
}

func (l *levelIterator) Next() (key, value []byte, err error) {
	var ok bool
	switch {
	case !l.started && l.reverse:
		ok = l.it.Last()
	case !l.started:
		ok = l.it.First()
	case l.reverse:
		ok = l.it.Prev()
	default:
		ok = l.it.Next()
	}
	l.started = true
	if !ok {
		if err := l.it.Error(); err != nil {
			return nil, nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		return nil, nil, errors.ErrIteratorDone
	}
	// leveldb reuses the buffers, so copy before returning.
	k := append([]byte(nil), l.it.Key()[len(dataPrefix):]...)
	v := append([]byte(nil), l.it.Value()...)
	return k, v, nil
}

func (l *levelIterator) Release() {
	l.it.Release()
}
