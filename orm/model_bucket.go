package orm

import (
	"reflect"
	"regexp"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z][a-z0-9_]{2,19}$`).MatchString

// ModelBucket stores models of a single type.
type ModelBucket interface {
	// One query the database for a single model instance. Result is
	// loaded into given destination model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns true if an entity with given key exists.
	Has(db ReadOnlyKVStore, key []byte) (bool, error)

	// Put validates and saves given model in the database.
	Put(db KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db KVStore, key []byte) error

	// Each loads every entity whose key starts with prefix into dest, in
	// ascending key order, and calls fn with its key. Iteration stops at
	// the first error returned by fn.
	Each(db ReadOnlyKVStore, prefix []byte, dest Model, fn func(key []byte) error) error

	// Register exposes the bucket under the given query path. Query data
	// is the primary key of the entity.
	Register(path string, r realm.QueryRouter)
}

// NewModelBucket returns a ModelBucket storing models of the same type as
// the given example, under the given name.
func NewModelBucket(name string, example Model) ModelBucket {
	if !isBucketName(name) {
		panic("invalid bucket name: " + name)
	}
	t := reflect.TypeOf(example)
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		panic("model must be a pointer to a struct")
	}
	return &modelBucket{
		prefix: []byte(name + ":"),
		model:  t,
	}
}

type modelBucket struct {
	prefix []byte
	model  reflect.Type
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) dbKey(key []byte) []byte {
	return append(append(make([]byte, 0, len(mb.prefix)+len(key)), mb.prefix...), key...)
}

func (mb *modelBucket) checkType(dest Model) error {
	if reflect.TypeOf(dest) != mb.model {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %s", dest, mb.model)
	}
	return nil
}

func (mb *modelBucket) decode(raw []byte, dest Model) error {
	v := reflect.ValueOf(dest).Elem()
	v.Set(reflect.Zero(v.Type()))
	if err := rlp.DecodeBytes(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot decode %T: %s", dest, err)
	}
	return nil
}

func (mb *modelBucket) One(db ReadOnlyKVStore, key []byte, dest Model) error {
	if err := mb.checkType(dest); err != nil {
		return err
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	return mb.decode(raw, dest)
}

func (mb *modelBucket) Has(db ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(mb.dbKey(key))
}

func (mb *modelBucket) Put(db KVStore, key []byte, m Model) error {
	if err := mb.checkType(m); err != nil {
		return err
	}
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := rlp.EncodeToBytes(m)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot encode %T: %s", m, err)
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db KVStore, key []byte) error {
	k := mb.dbKey(key)
	ok, err := db.Has(k)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s", mb.model.Elem().Name())
	}
	return db.Delete(k)
}

func (mb *modelBucket) Each(db ReadOnlyKVStore, prefix []byte, dest Model, fn func(key []byte) error) error {
	if err := mb.checkType(dest); err != nil {
		return err
	}
	start := mb.dbKey(prefix)
	it, err := db.Iterator(start, prefixEnd(start))
	if err != nil {
		return err
	}
	defer it.Release()

	for {
		key, raw, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := mb.decode(raw, dest); err != nil {
			return err
		}
		if err := fn(key[len(mb.prefix):]); err != nil {
			return err
		}
	}
}

func (mb *modelBucket) Register(path string, r realm.QueryRouter) {
	r.Register(path, realm.QueryFunc(func(db ReadOnlyKVStore, data []byte) (interface{}, error) {
		m := reflect.New(mb.model.Elem()).Interface().(Model)
		if err := mb.One(db, data, m); err != nil {
			return nil, err
		}
		return m, nil
	}))
}

// prefixEnd returns the first key that does not start with prefix, or nil
// when there is none.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
