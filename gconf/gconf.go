package gconf

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

// ReadStore is a subset of realm.ReadOnlyKVStore.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store is a subset of realm.KVStore.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// Configuration is implemented by a pointer to an RLP encodable struct.
type Configuration interface {
	Validate() error
}

func confKey(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save will Validate the object, before writing it to a special "configuration"
// singleton for that package name.
func Save(db Store, pkg string, src Configuration) error {
	key := confKey(pkg)
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "validation: key %q", key)
	}
	raw, err := rlp.EncodeToBytes(src)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "marshal: key %q: %s", key, err)
	}
	return db.Set(key, raw)
}

// Load reads the configuration of the package into dst. It returns
// ErrNotFound if no configuration was saved.
func Load(db ReadStore, pkg string, dst Configuration) error {
	key := confKey(pkg)
	raw, err := db.Get(key)
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "key %q", key)
	}
	if err := rlp.DecodeBytes(raw, dst); err != nil {
		return errors.Wrapf(errors.ErrModel, "unmarshal: key %q: %s", key, err)
	}
	return nil
}

// InitConfig will take opts["conf"][pkg], parse it into the given Configuration object
// validate it, and store under the proper key in the database
// Returns an error if anything goes wrong
func InitConfig(db Store, opts realm.Options, pkg string, conf Configuration) error {
	var confOptions realm.Options
	if err := opts.ReadOptions("conf", &confOptions); err != nil {
		return errors.Wrap(err, "read conf")
	}
	if confOptions[pkg] == nil {
		return errors.Wrapf(errors.ErrNotFound, "no configuration in genesis for %q package", pkg)
	}
	if err := confOptions.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(err, "read configuration for %s", pkg)
	}
	if err := Save(db, pkg, conf); err != nil {
		return errors.Wrapf(err, "save configuration for %s", pkg)
	}
	return nil
}
