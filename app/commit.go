package app

import (
	"math/big"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

// CommitStore handles loading from a CommitKVStore, maintaining different
// CacheWraps for Deliver and Check, and returning useful state info.
type CommitStore struct {
	committed realm.CommitKVStore
	deliver   realm.KVCacheWrap
	check     realm.KVCacheWrap
}

// NewCommitStore loads the latest version of the store and sets up the
// deliver and check caches.
func NewCommitStore(store realm.CommitKVStore) (*CommitStore, error) {
	if err := store.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load latest version")
	}
	return &CommitStore{
		committed: store,
		deliver:   store.CacheWrap(),
		check:     store.CacheWrap(),
	}, nil
}

// CommitInfo returns the current height and hash
func (cs *CommitStore) CommitInfo() (realm.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Commit flushes the deliver cache to the underlying store, persists it and
// sets up fresh caches. Changes made by CheckTx are dropped.
func (cs *CommitStore) Commit() (realm.CommitID, error) {
	if err := cs.deliver.Write(); err != nil {
		return realm.CommitID{}, err
	}
	cs.check.Discard()

	res, err := cs.committed.Commit()
	if err != nil {
		return res, err
	}

	cs.deliver = cs.committed.CacheWrap()
	cs.check = cs.committed.CacheWrap()
	return res, nil
}

// CheckStore returns a store implementation that must be used during the
// checking phase.
func (cs *CommitStore) CheckStore() realm.CacheableKVStore {
	return cs.check
}

// DeliverStore returns a store implementation that must be used during the
// delivery phase.
func (cs *CommitStore) DeliverStore() realm.CacheableKVStore {
	return cs.deliver
}

// QueryStore returns a scratch pad over the last committed state. The
// caller must Discard it.
func (cs *CommitStore) QueryStore() realm.KVCacheWrap {
	return cs.committed.CacheWrap()
}

// _realm: is a prefix for application internal data
const (
	chainIDKey   = "_realm:chainID"
	networkIDKey = "_realm:networkID"
)

// loadChainID returns the chain id stored if any.
func loadChainID(kv realm.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(err, "load chain id")
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv realm.KVStore, chainID string) error {
	if !realm.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	return saveOnce(kv, chainIDKey, []byte(chainID))
}

// loadNetworkID returns the stored network id, or nil if the genesis did
// not set one.
func loadNetworkID(kv realm.ReadOnlyKVStore) (*big.Int, error) {
	v, err := kv.Get([]byte(networkIDKey))
	if err != nil {
		return nil, errors.Wrap(err, "load network id")
	}
	if len(v) == 0 {
		return nil, nil
	}
	return new(big.Int).SetBytes(v), nil
}

func saveNetworkID(kv realm.KVStore, id *big.Int) error {
	if id == nil || id.Sign() <= 0 {
		return errors.Wrapf(errors.ErrInput, "network id: %v", id)
	}
	return saveOnce(kv, networkIDKey, id.Bytes())
}

func saveOnce(kv realm.KVStore, key string, value []byte) error {
	k := []byte(key)
	exists, err := kv.Has(k)
	if err != nil {
		return errors.Wrapf(err, "load %s", key)
	}
	if exists {
		return errors.Wrapf(errors.ErrImmutable, "%s is set at genesis", key)
	}
	if err := kv.Set(k, value); err != nil {
		return errors.Wrapf(err, "save %s", key)
	}
	return nil
}
