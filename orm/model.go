package orm

import (
	"github.com/herorealm/realm"
)

// Model is implemented by any entity that can be stored using a
// ModelBucket. It must be a pointer to an RLP encodable struct.
type Model interface {
	Validate() error
}

// Type aliases keep the signatures short.
type (
	ReadOnlyKVStore = realm.ReadOnlyKVStore
	KVStore         = realm.KVStore
)
