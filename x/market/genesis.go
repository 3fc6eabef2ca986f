package market

import (
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/gconf"
)

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ realm.Initializer = (*Initializer)(nil)

// FromGenesis loads the market configuration from the "conf" section.
func (*Initializer) FromGenesis(opts realm.Options, db realm.KVStore) error {
	return gconf.InitConfig(db, opts, confPkg, &Configuration{})
}
