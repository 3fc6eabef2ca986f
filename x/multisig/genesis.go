package multisig

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/gconf"
)

// GenesisWallet is a wallet created at genesis. Wallets get ids in the
// order they are listed, starting at 1.
type GenesisWallet struct {
	Owners   []common.Address `json:"owners"`
	Required uint32           `json:"required"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ realm.Initializer = (*Initializer)(nil)

// FromGenesis reads the "multisig" wallet list and the optional multisig
// entry of the "conf" section.
func (*Initializer) FromGenesis(opts realm.Options, db realm.KVStore) error {
	if err := gconf.InitConfig(db, opts, confPkg, &Configuration{}); err != nil && !errors.ErrNotFound.Is(err) {
		return err
	}

	var wallets []GenesisWallet
	if err := opts.ReadOptions("multisig", &wallets); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	bucket := NewWalletBucket()
	for i, gw := range wallets {
		w := &Wallet{Owners: gw.Owners, Required: gw.Required}
		if err := w.Validate(); err != nil {
			return errors.Wrapf(err, "wallet #%d", i)
		}
		id, err := bucket.Create(db, w)
		if err != nil {
			return errors.Wrapf(err, "wallet #%d", i)
		}
		if err := w.checkOwnedBy(id); err != nil {
			return errors.Wrapf(err, "wallet #%d", i)
		}
	}
	return nil
}
