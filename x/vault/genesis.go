package vault

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

const optKey = "vault"

// GenesisVault is used to parse the json from genesis file.
type GenesisVault struct {
	Token         string         `json:"token"`
	Admin         common.Address `json:"admin"`
	Vault         common.Address `json:"vault"`
	Signer        common.Address `json:"signer"`
	DomainName    string         `json:"domain_name"`
	DomainVersion string         `json:"domain_version"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ realm.Initializer = (*Initializer)(nil)

// FromGenesis stores a vault configuration for every listed token.
func (*Initializer) FromGenesis(opts realm.Options, db realm.KVStore) error {
	var vaults []GenesisVault
	if err := opts.ReadOptions(optKey, &vaults); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	bucket := NewConfigBucket()
	for _, v := range vaults {
		conf := Config{
			Token:         v.Token,
			Admin:         v.Admin,
			Vault:         v.Vault,
			Signer:        v.Signer,
			DomainName:    v.DomainName,
			DomainVersion: v.DomainVersion,
		}
		if err := bucket.Put(db, []byte(conf.Token), &conf); err != nil {
			return errors.Wrapf(err, "vault of %q", v.Token)
		}
	}
	return nil
}
