package nft

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

const optKey = "nft"

// GenesisCollection is used to parse the json from genesis file.
type GenesisCollection struct {
	Name          string           `json:"name"`
	Symbol        string           `json:"symbol"`
	Kind          string           `json:"kind"`
	BaseURI       string           `json:"base_uri"`
	Admin         common.Address   `json:"admin"`
	Controllers   []common.Address `json:"controllers"`
	MintSigner    common.Address   `json:"mint_signer"`
	Vault         common.Address   `json:"vault"`
	PaymentToken  string           `json:"payment_token"`
	DomainName    string           `json:"domain_name"`
	DomainVersion string           `json:"domain_version"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ realm.Initializer = (*Initializer)(nil)

// FromGenesis stores every listed collection.
func (*Initializer) FromGenesis(opts realm.Options, db realm.KVStore) error {
	var collections []GenesisCollection
	if err := opts.ReadOptions(optKey, &collections); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	bucket := NewCollectionBucket()
	for _, gc := range collections {
		if ok, err := bucket.Has(db, []byte(gc.Name)); err != nil {
			return err
		} else if ok {
			return errors.Wrapf(errors.ErrDuplicate, "collection %q", gc.Name)
		}
		col := Collection{
			Name:          gc.Name,
			Symbol:        gc.Symbol,
			Kind:          gc.Kind,
			BaseURI:       gc.BaseURI,
			Admin:         gc.Admin,
			Controllers:   gc.Controllers,
			MintSigner:    gc.MintSigner,
			Vault:         gc.Vault,
			PaymentToken:  gc.PaymentToken,
			DomainName:    gc.DomainName,
			DomainVersion: gc.DomainVersion,
		}
		if err := bucket.Put(db, []byte(col.Name), &col); err != nil {
			return errors.Wrapf(err, "collection %q", gc.Name)
		}
	}
	return nil
}
