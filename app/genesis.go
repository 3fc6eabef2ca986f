package app

import (
	"encoding/json"
	"os"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

// Genesis is the part of a Tendermint genesis file the application reads.
type Genesis struct {
	ChainID  string          `json:"chain_id"`
	AppState json.RawMessage `json:"app_state"`
}

// LoadGenesis reads a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "read genesis: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "parse genesis: %s", err)
	}
	if !realm.IsValidChainID(gen.ChainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %q", gen.ChainID)
	}
	return &gen, nil
}

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...realm.Initializer) realm.Initializer {
	return chainInitializer{inits: inits}
}

type chainInitializer struct {
	inits []realm.Initializer
}

// FromGenesis passes the options to all initializers in order, aborting at
// the first error.
func (c chainInitializer) FromGenesis(opts realm.Options, kv realm.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
