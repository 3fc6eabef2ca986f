package server

import (
	"encoding/json"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/app"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/store"
)

// ValidateGenesis loads every genesis file into a throwaway store and
// returns the first error.
func ValidateGenesis(ini realm.Initializer, genesisPaths []string) error {
	for _, path := range genesisPaths {
		if err := validateGenesis(ini, path); err != nil {
			return errors.Wrap(err, path)
		}
	}
	return nil
}

func validateGenesis(ini realm.Initializer, genesisPath string) error {
	genesis, err := app.LoadGenesis(genesisPath)
	if err != nil {
		return err
	}
	var state realm.Options
	if err := json.Unmarshal(genesis.AppState, &state); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot JSON deserialize app state: %s", err)
	}

	// Use in memory store because we want to discard the result.
	db := store.MemStore()
	if err := ini.FromGenesis(state, db); err != nil {
		return errors.Wrap(err, "cannot initialize from genesis")
	}
	return nil
}
