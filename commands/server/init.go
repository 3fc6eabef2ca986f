package server

import (
	"encoding/json"
	"io"
	"os"

	"github.com/herorealm/realm/errors"
	"github.com/tendermint/tendermint/libs/log"
)

const appStateKey = "app_state"

// GenOptions can parse command-line arguments to generate default
// app_state for the genesis file. This is application-specific.
type GenOptions func(out io.Writer, args []string) (json.RawMessage, error)

// InitCmd adds the app_state to the genesis file created by
// `tendermint init`. An existing app_state is only replaced when force
// is set.
func InitCmd(gen GenOptions, logger log.Logger, conf Config, out io.Writer, force bool, args []string) error {
	genFile := conf.GenesisFile()
	options, err := gen(out, args)
	if err != nil {
		return err
	}
	if err := addGenesisOptions(genFile, options, force); err != nil {
		return err
	}
	logger.Info("App state written to genesis", "path", genFile)
	return nil
}

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

func addGenesisOptions(filename string, options json.RawMessage, force bool) error {
	bz, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(errors.ErrNotFound, "genesis file, run tendermint init first: %s", err)
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis file: %s", err)
	}
	if state, ok := doc[appStateKey]; ok && !force && len(state) > 0 && string(state) != "null" && string(state) != "{}" {
		return errors.Wrap(errors.ErrDuplicate, "app_state already set")
	}

	doc[appStateKey] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	return os.WriteFile(filename, out, 0600)
}
