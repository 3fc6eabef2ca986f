package server

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

const tmGenesis = `{"chain_id": "test-chain-LgVOZ0", "validators": [{"power": "10"}]}`

func writeGenesis(t *testing.T, content string) Config {
	t.Helper()
	conf := DefaultConfig(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(conf.GenesisFile()), 0755))
	require.NoError(t, os.WriteFile(conf.GenesisFile(), []byte(content), 0600))
	return conf
}

func readGenesis(t *testing.T, conf Config) GenesisDoc {
	t.Helper()
	raw, err := os.ReadFile(conf.GenesisFile())
	require.NoError(t, err)
	var doc GenesisDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func genTokens(out io.Writer, args []string) (json.RawMessage, error) {
	ticker := "HERO"
	if len(args) > 0 {
		ticker = args[0]
	}
	io.WriteString(out, "generated\n")
	return json.Marshal(map[string]interface{}{
		"network_id": 1337,
		"token":      []token.GenesisToken{{Ticker: ticker, Name: "Hero Coin", Decimals: 18}},
	})
}

func TestInit(t *testing.T) {
	conf := writeGenesis(t, tmGenesis)
	var out bytes.Buffer

	require.NoError(t, InitCmd(genTokens, log.NewNopLogger(), conf, &out, false, nil))
	assert.Equal(t, "generated\n", out.String())

	// keep old values, and add our values
	doc := readGenesis(t, conf)
	assert.JSONEq(t, `"test-chain-LgVOZ0"`, string(doc["chain_id"]))
	assert.NotEmpty(t, doc["validators"])
	assert.Contains(t, string(doc[appStateKey]), `"HERO"`)

	err := InitCmd(genTokens, log.NewNopLogger(), conf, &out, false, []string{"USDH"})
	assert.True(t, errors.ErrDuplicate.Is(err))

	require.NoError(t, InitCmd(genTokens, log.NewNopLogger(), conf, &out, true, []string{"USDH"}))
	doc = readGenesis(t, conf)
	assert.Contains(t, string(doc[appStateKey]), `"USDH"`)
}

func TestInitWithoutGenesis(t *testing.T) {
	conf := DefaultConfig(t.TempDir())
	err := InitCmd(genTokens, log.NewNopLogger(), conf, io.Discard, false, nil)
	assert.True(t, errors.ErrNotFound.Is(err))
}

const heroToken = `{"ticker": "HERO", "name": "Hero Coin", "decimals": 18, "admin": "0x8ba1f109551bd432803012645ac136ddd64dba72"}`

func TestValidateGenesis(t *testing.T) {
	cases := map[string]struct {
		genesis string
		wantErr *errors.Error
	}{
		"valid": {
			genesis: `{"chain_id": "test-chain", "app_state": {"token": [` + heroToken + `]}}`,
		},
		"duplicate token": {
			genesis: `{"chain_id": "test-chain", "app_state": {"token": [` + heroToken + `, ` + heroToken + `]}}`,
			wantErr: errors.ErrDuplicate,
		},
		"missing admin": {
			genesis: `{"chain_id": "test-chain", "app_state": {"token": [{"ticker": "HERO", "name": "Hero Coin"}]}}`,
			wantErr: errors.ErrEmpty,
		},
		"invalid chain id": {
			genesis: `{"chain_id": "x", "app_state": {}}`,
			wantErr: errors.ErrInput,
		},
		"broken app state": {
			genesis: `{"chain_id": "test-chain", "app_state": []}`,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			conf := writeGenesis(t, tc.genesis)
			err := ValidateGenesis(&token.Initializer{}, []string{conf.GenesisFile()})
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}
