package realmd

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x/market"
	"github.com/herorealm/realm/x/multisig"
	"github.com/herorealm/realm/x/nft"
	"github.com/herorealm/realm/x/token"
	"github.com/herorealm/realm/x/vault"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// DevNetworkID is the network id of a generated development genesis.
const DevNetworkID = 1337

// Tickers and collections created by a development genesis.
const (
	CurrencyTicker = "HERO"
	StableTicker   = "USDH"
	HeroCollection = "heroes"
)

// GenesisState is the app_state of a genesis file.
type GenesisState struct {
	NetworkID uint64                   `json:"network_id"`
	Tokens    []token.GenesisToken     `json:"token"`
	NFTs      []nft.GenesisCollection  `json:"nft"`
	Vaults    []vault.GenesisVault     `json:"vault"`
	Conf      GenesisConf              `json:"conf"`
	Wallets   []multisig.GenesisWallet `json:"multisig"`
}

// GenesisConf is the "conf" section of the genesis.
type GenesisConf struct {
	Market   *market.Configuration   `json:"market,omitempty"`
	Multisig *multisig.Configuration `json:"multisig,omitempty"`
}

// GenInitOptions will produce some basic options for one rich
// account, to use for dev mode.
//
// The only argument is the address of the administrator. If it is
// missing, a key is generated and its secret printed to out.
func GenInitOptions(out io.Writer, args []string) (json.RawMessage, error) {
	var admin common.Address
	if len(args) > 0 {
		addr, err := realm.ParseAddress(args[0])
		if err != nil {
			return nil, err
		}
		admin = addr
	} else {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, errors.Wrap(errors.ErrHuman, err.Error())
		}
		admin = crypto.PubkeyToAddress(key.PublicKey)
		fmt.Fprintf(out, "admin %s\nsecret %s\n", admin.Hex(), secret(key))
	}
	return json.MarshalIndent(DevGenesis(admin), "", "  ")
}

// DevGenesis returns a genesis in which admin owns and signs for every
// contract and holds the whole supply. The multisig configuration belongs
// to wallet 1, of which admin is the only owner.
func DevGenesis(admin common.Address) GenesisState {
	supply := (*math.HexOrDecimal256)(new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil))
	return GenesisState{
		NetworkID: DevNetworkID,
		Tokens: []token.GenesisToken{
			{
				Ticker:   CurrencyTicker,
				Name:     "Hero Coin",
				Decimals: 18,
				Admin:    admin,
				Balances: []token.GenesisBalance{{Address: admin, Amount: supply}},
			},
			{
				Ticker:   StableTicker,
				Name:     "Hero Dollar",
				Decimals: 6,
				Admin:    admin,
				Balances: []token.GenesisBalance{{Address: admin, Amount: supply}},
			},
		},
		NFTs: []nft.GenesisCollection{
			{
				Name:          HeroCollection,
				Symbol:        "HERO",
				Kind:          "hero",
				BaseURI:       "https://api.herorealm.io/heroes/",
				Admin:         admin,
				MintSigner:    admin,
				Vault:         admin,
				PaymentToken:  StableTicker,
				DomainName:    "Heroes",
				DomainVersion: "1",
			},
		},
		Vaults: []vault.GenesisVault{
			{
				Token:         CurrencyTicker,
				Admin:         admin,
				Vault:         admin,
				Signer:        admin,
				DomainName:    "Hero Coin",
				DomainVersion: "1",
			},
		},
		Wallets: []multisig.GenesisWallet{
			{Owners: []common.Address{admin}, Required: 1},
		},
		Conf: GenesisConf{
			Market:   &market.Configuration{Owner: admin, PaymentToken: StableTicker},
			Multisig: &multisig.Configuration{Owner: multisig.WalletAddress(1), NativeToken: CurrencyTicker},
		},
	}
}

// GenerateApp is used to create a stub for server/start.go command. The
// returned closer releases the database.
func GenerateApp(home string, logger log.Logger, debug bool) (abci.Application, io.Closer, error) {
	// db goes in a subdir, but "" -> "" for memdb
	var dbPath string
	if home != "" {
		dbPath = filepath.Join(home, "realm.db")
	}
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	application := Application(Name, Stack(), kv, debug)
	application.WithLogger(logger)
	return application, kv, nil
}

func secret(key *ecdsa.PrivateKey) string {
	return hex.EncodeToString(crypto.FromECDSA(key))
}
