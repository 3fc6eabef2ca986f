package realmd_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/app"
	realmd "github.com/herorealm/realm/cmd/realmd/app"
	"github.com/herorealm/realm/crypto/eip712"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/realmtest"
	"github.com/herorealm/realm/x/market"
	"github.com/herorealm/realm/x/multisig"
	"github.com/herorealm/realm/x/nft"
	"github.com/herorealm/realm/x/token"
	"github.com/herorealm/realm/x/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainID = "realm-test"

// chain runs the full application in process and keeps track of the
// sequence of every signer.
type chain struct {
	t      *testing.T
	runner *realmtest.Runner
	admin  realmtest.Key
	seqs   map[common.Address]uint64
}

func newChain(t *testing.T, edit func(*realmd.GenesisState)) *chain {
	t.Helper()
	kv, err := realmd.CommitKVStore("")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	c := &chain{
		t:     t,
		admin: realmtest.NewKey(),
		seqs:  make(map[common.Address]uint64),
	}
	genesis := realmd.DevGenesis(c.admin.Address)
	if edit != nil {
		edit(&genesis)
	}
	c.runner = realmtest.NewRunner(t, realmd.Application(realmd.Name, realmd.Stack(), kv, true), chainID)
	c.runner.InitChain(genesis)
	return c
}

// tx signs msg with the next sequence of key. Failed messages consume
// the sequence as well.
func (c *chain) tx(key realmtest.Key, msg realm.Msg) *app.Tx {
	c.t.Helper()
	tx, err := app.NewTx(msg)
	require.NoError(c.t, err)
	require.NoError(c.t, tx.Sign(key.Private, chainID, c.seqs[key.Address]))
	c.seqs[key.Address]++
	return tx
}

// deliver delivers a single message in its own block and returns the
// result code.
func (c *chain) deliver(key realmtest.Key, msg realm.Msg) uint32 {
	c.t.Helper()
	var code uint32
	c.runner.InBlock(func(b *realmtest.Block) {
		code = b.Deliver(c.tx(key, msg)).Code
	})
	return code
}

func (c *chain) mustDeliver(key realmtest.Key, msg realm.Msg) {
	c.t.Helper()
	if code := c.deliver(key, msg); code != 0 {
		c.t.Fatalf("%s failed with code %d", msg.Path(), code)
	}
}

func (c *chain) balance(ticker string, holder common.Address) *big.Int {
	c.t.Helper()
	var b token.Balance
	if err := c.runner.Query("/tokens/balances", token.BalanceKey(ticker, holder), &b); err != nil {
		return new(big.Int)
	}
	return b.Amount
}

func (c *chain) signingContext() realm.Context {
	return realm.WithNetworkID(context.Background(), big.NewInt(realmd.DevNetworkID))
}

func code(err *errors.Error) uint32 {
	return err.ABCICode()
}

func TestWalletGovernsCollection(t *testing.T) {
	owners := make([]realmtest.Key, 5)
	addrs := make([]common.Address, 5)
	for i := range owners {
		owners[i] = realmtest.NewKey()
		addrs[i] = owners[i].Address
	}
	wallet := multisig.WalletAddress(1)
	c := newChain(t, func(g *realmd.GenesisState) {
		g.Wallets = []multisig.GenesisWallet{{Owners: addrs, Required: 4}}
		g.NFTs[0].Admin = wallet
	})

	// the admin itself lost the right to change the collection
	assert.Equal(t, code(errors.ErrUnauthorized), c.deliver(c.admin, &nft.SetBaseURIMsg{
		Collection: realmd.HeroCollection,
		BaseURI:    "https://evil.example/",
	}))

	payload, err := realm.EncodeMsg(&nft.SetBaseURIMsg{
		Collection: realmd.HeroCollection,
		BaseURI:    "ipfs://heroes/",
	})
	require.NoError(t, err)
	c.mustDeliver(owners[0], &multisig.SubmitTransactionMsg{
		WalletID: 1,
		Target:   nft.ContractAddress(realmd.HeroCollection),
		Payload:  payload,
	})
	c.mustDeliver(owners[1], &multisig.ConfirmTransactionMsg{WalletID: 1, TxID: 0})
	c.mustDeliver(owners[2], &multisig.ConfirmTransactionMsg{WalletID: 1, TxID: 0})

	var col nft.Collection
	require.NoError(t, c.runner.Query("/nft/collections", []byte(realmd.HeroCollection), &col))
	assert.Equal(t, "https://api.herorealm.io/heroes/", col.BaseURI)

	// a stranger cannot push the transaction over the threshold
	stranger := realmtest.NewKey()
	assert.Equal(t, code(errors.ErrUnauthorized), c.deliver(stranger, &multisig.ConfirmTransactionMsg{WalletID: 1, TxID: 0}))

	c.mustDeliver(owners[3], &multisig.ConfirmTransactionMsg{WalletID: 1, TxID: 0})
	require.NoError(t, c.runner.Query("/nft/collections", []byte(realmd.HeroCollection), &col))
	assert.Equal(t, "ipfs://heroes/", col.BaseURI)

	var tx multisig.Transaction
	require.NoError(t, c.runner.Query("/multisig/transactions", multisig.TxKey(1, 0), &tx))
	assert.True(t, tx.Executed)
	assert.Len(t, tx.Confirmations, 4)

	// executed transactions cannot be confirmed again
	assert.NotEqual(t, uint32(0), c.deliver(owners[4], &multisig.ConfirmTransactionMsg{WalletID: 1, TxID: 0}))
}

func TestVaultClaims(t *testing.T) {
	c := newChain(t, nil)
	player := realmtest.NewKey()

	var conf vault.Config
	require.NoError(t, c.runner.Query("/vault/configs", []byte(realmd.CurrencyTicker), &conf))
	domain, err := vault.SigningDomain(c.signingContext(), &conf)
	require.NoError(t, err)
	authorize := func(amount int64, claimID uint64) []byte {
		sig, err := eip712.Sign(domain, vault.TransferSchema, vault.TransferMessage(player.Address, big.NewInt(amount), claimID), c.admin.Private)
		require.NoError(t, err)
		return sig
	}
	claim := func(amount int64, sig []byte) uint32 {
		return c.deliver(player, &vault.TransferFromVaultMsg{
			Token:     realmd.CurrencyTicker,
			Signature: sig,
			Amount:    big.NewInt(amount),
		})
	}

	first := authorize(100, 0)
	require.Equal(t, uint32(0), claim(100, first))
	assert.Equal(t, int64(100), c.balance(realmd.CurrencyTicker, player.Address).Int64())

	assert.Equal(t, code(errors.ErrReplay), claim(100, first))
	// the amount is part of the authorization
	assert.Equal(t, code(errors.ErrVerification), claim(500, authorize(100, 1)))
	// claims are redeemed in order
	assert.Equal(t, code(errors.ErrReplay), claim(50, authorize(50, 2)))
	assert.Equal(t, code(errors.ErrVerification), claim(50, authorize(50, 7)))

	require.Equal(t, uint32(0), claim(50, authorize(50, 1)))
	assert.Equal(t, int64(150), c.balance(realmd.CurrencyTicker, player.Address).Int64())

	var next vault.Claim
	require.NoError(t, c.runner.Query("/vault/claims", vault.ClaimKey(realmd.CurrencyTicker, player.Address), &next))
	assert.Equal(t, uint64(2), next.Next)
}

func TestSignedMintAndMarket(t *testing.T) {
	c := newChain(t, nil)
	minter := realmtest.NewKey()
	buyer := realmtest.NewKey()
	c.mustDeliver(c.admin, &token.TransferMsg{Ticker: realmd.StableTicker, To: minter.Address, Amount: big.NewInt(1000)})
	c.mustDeliver(c.admin, &token.TransferMsg{Ticker: realmd.StableTicker, To: buyer.Address, Amount: big.NewInt(1000)})
	vaultStart := c.balance(realmd.StableTicker, c.admin.Address)

	var col nft.Collection
	require.NoError(t, c.runner.Query("/nft/collections", []byte(realmd.HeroCollection), &col))
	domain, err := nft.SigningDomain(c.signingContext(), &col)
	require.NoError(t, err)
	ids := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}
	prices := []*big.Int{big.NewInt(10), big.NewInt(20), big.NewInt(30)}
	sig, err := eip712.Sign(domain, nft.MintSchema, nft.MintMessage(minter.Address, ids, prices), c.admin.Private)
	require.NoError(t, err)

	// an authorization cannot be used for a part of the batch
	assert.Equal(t, code(errors.ErrVerification), c.deliver(minter, &nft.SafeMintTokensMsg{
		Collection:  realmd.HeroCollection,
		Signature:   sig,
		TokenIDs:    ids[:2],
		TokenPrices: prices[:2],
	}))

	mint := &nft.SafeMintTokensMsg{
		Collection:  realmd.HeroCollection,
		Signature:   sig,
		TokenIDs:    ids,
		TokenPrices: prices,
	}
	// payment needs an allowance for the collection
	assert.Equal(t, code(errors.ErrInsufficientAmount), c.deliver(minter, mint))
	c.mustDeliver(minter, &token.ApproveMsg{
		Ticker:  realmd.StableTicker,
		Spender: nft.ContractAddress(realmd.HeroCollection),
		Amount:  big.NewInt(60),
	})
	c.mustDeliver(minter, mint)
	assert.Equal(t, int64(940), c.balance(realmd.StableTicker, minter.Address).Int64())
	assert.Equal(t, new(big.Int).Add(vaultStart, big.NewInt(60)), c.balance(realmd.StableTicker, c.admin.Address))
	assert.Equal(t, code(errors.ErrReplay), c.deliver(minter, mint))

	var hero nft.Token
	require.NoError(t, c.runner.Query("/nft/tokens", nft.TokenKey(realmd.HeroCollection, ids[1]), &hero))
	assert.Equal(t, minter.Address, hero.Owner)

	// list hero #2 and sell it to the buyer
	c.mustDeliver(minter, &nft.ApproveMsg{Collection: realmd.HeroCollection, Approved: market.Address(), ID: ids[1]})
	c.mustDeliver(minter, &market.ListMsg{Collection: realmd.HeroCollection, ID: ids[1], Price: big.NewInt(250)})
	c.mustDeliver(buyer, &token.ApproveMsg{Ticker: realmd.StableTicker, Spender: market.Address(), Amount: big.NewInt(250)})
	assert.Equal(t, code(errors.ErrAmount), c.deliver(buyer, &market.BuyMsg{Collection: realmd.HeroCollection, ID: ids[1], Amount: big.NewInt(200)}))
	c.mustDeliver(buyer, &market.BuyMsg{Collection: realmd.HeroCollection, ID: ids[1], Amount: big.NewInt(250)})

	require.NoError(t, c.runner.Query("/nft/tokens", nft.TokenKey(realmd.HeroCollection, ids[1]), &hero))
	assert.Equal(t, buyer.Address, hero.Owner)
	assert.Equal(t, int64(750), c.balance(realmd.StableTicker, buyer.Address).Int64())

	var proceeds market.Proceeds
	require.NoError(t, c.runner.Query("/market/proceeds", minter.Address.Bytes(), &proceeds))
	assert.Equal(t, int64(250), proceeds.Amount.Int64())

	c.mustDeliver(minter, &market.WithdrawProceedsMsg{})
	assert.Equal(t, int64(1190), c.balance(realmd.StableTicker, minter.Address).Int64())
	assert.Error(t, c.runner.Query("/market/listings", nft.TokenKey(realmd.HeroCollection, ids[1]), &market.Listing{}))
}

func TestUnsignedTransactionsAreRejected(t *testing.T) {
	c := newChain(t, nil)
	tx, err := app.NewTx(&token.TransferMsg{Ticker: realmd.StableTicker, To: realmtest.NewAddress(), Amount: big.NewInt(1)})
	require.NoError(t, err)

	res := c.runner.CheckTx(tx)
	assert.Equal(t, code(errors.ErrUnauthorized), res.Code)

	c.runner.InBlock(func(b *realmtest.Block) {
		res := b.Deliver(tx)
		assert.Equal(t, code(errors.ErrUnauthorized), res.Code)
	})
}
