package nft

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/realmtest"
	"github.com/herorealm/realm/store"
	"github.com/herorealm/realm/x/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers(t *testing.T) {
	admin := realmtest.NewAddress()
	minter := realmtest.NewAddress()
	holder := realmtest.NewAddress()
	buyer := realmtest.NewAddress()

	cases := map[string]struct {
		signer  common.Address
		msg     realm.Msg
		wantErr *errors.Error
		after   func(t *testing.T, db realm.KVStore)
	}{
		"controller mints": {
			signer: minter,
			msg:    &MintMsg{Collection: "heroes", To: buyer, ID: big.NewInt(2)},
			after: func(t *testing.T, db realm.KVStore) {
				owner, err := NewController().OwnerOf(db, "heroes", big.NewInt(2))
				require.NoError(t, err)
				assert.Equal(t, buyer, owner)
			},
		},
		"admin is not a controller": {
			signer:  admin,
			msg:     &MintMsg{Collection: "heroes", To: buyer, ID: big.NewInt(2)},
			wantErr: errors.ErrUnauthorized,
		},
		"holder transfers": {
			signer: holder,
			msg:    &TransferMsg{Collection: "heroes", From: holder, To: buyer, ID: big.NewInt(1)},
			after: func(t *testing.T, db realm.KVStore) {
				owner, err := NewController().OwnerOf(db, "heroes", big.NewInt(1))
				require.NoError(t, err)
				assert.Equal(t, buyer, owner)
			},
		},
		"stranger cannot transfer": {
			signer:  buyer,
			msg:     &TransferMsg{Collection: "heroes", From: holder, To: buyer, ID: big.NewInt(1)},
			wantErr: errors.ErrUnauthorized,
		},
		"holder approves": {
			signer: holder,
			msg:    &ApproveMsg{Collection: "heroes", Approved: buyer, ID: big.NewInt(1)},
			after: func(t *testing.T, db realm.KVStore) {
				ok, err := NewController().CanTransfer(db, "heroes", buyer, big.NewInt(1))
				require.NoError(t, err)
				assert.True(t, ok)
			},
		},
		"holder sets an operator": {
			signer: holder,
			msg:    &SetApprovalForAllMsg{Collection: "heroes", Operator: buyer, Approved: true},
			after: func(t *testing.T, db realm.KVStore) {
				ok, err := NewController().IsOperator(db, "heroes", holder, buyer)
				require.NoError(t, err)
				assert.True(t, ok)
			},
		},
		"admin sets the base uri": {
			signer: admin,
			msg:    &SetBaseURIMsg{Collection: "heroes", BaseURI: "https://foo/"},
			after: func(t *testing.T, db realm.KVStore) {
				uri, err := NewController().TokenURI(db, "heroes", big.NewInt(1))
				require.NoError(t, err)
				assert.Equal(t, "https://foo/1", uri)
			},
		},
		"holder cannot set the base uri": {
			signer:  holder,
			msg:     &SetBaseURIMsg{Collection: "heroes", BaseURI: "https://foo/"},
			wantErr: errors.ErrUnauthorized,
		},
		"admin pauses": {
			signer: admin,
			msg:    &PauseMsg{Collection: "heroes", Paused: true},
			after: func(t *testing.T, db realm.KVStore) {
				err := NewController().Transfer(db, "heroes", holder, holder, buyer, big.NewInt(1))
				assert.True(t, errors.ErrPaused.Is(err))
			},
		},
		"admin adds a controller": {
			signer: admin,
			msg:    &AddControllerMsg{Collection: "heroes", Controller: buyer},
			after: func(t *testing.T, db realm.KVStore) {
				col, err := NewController().Collection(db, "heroes")
				require.NoError(t, err)
				assert.Equal(t, []common.Address{minter, buyer}, col.Controllers)
			},
		},
		"admin removes a controller": {
			signer: admin,
			msg:    &RemoveControllerMsg{Collection: "heroes", Controller: minter},
			after: func(t *testing.T, db realm.KVStore) {
				col, err := NewController().Collection(db, "heroes")
				require.NoError(t, err)
				assert.Empty(t, col.Controllers)
			},
		},
		"admin changes the mint signer": {
			signer: admin,
			msg:    &SetMintSignerMsg{Collection: "heroes", Signer: buyer},
			after: func(t *testing.T, db realm.KVStore) {
				col, err := NewController().Collection(db, "heroes")
				require.NoError(t, err)
				assert.Equal(t, buyer, col.MintSigner)
			},
		},
		"unknown collection": {
			signer:  admin,
			msg:     &SetVaultMsg{Collection: "villains", Vault: buyer},
			wantErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			createCollection(t, db, Collection{Name: "heroes", Admin: admin, Controllers: []common.Address{minter}})
			require.NoError(t, NewController().Mint(db, "heroes", holder, big.NewInt(1)))

			rt := realmtest.Registry{}
			RegisterRoutes(rt, &realmtest.Auth{Signer: tc.signer}, NewController(), token.NewController())

			tx := &realmtest.Tx{Msg: tc.msg}
			cache := db.CacheWrap()
			if _, err := rt.Check(realmtest.Ctx(), cache, tx); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected check error: %+v", err)
			}
			cache.Discard()

			cache = db.CacheWrap()
			_, err := rt.Deliver(realmtest.Ctx(), cache, tx)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}
			if err != nil {
				cache.Discard()
				return
			}
			require.NoError(t, cache.Write())
			if tc.after != nil {
				tc.after(t, db)
			}
		})
	}
}

func TestTokenURIQuery(t *testing.T) {
	db := store.MemStore()
	createCollection(t, db, Collection{Name: "heroes", Admin: realmtest.NewAddress(), BaseURI: "ipfs://heroes/"})
	require.NoError(t, NewController().Mint(db, "heroes", realmtest.NewAddress(), big.NewInt(1234)))

	qr := realm.NewQueryRouter()
	RegisterQuery(qr)

	res, err := qr.Handler("/nft/token_uri").Query(db, TokenKey("heroes", big.NewInt(1234)))
	require.NoError(t, err)
	assert.Equal(t, "ipfs://heroes/1234", res)

	_, err = qr.Handler("/nft/token_uri").Query(db, TokenKey("heroes", big.NewInt(1)))
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestGenesis(t *testing.T) {
	admin := realmtest.NewAddress()
	genesis := `{"nft": [
		{"name": "heroes", "symbol": "HERO", "kind": "hero", "admin": "` + admin.Hex() + `", "base_uri": "https://heroes/"},
		{"name": "architects", "symbol": "ARCH", "kind": "architect", "admin": "` + admin.Hex() + `"}
	]}`
	var opts realm.Options
	require.NoError(t, json.Unmarshal([]byte(genesis), &opts))

	db := store.MemStore()
	require.NoError(t, (&Initializer{}).FromGenesis(opts, db))

	col, err := NewController().Collection(db, "architects")
	require.NoError(t, err)
	assert.Equal(t, KindArchitect, col.Kind)
	assert.Equal(t, admin, col.Admin)

	err = (&Initializer{}).FromGenesis(opts, db)
	assert.True(t, errors.ErrDuplicate.Is(err))

	bad := realm.Options{"nft": json.RawMessage(`[{"name": "gear", "symbol": "G", "kind": "weapon", "admin": "` + admin.Hex() + `"}]`)}
	err = (&Initializer{}).FromGenesis(bad, store.MemStore())
	assert.True(t, errors.ErrInput.Is(err))
}
