package vault

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/crypto/eip712"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/realmtest"
	"github.com/herorealm/realm/store"
	"github.com/herorealm/realm/x/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func ethers(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), ether)
}

type fixture struct {
	db        realm.CacheableKVStore
	routes    realmtest.Registry
	auth      *realmtest.CtxAuth
	conf      Config
	authority realmtest.Key
	admin     common.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:        store.MemStore(),
		routes:    realmtest.Registry{},
		auth:      &realmtest.CtxAuth{Key: "vault"},
		authority: realmtest.NewKey(),
		admin:     realmtest.NewAddress(),
	}
	f.conf = Config{
		Token:         "GOLD",
		Admin:         f.admin,
		Vault:         realmtest.NewAddress(),
		Signer:        f.authority.Address,
		DomainName:    "Hero Gold",
		DomainVersion: "1",
	}

	tok := token.Token{Ticker: "GOLD", Name: "Hero Gold", Decimals: 18, Admin: f.admin, Supply: new(big.Int)}
	require.NoError(t, token.NewTokenBucket().Put(f.db, []byte("GOLD"), &tok))
	require.NoError(t, token.NewController().Mint(f.db, "GOLD", f.conf.Vault, ethers(10)))
	require.NoError(t, NewConfigBucket().Put(f.db, []byte("GOLD"), &f.conf))

	RegisterRoutes(f.routes, f.auth, token.NewController())
	return f
}

// sign returns an authorization of the configured authority.
func (f *fixture) sign(t *testing.T, recipient common.Address, amount *big.Int, claimID uint64) []byte {
	t.Helper()
	domain, err := SigningDomain(realmtest.Ctx(), &f.conf)
	require.NoError(t, err)
	sig, err := eip712.Sign(domain, TransferSchema, TransferMessage(recipient, amount, claimID), f.authority.Private)
	require.NoError(t, err)
	return sig
}

func (f *fixture) deliver(signer common.Address, msg realm.Msg) error {
	ctx := f.auth.SetAddresses(realmtest.Ctx(), signer)
	cache := f.db.CacheWrap()
	if _, err := f.routes.Deliver(ctx, cache, &realmtest.Tx{Msg: msg}); err != nil {
		cache.Discard()
		return err
	}
	return cache.Write()
}

func (f *fixture) balance(t *testing.T, addr common.Address) *big.Int {
	t.Helper()
	b, err := token.NewController().Balance(f.db, "GOLD", addr)
	require.NoError(t, err)
	return b
}

func (f *fixture) next(t *testing.T, addr common.Address) uint64 {
	t.Helper()
	n, err := NewClaimBucket().Next(f.db, "GOLD", addr)
	require.NoError(t, err)
	return n
}

func TestTransferAndReplay(t *testing.T) {
	f := newFixture(t)
	recipient := realmtest.NewAddress()

	sig := f.sign(t, recipient, ethers(1), 0)
	msg := &TransferFromVaultMsg{Token: "GOLD", Signature: sig, Amount: ethers(1)}
	require.NoError(t, f.deliver(recipient, msg))

	assert.Equal(t, ethers(9).String(), f.balance(t, f.conf.Vault).String())
	assert.Equal(t, ethers(1).String(), f.balance(t, recipient).String())
	assert.Equal(t, uint64(1), f.next(t, recipient))

	err := f.deliver(recipient, msg)
	assert.True(t, errors.ErrReplay.Is(err), "%+v", err)
	assert.Equal(t, ethers(9).String(), f.balance(t, f.conf.Vault).String())
	assert.Equal(t, ethers(1).String(), f.balance(t, recipient).String())
	assert.Equal(t, uint64(1), f.next(t, recipient))
}

func TestClaimsAreSequential(t *testing.T) {
	f := newFixture(t)
	recipient := realmtest.NewAddress()

	for id := uint64(0); id < 3; id++ {
		msg := &TransferFromVaultMsg{Token: "GOLD", Signature: f.sign(t, recipient, ethers(1), id), Amount: ethers(1)}
		require.NoError(t, f.deliver(recipient, msg), "claim %d", id)
		assert.Equal(t, id+1, f.next(t, recipient))
	}

	// Claim 4 skips claim 3.
	skip := &TransferFromVaultMsg{Token: "GOLD", Signature: f.sign(t, recipient, ethers(1), 4), Amount: ethers(1)}
	err := f.deliver(recipient, skip)
	assert.True(t, errors.ErrReplay.Is(err), "%+v", err)

	far := &TransferFromVaultMsg{Token: "GOLD", Signature: f.sign(t, recipient, ethers(1), 9), Amount: ethers(1)}
	err = f.deliver(recipient, far)
	assert.True(t, errors.ErrVerification.Is(err), "%+v", err)

	assert.Equal(t, uint64(3), f.next(t, recipient))
	assert.Equal(t, ethers(3).String(), f.balance(t, recipient).String())

	// Counters are per recipient.
	other := realmtest.NewAddress()
	assert.Equal(t, uint64(0), f.next(t, other))
}

func TestTransferRejected(t *testing.T) {
	recipient := realmtest.NewAddress()

	cases := map[string]struct {
		signer  common.Address
		msg     func(f *fixture) *TransferFromVaultMsg
		wantErr *errors.Error
	}{
		"amount differs from the signed one": {
			signer: recipient,
			msg: func(f *fixture) *TransferFromVaultMsg {
				return &TransferFromVaultMsg{Token: "GOLD", Signature: f.sign(t, recipient, ethers(1), 0), Amount: ethers(2)}
			},
			wantErr: errors.ErrVerification,
		},
		"signature of somebody else": {
			signer: realmtest.NewAddress(),
			msg: func(f *fixture) *TransferFromVaultMsg {
				return &TransferFromVaultMsg{Token: "GOLD", Signature: f.sign(t, recipient, ethers(1), 0), Amount: ethers(1)}
			},
			wantErr: errors.ErrVerification,
		},
		"signed by an unknown key": {
			signer: recipient,
			msg: func(f *fixture) *TransferFromVaultMsg {
				domain, _ := SigningDomain(realmtest.Ctx(), &f.conf)
				sig, _ := eip712.Sign(domain, TransferSchema, TransferMessage(recipient, ethers(1), 0), realmtest.NewKey().Private)
				return &TransferFromVaultMsg{Token: "GOLD", Signature: sig, Amount: ethers(1)}
			},
			wantErr: errors.ErrVerification,
		},
		"tampered signature": {
			signer: recipient,
			msg: func(f *fixture) *TransferFromVaultMsg {
				sig := f.sign(t, recipient, ethers(1), 0)
				sig[10] ^= 0x01
				return &TransferFromVaultMsg{Token: "GOLD", Signature: sig, Amount: ethers(1)}
			},
			wantErr: errors.ErrVerification,
		},
		"vault without funds": {
			signer: recipient,
			msg: func(f *fixture) *TransferFromVaultMsg {
				return &TransferFromVaultMsg{Token: "GOLD", Signature: f.sign(t, recipient, ethers(11), 0), Amount: ethers(11)}
			},
			wantErr: errors.ErrInsufficientAmount,
		},
		"unknown token": {
			signer: recipient,
			msg: func(f *fixture) *TransferFromVaultMsg {
				return &TransferFromVaultMsg{Token: "SILVER", Signature: f.sign(t, recipient, ethers(1), 0), Amount: ethers(1)}
			},
			wantErr: errors.ErrNotFound,
		},
		"no signer": {
			msg: func(f *fixture) *TransferFromVaultMsg {
				return &TransferFromVaultMsg{Token: "GOLD", Signature: f.sign(t, recipient, ethers(1), 0), Amount: ethers(1)}
			},
			wantErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			var signers []common.Address
			if tc.signer != (common.Address{}) {
				signers = append(signers, tc.signer)
			}
			ctx := f.auth.SetAddresses(realmtest.Ctx(), signers...)
			cache := f.db.CacheWrap()
			_, err := f.routes.Deliver(ctx, cache, &realmtest.Tx{Msg: tc.msg(f)})
			cache.Discard()
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			assert.Equal(t, ethers(10).String(), f.balance(t, f.conf.Vault).String())
			assert.Equal(t, uint64(0), f.next(t, recipient))
		})
	}
}

func TestDomainBinding(t *testing.T) {
	recipient := realmtest.NewAddress()

	cases := map[string]func(d *eip712.Domain){
		"name":               func(d *eip712.Domain) { d.Name = "Other" },
		"version":            func(d *eip712.Domain) { d.Version = "2" },
		"network id":         func(d *eip712.Domain) { d.ChainID = big.NewInt(1) },
		"verifying contract": func(d *eip712.Domain) { d.VerifyingContract = token.ContractAddress("USDH") },
	}

	for testName, alter := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			domain, err := SigningDomain(realmtest.Ctx(), &f.conf)
			require.NoError(t, err)
			alter(&domain)
			sig, err := eip712.Sign(domain, TransferSchema, TransferMessage(recipient, ethers(1), 0), f.authority.Private)
			require.NoError(t, err)

			err = f.deliver(recipient, &TransferFromVaultMsg{Token: "GOLD", Signature: sig, Amount: ethers(1)})
			assert.True(t, errors.ErrVerification.Is(err), "%+v", err)
		})
	}
}

func TestGovernance(t *testing.T) {
	f := newFixture(t)
	recipient := realmtest.NewAddress()
	newAuthority := realmtest.NewKey()

	// Only the admin may change the configuration.
	err := f.deliver(recipient, &SetVaultSignerMsg{Token: "GOLD", Signer: recipient})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	oldSig := f.sign(t, recipient, ethers(1), 0)
	require.NoError(t, f.deliver(f.admin, &SetVaultSignerMsg{Token: "GOLD", Signer: newAuthority.Address}))

	// Authorizations of the previous signer are void.
	err = f.deliver(recipient, &TransferFromVaultMsg{Token: "GOLD", Signature: oldSig, Amount: ethers(1)})
	assert.True(t, errors.ErrVerification.Is(err))

	f.conf.Signer = newAuthority.Address
	f.authority = newAuthority
	require.NoError(t, f.deliver(recipient, &TransferFromVaultMsg{Token: "GOLD", Signature: f.sign(t, recipient, ethers(1), 0), Amount: ethers(1)}))

	// Changing the domain invalidates the next authorization.
	next := f.sign(t, recipient, ethers(1), 1)
	require.NoError(t, f.deliver(f.admin, &SetVaultDomainMsg{Token: "GOLD", Name: "Hero Gold", Version: "2"}))
	err = f.deliver(recipient, &TransferFromVaultMsg{Token: "GOLD", Signature: next, Amount: ethers(1)})
	assert.True(t, errors.ErrVerification.Is(err))

	newVault := realmtest.NewAddress()
	require.NoError(t, f.deliver(f.admin, &SetVaultMsg{Token: "GOLD", Vault: newVault}))
	var conf Config
	require.NoError(t, NewConfigBucket().One(f.db, []byte("GOLD"), &conf))
	assert.Equal(t, newVault, conf.Vault)
	assert.Equal(t, "2", conf.DomainVersion)
}

func TestClaimQuery(t *testing.T) {
	f := newFixture(t)
	recipient := realmtest.NewAddress()
	qr := realm.NewQueryRouter()
	RegisterQuery(qr)

	h := qr.Handler("/vault/claims")
	require.NotNil(t, h)
	res, err := h.Query(f.db, ClaimKey("GOLD", recipient))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.(*Claim).Next)

	require.NoError(t, f.deliver(recipient, &TransferFromVaultMsg{Token: "GOLD", Signature: f.sign(t, recipient, ethers(1), 0), Amount: ethers(1)}))
	res, err = h.Query(f.db, ClaimKey("GOLD", recipient))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.(*Claim).Next)
}
