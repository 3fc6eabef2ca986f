package eip712

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/herorealm/realm/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	transferSchema = MustParseSchema("VaultTransfer(address recipient,uint256 amount,uint256 claimId)")
	mintSchema     = MustParseSchema("SafeMintTokens(address minter,uint256[] tokenIds,uint256[] tokenPrices)")
)

func testDomain() Domain {
	return Domain{
		Name:              "Hero Gold",
		Version:           "1",
		ChainID:           big.NewInt(43114),
		VerifyingContract: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
	}
}

func word(n *big.Int) []byte {
	return math.U256Bytes(new(big.Int).Set(n))
}

// expectedTransferDigest encodes the message by hand, following EIP-712.
func expectedTransferDigest(d Domain, recipient common.Address, amount, claim *big.Int) []byte {
	domainTypeHash := crypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	separator := crypto.Keccak256(
		domainTypeHash,
		crypto.Keccak256([]byte(d.Name)),
		crypto.Keccak256([]byte(d.Version)),
		word(d.ChainID),
		common.LeftPadBytes(d.VerifyingContract.Bytes(), 32),
	)
	structHash := crypto.Keccak256(
		crypto.Keccak256([]byte(transferSchema.String())),
		common.LeftPadBytes(recipient.Bytes(), 32),
		word(amount),
		word(claim),
	)
	return crypto.Keccak256([]byte{0x19, 0x01}, separator, structHash)
}

func TestHashMatchesEncoding(t *testing.T) {
	d := testDomain()
	recipient := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	amount := big.NewInt(1000)
	claim := big.NewInt(0)

	got, err := Hash(d, transferSchema, Message{
		"recipient": recipient,
		"amount":    amount,
		"claimId":   uint64(0),
	})
	require.NoError(t, err)
	assert.Equal(t, expectedTransferDigest(d, recipient, amount, claim), got)
}

func TestHashArrays(t *testing.T) {
	d := testDomain()
	minter := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	ids := []*big.Int{big.NewInt(7), big.NewInt(9)}
	prices := []*big.Int{big.NewInt(100), big.NewInt(250)}

	got, err := Hash(d, mintSchema, Message{
		"minter":      minter,
		"tokenIds":    ids,
		"tokenPrices": prices,
	})
	require.NoError(t, err)

	domainTypeHash := crypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	separator := crypto.Keccak256(
		domainTypeHash,
		crypto.Keccak256([]byte(d.Name)),
		crypto.Keccak256([]byte(d.Version)),
		word(d.ChainID),
		common.LeftPadBytes(d.VerifyingContract.Bytes(), 32),
	)
	structHash := crypto.Keccak256(
		crypto.Keccak256([]byte(mintSchema.String())),
		common.LeftPadBytes(minter.Bytes(), 32),
		crypto.Keccak256(word(ids[0]), word(ids[1])),
		crypto.Keccak256(word(prices[0]), word(prices[1])),
	)
	want := crypto.Keccak256([]byte{0x19, 0x01}, separator, structHash)
	assert.Equal(t, want, got)
}

func TestSignRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	recipient := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	msg := func(amount int64, claim uint64) Message {
		return Message{"recipient": recipient, "amount": big.NewInt(amount), "claimId": claim}
	}

	sig, err := Sign(testDomain(), transferSchema, msg(500, 3), key)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)

	otherDomain := testDomain()
	otherDomain.ChainID = big.NewInt(1)
	otherContract := testDomain()
	otherContract.VerifyingContract = common.HexToAddress("0x01")

	cases := map[string]struct {
		domain  Domain
		msg     Message
		sig     []byte
		wantErr *errors.Error
	}{
		"valid": {
			domain: testDomain(),
			msg:    msg(500, 3),
			sig:    sig,
		},
		"altered amount": {
			domain:  testDomain(),
			msg:     msg(501, 3),
			sig:     sig,
			wantErr: errors.ErrVerification,
		},
		"altered claim id": {
			domain:  testDomain(),
			msg:     msg(500, 4),
			sig:     sig,
			wantErr: errors.ErrVerification,
		},
		"other chain": {
			domain:  otherDomain,
			msg:     msg(500, 3),
			sig:     sig,
			wantErr: errors.ErrVerification,
		},
		"other contract": {
			domain:  otherContract,
			msg:     msg(500, 3),
			sig:     sig,
			wantErr: errors.ErrVerification,
		},
		"short signature": {
			domain:  testDomain(),
			msg:     msg(500, 3),
			sig:     sig[:64],
			wantErr: errors.ErrVerification,
		},
		"invalid v": {
			domain:  testDomain(),
			msg:     msg(500, 3),
			sig:     append(append([]byte(nil), sig[:64]...), 5),
			wantErr: errors.ErrVerification,
		},
		"missing field": {
			domain:  testDomain(),
			msg:     Message{"recipient": recipient, "amount": big.NewInt(500)},
			sig:     sig,
			wantErr: errors.ErrInput,
		},
		"wrong value type": {
			domain:  testDomain(),
			msg:     Message{"recipient": "0x01", "amount": big.NewInt(500), "claimId": uint64(3)},
			sig:     sig,
			wantErr: errors.ErrType,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := Verify(tc.domain, transferSchema, tc.msg, tc.sig, signer)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestRecoverAcceptsRawV(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	digest := crypto.Keccak256([]byte("digest"))

	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)

	got, err := Recover(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), got)
}

func TestRecoverRejectsHighS(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	digest := crypto.Keccak256([]byte("digest"))

	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)

	// (r, n-s, v^1) recovers the same key but must not be accepted
	s := new(big.Int).SetBytes(sig[32:64])
	malleated := append([]byte(nil), sig[:32]...)
	malleated = append(malleated, common.LeftPadBytes(new(big.Int).Sub(crypto.S256().Params().N, s).Bytes(), 32)...)
	malleated = append(malleated, sig[64]^1)

	_, err = Recover(digest, malleated)
	assert.True(t, errors.ErrVerification.Is(err))
}

func TestVerifyRequiresAuthority(t *testing.T) {
	err := Verify(testDomain(), transferSchema, Message{}, nil, common.Address{})
	assert.True(t, errors.ErrVerification.Is(err))
}

func TestDomainValidate(t *testing.T) {
	d := testDomain()
	require.NoError(t, d.Validate())

	d.Name = ""
	assert.True(t, errors.ErrEmpty.Is(d.Validate()))

	d = testDomain()
	d.ChainID = nil
	assert.True(t, errors.ErrInput.Is(d.Validate()))

	d = testDomain()
	d.VerifyingContract = common.Address{}
	assert.True(t, errors.ErrEmpty.Is(d.Validate()))
}

func TestParseSchema(t *testing.T) {
	cases := map[string]struct {
		decl    string
		wantErr *errors.Error
	}{
		"transfer":        {decl: "VaultTransfer(address recipient,uint256 amount,uint256 claimId)"},
		"arrays":          {decl: "SafeMintTokens(address minter,uint256[] tokenIds,uint256[] tokenPrices)"},
		"no parens":       {decl: "VaultTransfer", wantErr: errors.ErrInput},
		"no fields":       {decl: "Empty()", wantErr: errors.ErrInput},
		"unsupported":     {decl: "X(int8 a)", wantErr: errors.ErrType},
		"duplicate field": {decl: "X(uint256 a,address a)", wantErr: errors.ErrDuplicate},
		"bad field":       {decl: "X(uint256)", wantErr: errors.ErrInput},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			s, err := ParseSchema(tc.decl)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if err == nil && !bytes.Equal([]byte(tc.decl), []byte(s.String())) {
				t.Fatalf("want %q, got %q", tc.decl, s.String())
			}
		})
	}
}
