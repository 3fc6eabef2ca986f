package realmtest

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Key is a secp256k1 key pair together with its address.
type Key struct {
	Private *ecdsa.PrivateKey
	Address common.Address
}

// NewKey generates a random key. It panics if the system source of
// randomness fails.
func NewKey() Key {
	priv, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return Key{Private: priv, Address: crypto.PubkeyToAddress(priv.PublicKey)}
}

// NewAddress returns the address of a fresh random key.
func NewAddress() common.Address {
	return NewKey().Address
}
