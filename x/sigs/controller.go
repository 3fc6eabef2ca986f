package sigs

import (
	"crypto/ecdsa"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/crypto/eip712"
	"github.com/herorealm/realm/errors"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// VerifyTxSignatures checks all the signatures on the tx and returns the
// signer addresses in signature order. Every signature bumps its signer's
// sequence.
func VerifyTxSignatures(db realm.KVStore, tx SignedTx, chainID string) ([]common.Address, error) {
	bz, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	sigs := tx.GetSignatures()

	signers := make([]common.Address, 0, len(sigs))
	for _, sig := range sigs {
		signer, err := VerifySignature(db, sig, bz, chainID)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

// VerifySignature recovers the signer of one signature, checks its
// sequence and updates the state in the store.
func VerifySignature(db realm.KVStore, sig *StdSignature, signBytes []byte, chainID string) (common.Address, error) {
	if err := sig.Validate(); err != nil {
		return common.Address{}, err
	}
	digest, err := BuildSignDigest(signBytes, chainID, sig.Sequence)
	if err != nil {
		return common.Address{}, err
	}
	signer, err := eip712.Recover(digest, sig.Signature)
	if err != nil {
		return common.Address{}, errors.Wrap(errors.ErrUnauthorized, err.Error())
	}

	bucket := NewBucket()
	user, err := bucket.GetOrCreate(db, signer)
	if err != nil {
		return common.Address{}, err
	}
	if err := user.CheckAndIncrementSequence(sig.Sequence); err != nil {
		return common.Address{}, err
	}
	if err := bucket.Put(db, signer.Bytes(), user); err != nil {
		return common.Address{}, err
	}
	return signer, nil
}

/*
BuildSignDigest combines all info on the actual tx before signing

We use the following format:

version | len(chainID) | chainID      | nonce              | signBytes
4bytes  | uint8        | ascii string | uint64 (bigendian) | serialized transaction

This is then hashed with keccak256 before fed into the secp256k1 signing
and recovery step.
*/
func BuildSignDigest(signBytes []byte, chainID string, seq uint64) ([]byte, error) {
	if !realm.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}

	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, seq)

	output := make([]byte, 0, 4+1+len(chainID)+8+len(signBytes))
	output = append(output, SignCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, []byte(chainID)...)
	output = append(output, nonce...)
	output = append(output, signBytes...)
	return crypto.Keccak256(output), nil
}

// SignTx signs the transaction with the given key for the given chain and
// sequence.
func SignTx(key *ecdsa.PrivateKey, tx SignedTx, chainID string, seq uint64) (*StdSignature, error) {
	signBytes, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	digest, err := BuildSignDigest(signBytes, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return &StdSignature{Sequence: seq, Signature: sig}, nil
}
