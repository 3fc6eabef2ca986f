package app

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x/sigs"
)

// Tx is the transaction format accepted by the chain: one encoded message
// and the signatures of everyone authorizing it.
type Tx struct {
	Msg        []byte
	Signatures []*sigs.StdSignature
}

var (
	_ realm.Tx      = (*Tx)(nil)
	_ sigs.SignedTx = (*Tx)(nil)
)

// NewTx encodes the message into a transaction without signatures.
func NewTx(msg realm.Msg) (*Tx, error) {
	raw, err := realm.EncodeMsg(msg)
	if err != nil {
		return nil, err
	}
	return &Tx{Msg: raw}, nil
}

// GetMsg decodes the carried message.
func (tx *Tx) GetMsg() (realm.Msg, error) {
	return realm.DecodeMsg(tx.Msg)
}

// GetSignBytes returns the encoded message. Signatures cover the message
// only, so they can be collected in any order.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	if len(tx.Msg) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "message")
	}
	return tx.Msg, nil
}

// GetSignatures returns the collected signatures.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// Sign appends a signature of key for the given chain and signer sequence.
func (tx *Tx) Sign(key *ecdsa.PrivateKey, chainID string, seq uint64) error {
	sig, err := sigs.SignTx(key, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

// Marshal serializes the transaction.
func (tx *Tx) Marshal() ([]byte, error) {
	raw, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}

// Unmarshal parses a serialized transaction.
func (tx *Tx) Unmarshal(raw []byte) error {
	if len(raw) == 0 {
		return errors.Wrap(errors.ErrEmpty, "transaction")
	}
	if err := rlp.DecodeBytes(raw, tx); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	return nil
}

// DecodeTx is the realm.TxDecoder of Tx.
func DecodeTx(raw []byte) (realm.Tx, error) {
	var tx Tx
	if err := tx.Unmarshal(raw); err != nil {
		return nil, err
	}
	return &tx, nil
}

var _ realm.TxDecoder = DecodeTx
