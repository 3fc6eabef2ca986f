package sigs

import (
	"github.com/herorealm/realm/crypto/eip712"
	"github.com/herorealm/realm/errors"
)

// StdSignature is a recoverable secp256k1 signature of a transaction,
// bound to the signer's sequence.
type StdSignature struct {
	Sequence  uint64
	Signature []byte
}

// SignedTx represents a transaction that contains signatures,
// which can be verified by the sigs.Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the
	// transaction without signatures.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signatures of signers who signed the tx.
	GetSignatures() []*StdSignature
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	if len(s.Signature) != eip712.SignatureLength {
		return errors.Wrapf(errors.ErrUnauthorized, "signature length %d", len(s.Signature))
	}
	return nil
}
