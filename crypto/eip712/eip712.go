package eip712

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/herorealm/realm/errors"
)

// SignatureLength is the length of an r, s, v signature.
const SignatureLength = crypto.SignatureLength

const domainType = "EIP712Domain"

var domainFields = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// Domain separates signatures of different contracts and chains.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// Validate returns an error if any domain member is missing.
func (d Domain) Validate() error {
	switch {
	case d.Name == "":
		return errors.Wrap(errors.ErrEmpty, "domain name")
	case d.Version == "":
		return errors.Wrap(errors.ErrEmpty, "domain version")
	case d.ChainID == nil || d.ChainID.Sign() <= 0:
		return errors.Wrap(errors.ErrInput, "domain chain id")
	case d.VerifyingContract == (common.Address{}):
		return errors.Wrap(errors.ErrEmpty, "domain verifying contract")
	}
	return nil
}

// Message holds the field values of a typed message, by field name.
//
// Accepted Go values are common.Address, *big.Int, uint64, bool, string,
// [32]byte, []common.Address and []*big.Int.
type Message map[string]interface{}

// Hash returns the 32 byte digest that is signed for the message.
func Hash(d Domain, s Schema, m Message) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	data, err := typedData(d, s, m)
	if err != nil {
		return nil, err
	}
	digest, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "hash %s: %s", s.Name, err)
	}
	return digest, nil
}

func typedData(d Domain, s Schema, m Message) (apitypes.TypedData, error) {
	if len(m) != len(s.Fields) {
		return apitypes.TypedData{}, errors.Wrapf(errors.ErrInput,
			"%s expects %d fields, got %d", s.Name, len(s.Fields), len(m))
	}
	fields := make([]apitypes.Type, len(s.Fields))
	msg := make(apitypes.TypedDataMessage, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = apitypes.Type{Name: f.Name, Type: f.Type}
		v, ok := m[f.Name]
		if !ok {
			return apitypes.TypedData{}, errors.Wrapf(errors.ErrInput, "missing field %s.%s", s.Name, f.Name)
		}
		nv, err := normalize(f.Type, v)
		if err != nil {
			return apitypes.TypedData{}, errors.Wrapf(err, "field %s.%s", s.Name, f.Name)
		}
		msg[f.Name] = nv
	}
	return apitypes.TypedData{
		Types: apitypes.Types{
			domainType: domainFields,
			s.Name:     fields,
		},
		PrimaryType: s.Name,
		Domain: apitypes.TypedDataDomain{
			Name:              d.Name,
			Version:           d.Version,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(d.ChainID)),
			VerifyingContract: d.VerifyingContract.Hex(),
		},
		Message: msg,
	}, nil
}

// normalize converts a Go value into the representation the typed data
// encoder understands.
func normalize(typ string, v interface{}) (interface{}, error) {
	switch typ {
	case "address":
		if a, ok := v.(common.Address); ok {
			return a.Hex(), nil
		}
	case "uint256", "uint64":
		switch n := v.(type) {
		case *big.Int:
			if n == nil || n.Sign() < 0 {
				return nil, errors.Wrap(errors.ErrAmount, "negative or nil integer")
			}
			return new(big.Int).Set(n), nil
		case uint64:
			return new(big.Int).SetUint64(n), nil
		}
	case "bool":
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case "string":
		if s, ok := v.(string); ok {
			return s, nil
		}
	case "bytes32":
		if b, ok := v.([32]byte); ok {
			return b[:], nil
		}
	case "address[]":
		if as, ok := v.([]common.Address); ok {
			out := make([]interface{}, len(as))
			for i, a := range as {
				out[i] = a.Hex()
			}
			return out, nil
		}
	case "uint256[]":
		if ns, ok := v.([]*big.Int); ok {
			out := make([]interface{}, len(ns))
			for i, n := range ns {
				if n == nil || n.Sign() < 0 {
					return nil, errors.Wrapf(errors.ErrAmount, "element %d", i)
				}
				out[i] = new(big.Int).Set(n)
			}
			return out, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrType, "cannot encode %T as %s", v, typ)
}

// Recover returns the address that produced the signature over digest.
//
// The signature is r, s and v concatenated, with v in {0, 1, 27, 28}.
// Signatures with s in the upper half of the curve order are rejected, so
// a signature cannot be replayed in its malleated form.
func Recover(digest, sig []byte) (common.Address, error) {
	if len(digest) != common.HashLength {
		return common.Address{}, errors.Wrapf(errors.ErrInput, "digest length %d", len(digest))
	}
	if len(sig) != SignatureLength {
		return common.Address{}, errors.Wrapf(errors.ErrVerification, "signature length %d", len(sig))
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return common.Address{}, errors.Wrap(errors.ErrVerification, "invalid signature values")
	}
	norm := make([]byte, SignatureLength)
	copy(norm, sig[:64])
	norm[64] = v
	pub, err := crypto.SigToPub(digest, norm)
	if err != nil {
		return common.Address{}, errors.Wrapf(errors.ErrVerification, "recover: %s", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// RecoverMessage hashes the message and recovers its signer.
func RecoverMessage(d Domain, s Schema, m Message, sig []byte) (common.Address, error) {
	digest, err := Hash(d, s, m)
	if err != nil {
		return common.Address{}, err
	}
	return Recover(digest, sig)
}

// Verify returns ErrVerification unless the message was signed by
// authority under the given domain.
func Verify(d Domain, s Schema, m Message, sig []byte, authority common.Address) error {
	if authority == (common.Address{}) {
		return errors.Wrap(errors.ErrVerification, "no authority configured")
	}
	signer, err := RecoverMessage(d, s, m, sig)
	if err != nil {
		return err
	}
	if signer != authority {
		return errors.Wrapf(errors.ErrVerification, "%s signed by %s", s.Name, signer.Hex())
	}
	return nil
}

// Sign signs the message with the given key. The returned signature uses
// v in {27, 28}.
func Sign(d Domain, s Schema, m Message, key *ecdsa.PrivateKey) ([]byte, error) {
	digest, err := Hash(d, s, m)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "sign: %s", err)
	}
	sig[64] += 27
	return sig, nil
}
