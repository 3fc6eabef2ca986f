package realm

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/herorealm/realm/errors"
)

// it must have (?s) flags, otherwise it errors when last section contains 0x20 (newline)
var perm = regexp.MustCompile(`(?s)^([a-zA-Z0-9_\-]{3,8})/([a-zA-Z0-9_\-]{3,12})/(.+)$`)

// Condition is a specially formatted array, containing
// information on who can authorize an action.
// It is of the format:
//
//	sprintf("%s/%s/%s", extension, type, data)
//
// Conditions give an identity to accounts that are not backed by a private
// key, such as the multisig wallet, the marketplace escrow or a token
// contract. Such an account can only act when the owning extension adds
// the condition's address to the authentication context.
type Condition []byte

// NewCondition builds a condition for the given extension, type and data.
func NewCondition(ext, typ string, data []byte) Condition {
	pre := fmt.Sprintf("%s/%s/", ext, typ)
	return append([]byte(pre), data...)
}

// Parse will extract the sections from the Condition bytes
// and verify it is properly formatted
func (c Condition) Parse() (string, string, []byte, error) {
	chunks := perm.FindSubmatch(c)
	if len(chunks) == 0 {
		return "", "", nil, errors.Wrapf(errors.ErrInput, "condition: %X", []byte(c))
	}
	// returns [all, match1, match2, match3]
	return string(chunks[1]), string(chunks[2]), chunks[3], nil
}

// Address derives the account address of the condition. Like contract
// addresses on an EVM chain, it is the last 20 bytes of the keccak256 hash.
func (c Condition) Address() common.Address {
	return common.BytesToAddress(crypto.Keccak256(c)[12:])
}

// Equals checks if two conditions are the same
func (c Condition) Equals(o Condition) bool {
	return bytes.Equal(c, o)
}

// String returns a human readable string.
// We keep the extension and type in ascii and
// hex-encode the binary data
func (c Condition) String() string {
	ext, typ, data, err := c.Parse()
	if err != nil {
		return fmt.Sprintf("Invalid Condition: %X", []byte(c))
	}
	return fmt.Sprintf("%s/%s/%X", ext, typ, data)
}

// Validate returns an error if the Condition is not the proper format
func (c Condition) Validate() error {
	if !perm.Match(c) {
		return errors.Wrapf(errors.ErrInput, "condition: %X", []byte(c))
	}
	return nil
}

// ParseAddress accepts an address in one of the supported formats:
//
//	0x<40 hex characters>
//	bech32:<bech32 string>
//	cond:<extension>/<type>/<hex data>
func ParseAddress(s string) (common.Address, error) {
	chunks := strings.SplitN(s, ":", 2)
	if len(chunks) == 1 {
		if !common.IsHexAddress(s) {
			return common.Address{}, errors.Wrapf(errors.ErrInput, "invalid hex address %q", s)
		}
		return common.HexToAddress(s), nil
	}

	switch format, enc := chunks[0], chunks[1]; format {
	case "bech32":
		_, data, err := bech32.Decode(enc)
		if err != nil {
			return common.Address{}, errors.Wrapf(errors.ErrInput, "bech32: %s", err)
		}
		raw, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return common.Address{}, errors.Wrapf(errors.ErrInput, "bech32 bits: %s", err)
		}
		if len(raw) != common.AddressLength {
			return common.Address{}, errors.Wrapf(errors.ErrInput, "address length %d", len(raw))
		}
		return common.BytesToAddress(raw), nil
	case "cond":
		args := strings.Split(enc, "/")
		if len(args) != 3 {
			return common.Address{}, errors.Wrap(errors.ErrInput, "invalid condition format")
		}
		data, err := hex.DecodeString(args[2])
		if err != nil {
			return common.Address{}, errors.Wrapf(errors.ErrInput, "malformed condition data: %s", err)
		}
		c := NewCondition(args[0], args[1], data)
		if err := c.Validate(); err != nil {
			return common.Address{}, err
		}
		return c.Address(), nil
	default:
		return common.Address{}, errors.Wrapf(errors.ErrType, "unknown address format %q", format)
	}
}

// Bech32Address returns the bech32 representation of an address using the
// given human readable part.
func Bech32Address(hrp string, addr common.Address) (string, error) {
	data, err := bech32.ConvertBits(addr.Bytes(), 8, 5, true)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInput, "bech32 bits: %s", err)
	}
	s, err := bech32.Encode(hrp, data)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInput, "bech32: %s", err)
	}
	return s, nil
}
