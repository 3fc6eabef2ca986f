package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/crypto/eip712"
	"github.com/herorealm/realm/errors"
)

func init() {
	realm.RegisterMsg(&TransferFromVaultMsg{})
	realm.RegisterMsg(&SetVaultMsg{})
	realm.RegisterMsg(&SetVaultSignerMsg{})
	realm.RegisterMsg(&SetVaultDomainMsg{})
}

// TransferFromVaultMsg claims funds from the vault of a token. The signer
// of the transaction is the recipient.
type TransferFromVaultMsg struct {
	Token     string
	Signature []byte
	Amount    *big.Int
}

func (*TransferFromVaultMsg) Path() string { return "vault/transfer" }

func (m *TransferFromVaultMsg) Validate() error {
	if m.Token == "" {
		return errors.Wrap(errors.ErrEmpty, "token")
	}
	if len(m.Signature) != eip712.SignatureLength {
		return errors.Wrapf(errors.ErrInput, "signature length %d", len(m.Signature))
	}
	if m.Amount == nil || m.Amount.Sign() <= 0 {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	return nil
}

// SetVaultMsg changes the account funds are claimed from.
type SetVaultMsg struct {
	Token string
	Vault common.Address
}

func (*SetVaultMsg) Path() string { return "vault/set_vault" }

func (m *SetVaultMsg) Validate() error {
	if m.Token == "" {
		return errors.Wrap(errors.ErrEmpty, "token")
	}
	if m.Vault == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "vault")
	}
	return nil
}

// SetVaultSignerMsg changes the authority signing transfers.
type SetVaultSignerMsg struct {
	Token  string
	Signer common.Address
}

func (*SetVaultSignerMsg) Path() string { return "vault/set_signer" }

func (m *SetVaultSignerMsg) Validate() error {
	if m.Token == "" {
		return errors.Wrap(errors.ErrEmpty, "token")
	}
	if m.Signer == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "signer")
	}
	return nil
}

// SetVaultDomainMsg changes the name and version of the signing domain.
// Outstanding authorizations become invalid.
type SetVaultDomainMsg struct {
	Token   string
	Name    string
	Version string
}

func (*SetVaultDomainMsg) Path() string { return "vault/set_domain" }

func (m *SetVaultDomainMsg) Validate() error {
	if m.Token == "" {
		return errors.Wrap(errors.ErrEmpty, "token")
	}
	if m.Name == "" || m.Version == "" {
		return errors.Wrap(errors.ErrEmpty, "domain")
	}
	return nil
}
