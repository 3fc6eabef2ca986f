package nft

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/crypto/eip712"
	"github.com/herorealm/realm/errors"
)

func init() {
	realm.RegisterMsg(&MintMsg{})
	realm.RegisterMsg(&SafeMintTokensMsg{})
	realm.RegisterMsg(&TransferMsg{})
	realm.RegisterMsg(&ApproveMsg{})
	realm.RegisterMsg(&SetApprovalForAllMsg{})
	realm.RegisterMsg(&SetBaseURIMsg{})
	realm.RegisterMsg(&SetMintSignerMsg{})
	realm.RegisterMsg(&SetVaultMsg{})
	realm.RegisterMsg(&SetDomainMsg{})
	realm.RegisterMsg(&PauseMsg{})
	realm.RegisterMsg(&AddControllerMsg{})
	realm.RegisterMsg(&RemoveControllerMsg{})
}

// maxBatch limits the number of tokens minted by a single authorization.
const maxBatch = 100

// MintMsg creates a token. Only a controller of the collection may sign
// it.
type MintMsg struct {
	Collection string
	To         common.Address
	ID         *big.Int
}

func (*MintMsg) Path() string { return "nft/mint" }

func (m *MintMsg) Validate() error {
	if err := validateCollection(m.Collection); err != nil {
		return err
	}
	if m.To == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "recipient")
	}
	return validateTokenID(m.ID)
}

// SafeMintTokensMsg mints a batch of tokens authorized by the mint signer
// of the collection. The signer of the transaction is the minter and pays
// the sum of the prices.
type SafeMintTokensMsg struct {
	Collection  string
	Signature   []byte
	TokenIDs    []*big.Int
	TokenPrices []*big.Int
}

func (*SafeMintTokensMsg) Path() string { return "nft/safe_mint" }

func (m *SafeMintTokensMsg) Validate() error {
	if err := validateCollection(m.Collection); err != nil {
		return err
	}
	if len(m.Signature) != eip712.SignatureLength {
		return errors.Wrapf(errors.ErrInput, "signature length %d", len(m.Signature))
	}
	switch n := len(m.TokenIDs); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "token ids")
	case n > maxBatch:
		return errors.Wrapf(errors.ErrInput, "more than %d tokens", maxBatch)
	case n != len(m.TokenPrices):
		return errors.Wrap(errors.ErrInput, "token ids and prices differ in length")
	}
	seen := make(map[string]struct{}, len(m.TokenIDs))
	for i, id := range m.TokenIDs {
		if err := validateTokenID(id); err != nil {
			return errors.Wrapf(err, "token %d", i)
		}
		if _, ok := seen[id.String()]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "token id %s", id)
		}
		seen[id.String()] = struct{}{}
		if p := m.TokenPrices[i]; p == nil || p.Sign() < 0 {
			return errors.Wrapf(errors.ErrAmount, "price %d", i)
		}
	}
	return nil
}

// TransferMsg moves a token. The signer must be the owner, the approved
// account or an operator of the owner.
type TransferMsg struct {
	Collection string
	From       common.Address
	To         common.Address
	ID         *big.Int
}

func (*TransferMsg) Path() string { return "nft/transfer" }

func (m *TransferMsg) Validate() error {
	if err := validateCollection(m.Collection); err != nil {
		return err
	}
	if m.From == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "source")
	}
	if m.To == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "recipient")
	}
	return validateTokenID(m.ID)
}

// ApproveMsg allows an account to transfer a single token. A zero address
// clears the approval.
type ApproveMsg struct {
	Collection string
	Approved   common.Address
	ID         *big.Int
}

func (*ApproveMsg) Path() string { return "nft/approve" }

func (m *ApproveMsg) Validate() error {
	if err := validateCollection(m.Collection); err != nil {
		return err
	}
	return validateTokenID(m.ID)
}

// SetApprovalForAllMsg grants or revokes the right to transfer all tokens
// of the signer.
type SetApprovalForAllMsg struct {
	Collection string
	Operator   common.Address
	Approved   bool
}

func (*SetApprovalForAllMsg) Path() string { return "nft/set_approval_for_all" }

func (m *SetApprovalForAllMsg) Validate() error {
	if err := validateCollection(m.Collection); err != nil {
		return err
	}
	if m.Operator == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "operator")
	}
	return nil
}

// SetBaseURIMsg changes the prefix of token metadata URIs.
type SetBaseURIMsg struct {
	Collection string
	BaseURI    string
}

func (*SetBaseURIMsg) Path() string { return "nft/set_base_uri" }

func (m *SetBaseURIMsg) Validate() error {
	return validateCollection(m.Collection)
}

// SetMintSignerMsg changes the authority of signature based minting.
type SetMintSignerMsg struct {
	Collection string
	Signer     common.Address
}

func (*SetMintSignerMsg) Path() string { return "nft/set_mint_signer" }

func (m *SetMintSignerMsg) Validate() error {
	if err := validateCollection(m.Collection); err != nil {
		return err
	}
	if m.Signer == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "signer")
	}
	return nil
}

// SetVaultMsg changes the account receiving mint payments.
type SetVaultMsg struct {
	Collection string
	Vault      common.Address
}

func (*SetVaultMsg) Path() string { return "nft/set_vault" }

func (m *SetVaultMsg) Validate() error {
	if err := validateCollection(m.Collection); err != nil {
		return err
	}
	if m.Vault == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "vault")
	}
	return nil
}

// SetDomainMsg changes the name and version of the signing domain.
type SetDomainMsg struct {
	Collection string
	Name       string
	Version    string
}

func (*SetDomainMsg) Path() string { return "nft/set_domain" }

func (m *SetDomainMsg) Validate() error {
	if err := validateCollection(m.Collection); err != nil {
		return err
	}
	if m.Name == "" || m.Version == "" {
		return errors.Wrap(errors.ErrEmpty, "domain")
	}
	return nil
}

// PauseMsg freezes or unfreezes all transfers and mints of a collection.
type PauseMsg struct {
	Collection string
	Paused     bool
}

func (*PauseMsg) Path() string { return "nft/pause" }

func (m *PauseMsg) Validate() error {
	return validateCollection(m.Collection)
}

// AddControllerMsg grants the minting right.
type AddControllerMsg struct {
	Collection string
	Controller common.Address
}

func (*AddControllerMsg) Path() string { return "nft/add_controller" }

func (m *AddControllerMsg) Validate() error {
	if err := validateCollection(m.Collection); err != nil {
		return err
	}
	if m.Controller == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "controller")
	}
	return nil
}

// RemoveControllerMsg revokes the minting right.
type RemoveControllerMsg struct {
	Collection string
	Controller common.Address
}

func (*RemoveControllerMsg) Path() string { return "nft/remove_controller" }

func (m *RemoveControllerMsg) Validate() error {
	if err := validateCollection(m.Collection); err != nil {
		return err
	}
	if m.Controller == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "controller")
	}
	return nil
}

func validateCollection(name string) error {
	if !isCollectionName(name) {
		return errors.Wrapf(errors.ErrInput, "invalid collection name %q", name)
	}
	return nil
}
