package multisig

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

func init() {
	realm.RegisterMsg(&CreateWalletMsg{})
	realm.RegisterMsg(&SubmitTransactionMsg{})
	realm.RegisterMsg(&ConfirmTransactionMsg{})
	realm.RegisterMsg(&RevokeConfirmationMsg{})
	realm.RegisterMsg(&AddOwnerMsg{})
	realm.RegisterMsg(&RemoveOwnerMsg{})
	realm.RegisterMsg(&ReplaceOwnerMsg{})
	realm.RegisterMsg(&ChangeRequirementMsg{})
	realm.RegisterMsg(&WithdrawMsg{})
	realm.RegisterMsg(&WithdrawTokenMsg{})
	realm.RegisterMsg(&UpdateConfigurationMsg{})
}

// CreateWalletMsg creates a new wallet.
type CreateWalletMsg struct {
	Owners   []common.Address
	Required uint32
}

func (*CreateWalletMsg) Path() string { return "multisig/create_wallet" }

func (m *CreateWalletMsg) Validate() error {
	w := Wallet{Owners: m.Owners, Required: m.Required}
	return errors.Wrap(w.Validate(), "wallet")
}

// SubmitTransactionMsg proposes a wallet transaction. Payload is an
// encoded message, dispatched with the wallet as the caller. Value of the
// native token, as configured at submission, is sent to Target.
type SubmitTransactionMsg struct {
	WalletID uint64
	Target   common.Address
	Value    *big.Int
	Payload  []byte
}

func (*SubmitTransactionMsg) Path() string { return "multisig/submit" }

func (m *SubmitTransactionMsg) Validate() error {
	if m.WalletID == 0 {
		return errors.Wrap(errors.ErrEmpty, "wallet id")
	}
	if m.Target == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "target")
	}
	if m.Value != nil && m.Value.Sign() < 0 {
		return errors.Wrap(errors.ErrAmount, "negative value")
	}
	if len(m.Payload) > 0 {
		if _, err := realm.DecodeMsg(m.Payload); err != nil {
			return errors.Wrap(err, "payload")
		}
	}
	return nil
}

// ConfirmTransactionMsg confirms a pending transaction.
type ConfirmTransactionMsg struct {
	WalletID uint64
	TxID     uint64
}

func (*ConfirmTransactionMsg) Path() string { return "multisig/confirm" }

func (m *ConfirmTransactionMsg) Validate() error {
	return validateWalletID(m.WalletID)
}

// RevokeConfirmationMsg withdraws the confirmation of a pending
// transaction.
type RevokeConfirmationMsg struct {
	WalletID uint64
	TxID     uint64
}

func (*RevokeConfirmationMsg) Path() string { return "multisig/revoke" }

func (m *RevokeConfirmationMsg) Validate() error {
	return validateWalletID(m.WalletID)
}

// AddOwnerMsg adds an owner. Only the wallet can send it.
type AddOwnerMsg struct {
	WalletID uint64
	Owner    common.Address
}

func (*AddOwnerMsg) Path() string { return "multisig/add_owner" }

func (m *AddOwnerMsg) Validate() error {
	if err := validateWalletID(m.WalletID); err != nil {
		return err
	}
	return validateOwner(m.Owner)
}

// RemoveOwnerMsg removes an owner. The requirement is lowered when it
// exceeds the remaining owners. Only the wallet can send it.
type RemoveOwnerMsg struct {
	WalletID uint64
	Owner    common.Address
}

func (*RemoveOwnerMsg) Path() string { return "multisig/remove_owner" }

func (m *RemoveOwnerMsg) Validate() error {
	if err := validateWalletID(m.WalletID); err != nil {
		return err
	}
	return validateOwner(m.Owner)
}

// ReplaceOwnerMsg swaps an owner for a new one, keeping its position.
// Only the wallet can send it.
type ReplaceOwnerMsg struct {
	WalletID uint64
	Owner    common.Address
	NewOwner common.Address
}

func (*ReplaceOwnerMsg) Path() string { return "multisig/replace_owner" }

func (m *ReplaceOwnerMsg) Validate() error {
	if err := validateWalletID(m.WalletID); err != nil {
		return err
	}
	if err := validateOwner(m.Owner); err != nil {
		return err
	}
	return validateOwner(m.NewOwner)
}

// ChangeRequirementMsg sets the number of required confirmations. Only the
// wallet can send it.
type ChangeRequirementMsg struct {
	WalletID uint64
	Required uint32
}

func (*ChangeRequirementMsg) Path() string { return "multisig/change_requirement" }

func (m *ChangeRequirementMsg) Validate() error {
	if err := validateWalletID(m.WalletID); err != nil {
		return err
	}
	if m.Required == 0 {
		return errors.Wrap(errors.ErrInput, "requirement must be positive")
	}
	return nil
}

// WithdrawMsg sends native tokens of the wallet. Only the wallet can send
// it. Submitted as a payload it is stored as a WithdrawTokenMsg for the
// native token of that moment.
type WithdrawMsg struct {
	WalletID uint64
	To       common.Address
	Amount   *big.Int
}

func (*WithdrawMsg) Path() string { return "multisig/withdraw" }

func (m *WithdrawMsg) Validate() error {
	if err := validateWalletID(m.WalletID); err != nil {
		return err
	}
	return validateWithdrawal(m.To, m.Amount)
}

// WithdrawTokenMsg sends tokens of any ticker held by the wallet. Only the
// wallet can send it.
type WithdrawTokenMsg struct {
	WalletID uint64
	Ticker   string
	To       common.Address
	Amount   *big.Int
}

func (*WithdrawTokenMsg) Path() string { return "multisig/withdraw_token" }

func (m *WithdrawTokenMsg) Validate() error {
	if err := validateWalletID(m.WalletID); err != nil {
		return err
	}
	if m.Ticker == "" {
		return errors.Wrap(errors.ErrEmpty, "ticker")
	}
	return validateWithdrawal(m.To, m.Amount)
}

// UpdateConfigurationMsg patches the multisig configuration. Zero fields of
// the patch are ignored.
type UpdateConfigurationMsg struct {
	Patch *Configuration
}

func (*UpdateConfigurationMsg) Path() string { return "multisig/update_configuration" }

func (m *UpdateConfigurationMsg) Validate() error {
	if m.Patch == nil {
		return errors.Wrap(errors.ErrEmpty, "patch")
	}
	return nil
}

func validateWalletID(id uint64) error {
	if id == 0 {
		return errors.Wrap(errors.ErrEmpty, "wallet id")
	}
	return nil
}

func validateOwner(addr common.Address) error {
	if addr == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "owner")
	}
	return nil
}

func validateWithdrawal(to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "recipient")
	}
	if amount == nil || amount.Sign() <= 0 {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	return nil
}
