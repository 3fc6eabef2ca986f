package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

func init() {
	realm.RegisterMsg(&TransferMsg{})
	realm.RegisterMsg(&ApproveMsg{})
	realm.RegisterMsg(&TransferFromMsg{})
	realm.RegisterMsg(&MintMsg{})
	realm.RegisterMsg(&BurnMsg{})
	realm.RegisterMsg(&AddControllerMsg{})
	realm.RegisterMsg(&RemoveControllerMsg{})
	realm.RegisterMsg(&PauseMsg{})
	realm.RegisterMsg(&SetAdminMsg{})
}

// TransferMsg moves tokens of the signer to another account.
type TransferMsg struct {
	Ticker string
	To     common.Address
	Amount *big.Int
}

func (*TransferMsg) Path() string { return "token/transfer" }

func (m *TransferMsg) Validate() error {
	if err := validateTicker(m.Ticker); err != nil {
		return err
	}
	if m.To == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "recipient")
	}
	return validatePositive(m.Amount)
}

// ApproveMsg sets the amount a spender may move on behalf of the signer.
// A zero amount removes the allowance.
type ApproveMsg struct {
	Ticker  string
	Spender common.Address
	Amount  *big.Int
}

func (*ApproveMsg) Path() string { return "token/approve" }

func (m *ApproveMsg) Validate() error {
	if err := validateTicker(m.Ticker); err != nil {
		return err
	}
	if m.Spender == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "spender")
	}
	if m.Amount == nil || m.Amount.Sign() < 0 {
		return errors.Wrap(errors.ErrAmount, "amount")
	}
	return nil
}

// TransferFromMsg moves tokens of From, spending the allowance given to
// the signer.
type TransferFromMsg struct {
	Ticker string
	From   common.Address
	To     common.Address
	Amount *big.Int
}

func (*TransferFromMsg) Path() string { return "token/transfer_from" }

func (m *TransferFromMsg) Validate() error {
	if err := validateTicker(m.Ticker); err != nil {
		return err
	}
	if m.From == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "source")
	}
	if m.To == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "recipient")
	}
	return validatePositive(m.Amount)
}

// MintMsg creates new tokens. Only a controller of the token may sign it.
type MintMsg struct {
	Ticker string
	To     common.Address
	Amount *big.Int
}

func (*MintMsg) Path() string { return "token/mint" }

func (m *MintMsg) Validate() error {
	if err := validateTicker(m.Ticker); err != nil {
		return err
	}
	if m.To == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "recipient")
	}
	return validatePositive(m.Amount)
}

// BurnMsg destroys tokens held by the signer.
type BurnMsg struct {
	Ticker string
	Amount *big.Int
}

func (*BurnMsg) Path() string { return "token/burn" }

func (m *BurnMsg) Validate() error {
	if err := validateTicker(m.Ticker); err != nil {
		return err
	}
	return validatePositive(m.Amount)
}

// AddControllerMsg grants the minting right.
type AddControllerMsg struct {
	Ticker     string
	Controller common.Address
}

func (*AddControllerMsg) Path() string { return "token/add_controller" }

func (m *AddControllerMsg) Validate() error {
	if err := validateTicker(m.Ticker); err != nil {
		return err
	}
	if m.Controller == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "controller")
	}
	return nil
}

// RemoveControllerMsg revokes the minting right.
type RemoveControllerMsg struct {
	Ticker     string
	Controller common.Address
}

func (*RemoveControllerMsg) Path() string { return "token/remove_controller" }

func (m *RemoveControllerMsg) Validate() error {
	if err := validateTicker(m.Ticker); err != nil {
		return err
	}
	if m.Controller == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "controller")
	}
	return nil
}

// PauseMsg freezes or unfreezes all balance movements of a token.
type PauseMsg struct {
	Ticker string
	Paused bool
}

func (*PauseMsg) Path() string { return "token/pause" }

func (m *PauseMsg) Validate() error {
	return validateTicker(m.Ticker)
}

// SetAdminMsg hands the administration of a token over to another account.
type SetAdminMsg struct {
	Ticker string
	Admin  common.Address
}

func (*SetAdminMsg) Path() string { return "token/set_admin" }

func (m *SetAdminMsg) Validate() error {
	if err := validateTicker(m.Ticker); err != nil {
		return err
	}
	if m.Admin == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "admin")
	}
	return nil
}

func validateTicker(ticker string) error {
	if !isTicker(ticker) {
		return errors.Wrapf(errors.ErrInput, "invalid ticker %q", ticker)
	}
	return nil
}

func validatePositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	return nil
}
