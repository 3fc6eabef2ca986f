package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

func init() {
	realm.RegisterMsg(&ListMsg{})
	realm.RegisterMsg(&UpdateListingMsg{})
	realm.RegisterMsg(&CancelListingMsg{})
	realm.RegisterMsg(&ForceCancelMsg{})
	realm.RegisterMsg(&BuyMsg{})
	realm.RegisterMsg(&WithdrawProceedsMsg{})
	realm.RegisterMsg(&SetRoyaltyMsg{})
	realm.RegisterMsg(&UpdateConfigurationMsg{})
}

// ListMsg offers a token of the signer for sale.
type ListMsg struct {
	Collection string
	ID         *big.Int
	Price      *big.Int
}

func (*ListMsg) Path() string { return "market/list" }

func (m *ListMsg) Validate() error {
	if err := validateToken(m.Collection, m.ID); err != nil {
		return err
	}
	return validatePrice(m.Price)
}

// UpdateListingMsg changes the price of a listing of the signer.
type UpdateListingMsg struct {
	Collection string
	ID         *big.Int
	Price      *big.Int
}

func (*UpdateListingMsg) Path() string { return "market/update_listing" }

func (m *UpdateListingMsg) Validate() error {
	if err := validateToken(m.Collection, m.ID); err != nil {
		return err
	}
	return validatePrice(m.Price)
}

// CancelListingMsg withdraws a listing of the signer.
type CancelListingMsg struct {
	Collection string
	ID         *big.Int
}

func (*CancelListingMsg) Path() string { return "market/cancel_listing" }

func (m *CancelListingMsg) Validate() error {
	return validateToken(m.Collection, m.ID)
}

// ForceCancelMsg removes any listing. Only the market owner may sign it.
type ForceCancelMsg struct {
	Collection string
	ID         *big.Int
}

func (*ForceCancelMsg) Path() string { return "market/force_cancel" }

func (m *ForceCancelMsg) Validate() error {
	return validateToken(m.Collection, m.ID)
}

// BuyMsg buys a listed token. Amount must equal the listed price.
type BuyMsg struct {
	Collection string
	ID         *big.Int
	Amount     *big.Int
}

func (*BuyMsg) Path() string { return "market/buy" }

func (m *BuyMsg) Validate() error {
	if err := validateToken(m.Collection, m.ID); err != nil {
		return err
	}
	return validatePrice(m.Amount)
}

// WithdrawProceedsMsg pays out all proceeds of the signer.
type WithdrawProceedsMsg struct{}

func (*WithdrawProceedsMsg) Path() string { return "market/withdraw_proceeds" }

func (m *WithdrawProceedsMsg) Validate() error {
	return nil
}

// SetRoyaltyMsg sets the royalty of a collection. Zero bps removes it.
type SetRoyaltyMsg struct {
	Collection string
	Recipient  common.Address
	Bps        uint32
}

func (*SetRoyaltyMsg) Path() string { return "market/set_royalty" }

func (m *SetRoyaltyMsg) Validate() error {
	if m.Collection == "" {
		return errors.Wrap(errors.ErrEmpty, "collection")
	}
	if m.Bps > maxBps {
		return errors.Wrapf(errors.ErrInput, "royalty of %d bps", m.Bps)
	}
	if m.Bps > 0 && m.Recipient == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "recipient")
	}
	return nil
}

// UpdateConfigurationMsg patches the market configuration. Zero fields
// of the patch are ignored.
type UpdateConfigurationMsg struct {
	Patch *Configuration
}

func (*UpdateConfigurationMsg) Path() string { return "market/update_configuration" }

func (m *UpdateConfigurationMsg) Validate() error {
	if m.Patch == nil {
		return errors.Wrap(errors.ErrEmpty, "patch")
	}
	return nil
}

func validateToken(collection string, id *big.Int) error {
	if collection == "" {
		return errors.Wrap(errors.ErrEmpty, "collection")
	}
	if id == nil || id.Sign() < 0 {
		return errors.Wrap(errors.ErrInput, "token id")
	}
	return nil
}

func validatePrice(price *big.Int) error {
	if price == nil || price.Sign() <= 0 {
		return errors.Wrap(errors.ErrAmount, "price must be positive")
	}
	return nil
}
