package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/orm"
)

// Controller is the token API used by other extensions.
type Controller interface {
	// Token returns the definition of the token, ErrNotFound if unknown.
	Token(db realm.ReadOnlyKVStore, ticker string) (*Token, error)

	// Balance returns the amount held by holder. Unknown holders hold zero.
	Balance(db realm.ReadOnlyKVStore, ticker string, holder common.Address) (*big.Int, error)

	// Allowance returns the amount spender may move from owner.
	Allowance(db realm.ReadOnlyKVStore, ticker string, owner, spender common.Address) (*big.Int, error)

	// Transfer moves amount from one account to another.
	Transfer(db realm.KVStore, ticker string, from, to common.Address, amount *big.Int) error

	// TransferFrom moves amount on behalf of from, consuming the allowance
	// given to spender.
	TransferFrom(db realm.KVStore, ticker string, spender, from, to common.Address, amount *big.Int) error

	// Approve sets the allowance of spender over the funds of owner.
	Approve(db realm.KVStore, ticker string, owner, spender common.Address, amount *big.Int) error

	// Mint creates new tokens and increases the supply.
	Mint(db realm.KVStore, ticker string, to common.Address, amount *big.Int) error

	// Burn destroys tokens held by from and decreases the supply.
	Burn(db realm.KVStore, ticker string, from common.Address, amount *big.Int) error
}

// BaseController is the store backed Controller implementation.
type BaseController struct {
	tokens     orm.ModelBucket
	balances   orm.ModelBucket
	allowances orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on the token buckets.
func NewController() BaseController {
	return BaseController{
		tokens:     NewTokenBucket(),
		balances:   NewBalanceBucket(),
		allowances: NewAllowanceBucket(),
	}
}

func (c BaseController) Token(db realm.ReadOnlyKVStore, ticker string) (*Token, error) {
	var t Token
	if err := c.tokens.One(db, []byte(ticker), &t); err != nil {
		return nil, errors.Wrapf(err, "token %q", ticker)
	}
	return &t, nil
}

// active returns the token if it exists and is not paused.
func (c BaseController) active(db realm.ReadOnlyKVStore, ticker string) (*Token, error) {
	t, err := c.Token(db, ticker)
	if err != nil {
		return nil, err
	}
	if t.Paused {
		return nil, errors.Wrapf(errors.ErrPaused, "token %q", ticker)
	}
	return t, nil
}

func (c BaseController) Balance(db realm.ReadOnlyKVStore, ticker string, holder common.Address) (*big.Int, error) {
	var b Balance
	switch err := c.balances.One(db, BalanceKey(ticker, holder), &b); {
	case err == nil:
		return b.Amount, nil
	case errors.ErrNotFound.Is(err):
		return new(big.Int), nil
	default:
		return nil, err
	}
}

func (c BaseController) Allowance(db realm.ReadOnlyKVStore, ticker string, owner, spender common.Address) (*big.Int, error) {
	var a Allowance
	switch err := c.allowances.One(db, AllowanceKey(ticker, owner, spender), &a); {
	case err == nil:
		return a.Amount, nil
	case errors.ErrNotFound.Is(err):
		return new(big.Int), nil
	default:
		return nil, err
	}
}

func (c BaseController) setBalance(db realm.KVStore, ticker string, holder common.Address, amount *big.Int) error {
	key := BalanceKey(ticker, holder)
	if amount.Sign() == 0 {
		if err := c.balances.Delete(db, key); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	return c.balances.Put(db, key, &Balance{Amount: amount})
}

func (c BaseController) Transfer(db realm.KVStore, ticker string, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return errors.Wrap(errors.ErrInput, "transfer to the zero address")
	}
	if _, err := c.active(db, ticker); err != nil {
		return err
	}

	src, err := c.Balance(db, ticker, from)
	if err != nil {
		return err
	}
	if src.Cmp(amount) < 0 {
		return errors.Wrapf(errors.ErrInsufficientAmount, "balance %s, need %s", src, amount)
	}
	if err := c.setBalance(db, ticker, from, new(big.Int).Sub(src, amount)); err != nil {
		return errors.Wrap(err, "debit")
	}
	dst, err := c.Balance(db, ticker, to)
	if err != nil {
		return err
	}
	if err := c.setBalance(db, ticker, to, new(big.Int).Add(dst, amount)); err != nil {
		return errors.Wrap(err, "credit")
	}
	return nil
}

func (c BaseController) TransferFrom(db realm.KVStore, ticker string, spender, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if spender != from {
		allowed, err := c.Allowance(db, ticker, from, spender)
		if err != nil {
			return err
		}
		if allowed.Cmp(amount) < 0 {
			return errors.Wrapf(errors.ErrInsufficientAmount, "allowance %s, need %s", allowed, amount)
		}
		if err := c.Approve(db, ticker, from, spender, new(big.Int).Sub(allowed, amount)); err != nil {
			return errors.Wrap(err, "consume allowance")
		}
	}
	return c.Transfer(db, ticker, from, to, amount)
}

func (c BaseController) Approve(db realm.KVStore, ticker string, owner, spender common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if spender == (common.Address{}) {
		return errors.Wrap(errors.ErrInput, "approve the zero address")
	}
	if _, err := c.Token(db, ticker); err != nil {
		return err
	}
	key := AllowanceKey(ticker, owner, spender)
	if amount.Sign() == 0 {
		if err := c.allowances.Delete(db, key); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	return c.allowances.Put(db, key, &Allowance{Amount: new(big.Int).Set(amount)})
}

func (c BaseController) Mint(db realm.KVStore, ticker string, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return errors.Wrap(errors.ErrInput, "mint to the zero address")
	}
	t, err := c.active(db, ticker)
	if err != nil {
		return err
	}
	t.Supply = new(big.Int).Add(t.Supply, amount)
	if err := c.tokens.Put(db, []byte(ticker), t); err != nil {
		return errors.Wrap(err, "supply")
	}
	dst, err := c.Balance(db, ticker, to)
	if err != nil {
		return err
	}
	return c.setBalance(db, ticker, to, new(big.Int).Add(dst, amount))
}

func (c BaseController) Burn(db realm.KVStore, ticker string, from common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t, err := c.active(db, ticker)
	if err != nil {
		return err
	}
	src, err := c.Balance(db, ticker, from)
	if err != nil {
		return err
	}
	if src.Cmp(amount) < 0 {
		return errors.Wrapf(errors.ErrInsufficientAmount, "balance %s, need %s", src, amount)
	}
	if err := c.setBalance(db, ticker, from, new(big.Int).Sub(src, amount)); err != nil {
		return err
	}
	t.Supply = new(big.Int).Sub(t.Supply, amount)
	return c.tokens.Put(db, []byte(ticker), t)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrap(errors.ErrAmount, "amount must not be negative")
	}
	return nil
}
