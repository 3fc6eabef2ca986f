package token

import (
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/orm"
)

var isTicker = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`).MatchString

const maxControllers = 32

// Token is the definition of a fungible token. It is stored under its
// ticker.
type Token struct {
	Ticker      string
	Name        string
	Decimals    uint8
	Admin       common.Address
	Controllers []common.Address
	Paused      bool
	Supply      *big.Int
}

func (t *Token) Validate() error {
	if !isTicker(t.Ticker) {
		return errors.Wrapf(errors.ErrInput, "invalid ticker %q", t.Ticker)
	}
	if t.Name == "" {
		return errors.Wrap(errors.ErrEmpty, "name")
	}
	if t.Decimals > 18 {
		return errors.Wrap(errors.ErrInput, "decimals")
	}
	if t.Admin == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "admin")
	}
	if len(t.Controllers) > maxControllers {
		return errors.Wrap(errors.ErrState, "too many controllers")
	}
	seen := make(map[common.Address]struct{}, len(t.Controllers))
	for _, c := range t.Controllers {
		if c == (common.Address{}) {
			return errors.Wrap(errors.ErrEmpty, "controller")
		}
		if _, ok := seen[c]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "controller %s", c.Hex())
		}
		seen[c] = struct{}{}
	}
	if t.Supply == nil {
		return errors.Wrap(errors.ErrEmpty, "supply")
	}
	return nil
}

// IsController returns true if the address may mint new tokens.
func (t *Token) IsController(addr common.Address) bool {
	for _, c := range t.Controllers {
		if c == addr {
			return true
		}
	}
	return false
}

// ContractAddress returns the account address of the token contract. It is
// the verifying contract of signatures scoped to the token.
func ContractAddress(ticker string) common.Address {
	return realm.NewCondition("token", "erc20", []byte(ticker)).Address()
}

// Balance is the amount of a token held by an account.
type Balance struct {
	Amount *big.Int
}

func (b *Balance) Validate() error {
	if b.Amount == nil || b.Amount.Sign() < 0 {
		return errors.Wrap(errors.ErrAmount, "balance")
	}
	return nil
}

// Allowance is the amount a spender may move on behalf of an owner.
type Allowance struct {
	Amount *big.Int
}

func (a *Allowance) Validate() error {
	if a.Amount == nil || a.Amount.Sign() < 0 {
		return errors.Wrap(errors.ErrAmount, "allowance")
	}
	return nil
}

// BalanceKey returns the key under which the balance of the holder is
// stored.
func BalanceKey(ticker string, holder common.Address) []byte {
	return append([]byte(ticker+"/"), holder.Bytes()...)
}

// AllowanceKey returns the key under which the allowance given by owner to
// spender is stored.
func AllowanceKey(ticker string, owner, spender common.Address) []byte {
	key := append([]byte(ticker+"/"), owner.Bytes()...)
	return append(key, spender.Bytes()...)
}

// NewTokenBucket returns a bucket of token definitions.
func NewTokenBucket() orm.ModelBucket {
	return orm.NewModelBucket("token", &Token{})
}

// NewBalanceBucket returns a bucket of balances.
func NewBalanceBucket() orm.ModelBucket {
	return orm.NewModelBucket("balance", &Balance{})
}

// NewAllowanceBucket returns a bucket of allowances.
func NewAllowanceBucket() orm.ModelBucket {
	return orm.NewModelBucket("allowance", &Allowance{})
}
