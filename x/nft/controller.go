package nft

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/orm"
)

// Controller is the collection API used by other extensions.
type Controller interface {
	// Collection returns the collection definition, ErrNotFound if unknown.
	Collection(db realm.ReadOnlyKVStore, name string) (*Collection, error)

	// OwnerOf returns the owner of the token, ErrNotFound if not minted.
	OwnerOf(db realm.ReadOnlyKVStore, collection string, id *big.Int) (common.Address, error)

	// CanTransfer returns true if spender may transfer the token: it is the
	// owner, the approved account or an operator of the owner.
	CanTransfer(db realm.ReadOnlyKVStore, collection string, spender common.Address, id *big.Int) (bool, error)

	// Transfer moves the token from its owner to another account. The
	// spender must be allowed to transfer it.
	Transfer(db realm.KVStore, collection string, spender, from, to common.Address, id *big.Int) error

	// Mint creates a token. Minting an existing id fails with
	// ErrDuplicate.
	Mint(db realm.KVStore, collection string, to common.Address, id *big.Int) error
}

// BaseController is the store backed Controller implementation.
type BaseController struct {
	collections orm.ModelBucket
	tokens      orm.ModelBucket
	holdings    orm.ModelBucket
	operators   orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on the collection buckets.
func NewController() BaseController {
	return BaseController{
		collections: NewCollectionBucket(),
		tokens:      NewTokenBucket(),
		holdings:    NewHoldingBucket(),
		operators:   NewOperatorBucket(),
	}
}

func (c BaseController) Collection(db realm.ReadOnlyKVStore, name string) (*Collection, error) {
	var col Collection
	if err := c.collections.One(db, []byte(name), &col); err != nil {
		return nil, errors.Wrapf(err, "collection %q", name)
	}
	return &col, nil
}

func (c BaseController) token(db realm.ReadOnlyKVStore, collection string, id *big.Int) (*Token, error) {
	if err := validateTokenID(id); err != nil {
		return nil, err
	}
	var t Token
	if err := c.tokens.One(db, TokenKey(collection, id), &t); err != nil {
		return nil, errors.Wrapf(err, "token %s of %q", id, collection)
	}
	return &t, nil
}

func (c BaseController) OwnerOf(db realm.ReadOnlyKVStore, collection string, id *big.Int) (common.Address, error) {
	t, err := c.token(db, collection, id)
	if err != nil {
		return common.Address{}, err
	}
	return t.Owner, nil
}

// BalanceOf returns the number of tokens of the collection held by owner.
func (c BaseController) BalanceOf(db realm.ReadOnlyKVStore, collection string, owner common.Address) (uint64, error) {
	var h Holding
	switch err := c.holdings.One(db, HoldingKey(collection, owner), &h); {
	case err == nil:
		return h.Count, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}

// IsOperator returns true if operator may transfer every token of owner.
func (c BaseController) IsOperator(db realm.ReadOnlyKVStore, collection string, owner, operator common.Address) (bool, error) {
	return c.operators.Has(db, OperatorKey(collection, owner, operator))
}

func (c BaseController) CanTransfer(db realm.ReadOnlyKVStore, collection string, spender common.Address, id *big.Int) (bool, error) {
	t, err := c.token(db, collection, id)
	if err != nil {
		return false, err
	}
	return c.canTransfer(db, collection, spender, t)
}

func (c BaseController) canTransfer(db realm.ReadOnlyKVStore, collection string, spender common.Address, t *Token) (bool, error) {
	if spender == t.Owner || (t.Approved != (common.Address{}) && spender == t.Approved) {
		return true, nil
	}
	return c.IsOperator(db, collection, t.Owner, spender)
}

func (c BaseController) Transfer(db realm.KVStore, collection string, spender, from, to common.Address, id *big.Int) error {
	if to == (common.Address{}) {
		return errors.Wrap(errors.ErrInput, "transfer to the zero address")
	}
	col, err := c.Collection(db, collection)
	if err != nil {
		return err
	}
	if col.Paused {
		return errors.Wrapf(errors.ErrPaused, "collection %q", collection)
	}
	t, err := c.token(db, collection, id)
	if err != nil {
		return err
	}
	if t.Owner != from {
		return errors.Wrapf(errors.ErrState, "token %s is not owned by %s", id, from.Hex())
	}
	switch ok, err := c.canTransfer(db, collection, spender, t); {
	case err != nil:
		return err
	case !ok:
		return errors.Wrapf(errors.ErrUnauthorized, "%s may not transfer token %s", spender.Hex(), id)
	}

	if err := c.addHolding(db, collection, from, -1); err != nil {
		return err
	}
	if err := c.addHolding(db, collection, to, 1); err != nil {
		return err
	}
	t.Owner = to
	t.Approved = common.Address{}
	return c.tokens.Put(db, TokenKey(collection, id), t)
}

func (c BaseController) Mint(db realm.KVStore, collection string, to common.Address, id *big.Int) error {
	if to == (common.Address{}) {
		return errors.Wrap(errors.ErrInput, "mint to the zero address")
	}
	if err := validateTokenID(id); err != nil {
		return err
	}
	col, err := c.Collection(db, collection)
	if err != nil {
		return err
	}
	if col.Paused {
		return errors.Wrapf(errors.ErrPaused, "collection %q", collection)
	}
	key := TokenKey(collection, id)
	switch exists, err := c.tokens.Has(db, key); {
	case err != nil:
		return err
	case exists:
		return errors.Wrapf(errors.ErrDuplicate, "token %s of %q already minted", id, collection)
	}
	if err := c.addHolding(db, collection, to, 1); err != nil {
		return err
	}
	return c.tokens.Put(db, key, &Token{Owner: to})
}

// Approve sets the account allowed to transfer a single token. The signer
// must be the owner or an operator of the owner.
func (c BaseController) Approve(db realm.KVStore, collection string, signer, approved common.Address, id *big.Int) error {
	t, err := c.token(db, collection, id)
	if err != nil {
		return err
	}
	if signer != t.Owner {
		switch ok, err := c.IsOperator(db, collection, t.Owner, signer); {
		case err != nil:
			return err
		case !ok:
			return errors.Wrap(errors.ErrUnauthorized, "not the owner nor an operator")
		}
	}
	if approved == t.Owner {
		return errors.Wrap(errors.ErrInput, "approval to the current owner")
	}
	t.Approved = approved
	return c.tokens.Put(db, TokenKey(collection, id), t)
}

// SetOperator grants or revokes the right to transfer all tokens of owner.
func (c BaseController) SetOperator(db realm.KVStore, collection string, owner, operator common.Address, approved bool) error {
	if owner == operator {
		return errors.Wrap(errors.ErrInput, "approve to caller")
	}
	if _, err := c.Collection(db, collection); err != nil {
		return err
	}
	key := OperatorKey(collection, owner, operator)
	if !approved {
		if err := c.operators.Delete(db, key); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	return c.operators.Put(db, key, &Operator{Approved: true})
}

func (c BaseController) addHolding(db realm.KVStore, collection string, owner common.Address, delta int) error {
	count, err := c.BalanceOf(db, collection, owner)
	if err != nil {
		return err
	}
	key := HoldingKey(collection, owner)
	switch {
	case delta < 0 && count == 0:
		return errors.Wrap(errors.ErrHuman, "holding underflow")
	case delta < 0 && count == 1:
		return c.holdings.Delete(db, key)
	case delta < 0:
		return c.holdings.Put(db, key, &Holding{Count: count - 1})
	default:
		return c.holdings.Put(db, key, &Holding{Count: count + 1})
	}
}
