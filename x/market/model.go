package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/orm"
)

// maxBps is one hundred percent in basis points.
const maxBps = 10000

// Address returns the account of the market. It holds the payments until
// they are withdrawn and is the operator transferring sold tokens.
func Address() common.Address {
	return realm.NewCondition("market", "escrow", []byte("main")).Address()
}

// Configuration is the market wide configuration.
type Configuration struct {
	// Owner may change the configuration, force cancel listings and set
	// royalties.
	Owner        common.Address `json:"owner"`
	PaymentToken string         `json:"payment_token"`
}

func (c *Configuration) Validate() error {
	if c.Owner == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "owner")
	}
	if c.PaymentToken == "" {
		return errors.Wrap(errors.ErrEmpty, "payment token")
	}
	return nil
}

func (c *Configuration) GetOwner() common.Address {
	return c.Owner
}

// Listing is a token offered for sale. It is stored under the token key of
// the collection.
type Listing struct {
	Seller common.Address
	Price  *big.Int
}

func (l *Listing) Validate() error {
	if l.Seller == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "seller")
	}
	if l.Price == nil || l.Price.Sign() <= 0 {
		return errors.Wrap(errors.ErrAmount, "price must be positive")
	}
	return nil
}

// Royalty is the share of every sale of a collection paid to the
// recipient.
type Royalty struct {
	Recipient common.Address
	Bps       uint32
}

func (r *Royalty) Validate() error {
	if r.Recipient == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "recipient")
	}
	if r.Bps > maxBps {
		return errors.Wrapf(errors.ErrInput, "royalty of %d bps", r.Bps)
	}
	return nil
}

// Share returns the royalty part of the price, rounded down.
func (r *Royalty) Share(price *big.Int) *big.Int {
	share := new(big.Int).Mul(price, big.NewInt(int64(r.Bps)))
	return share.Div(share, big.NewInt(maxBps))
}

// Proceeds is the amount an account can withdraw from the market.
type Proceeds struct {
	Amount *big.Int
}

func (p *Proceeds) Validate() error {
	if p.Amount == nil || p.Amount.Sign() < 0 {
		return errors.Wrap(errors.ErrAmount, "proceeds")
	}
	return nil
}

// NewListingBucket returns a bucket of active listings.
func NewListingBucket() orm.ModelBucket {
	return orm.NewModelBucket("listing", &Listing{})
}

// NewRoyaltyBucket returns a bucket of royalties by collection name.
func NewRoyaltyBucket() orm.ModelBucket {
	return orm.NewModelBucket("royalty", &Royalty{})
}

// ProceedsBucket stores proceeds by account address.
type ProceedsBucket struct {
	orm.ModelBucket
}

// NewProceedsBucket returns a bucket of proceeds.
func NewProceedsBucket() ProceedsBucket {
	return ProceedsBucket{orm.NewModelBucket("proceeds", &Proceeds{})}
}

// Balance returns the proceeds of the account, zero if none.
func (b ProceedsBucket) Balance(db realm.ReadOnlyKVStore, account common.Address) (*big.Int, error) {
	var p Proceeds
	switch err := b.One(db, account.Bytes(), &p); {
	case err == nil:
		return p.Amount, nil
	case errors.ErrNotFound.Is(err):
		return new(big.Int), nil
	default:
		return nil, err
	}
}

// Credit adds amount to the proceeds of the account.
func (b ProceedsBucket) Credit(db realm.KVStore, account common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	cur, err := b.Balance(db, account)
	if err != nil {
		return err
	}
	return b.Put(db, account.Bytes(), &Proceeds{Amount: new(big.Int).Add(cur, amount)})
}
