package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

const optKey = "token"

// GenesisToken is used to parse the json from genesis file. Amounts are
// decimal or 0x prefixed hex strings.
type GenesisToken struct {
	Ticker      string           `json:"ticker"`
	Name        string           `json:"name"`
	Decimals    uint8            `json:"decimals"`
	Admin       common.Address   `json:"admin"`
	Controllers []common.Address `json:"controllers"`
	Balances    []GenesisBalance `json:"balances"`
}

// GenesisBalance is an initial holding of a token.
type GenesisBalance struct {
	Address common.Address        `json:"address"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ realm.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial token info from genesis and save it to
// the database.
func (*Initializer) FromGenesis(opts realm.Options, db realm.KVStore) error {
	var tokens []GenesisToken
	if err := opts.ReadOptions(optKey, &tokens); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	ctrl := NewController()
	for _, gt := range tokens {
		if ok, err := ctrl.tokens.Has(db, []byte(gt.Ticker)); err != nil {
			return err
		} else if ok {
			return errors.Wrapf(errors.ErrDuplicate, "token %q", gt.Ticker)
		}
		t := Token{
			Ticker:      gt.Ticker,
			Name:        gt.Name,
			Decimals:    gt.Decimals,
			Admin:       gt.Admin,
			Controllers: gt.Controllers,
			Supply:      new(big.Int),
		}
		if err := ctrl.tokens.Put(db, []byte(t.Ticker), &t); err != nil {
			return errors.Wrapf(err, "token %q", gt.Ticker)
		}
		for _, b := range gt.Balances {
			if b.Amount == nil {
				return errors.Wrapf(errors.ErrAmount, "token %q: missing amount", gt.Ticker)
			}
			amount := (*big.Int)(b.Amount)
			if amount.Sign() == 0 {
				continue
			}
			if err := ctrl.Mint(db, gt.Ticker, b.Address, amount); err != nil {
				return errors.Wrapf(err, "token %q: balance of %s", gt.Ticker, b.Address.Hex())
			}
		}
	}
	return nil
}
