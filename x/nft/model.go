package nft

import (
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/orm"
)

// Collection kinds.
const (
	KindHero      = "hero"
	KindArchitect = "architect"
	KindGeneral   = "general"
)

var isCollectionName = regexp.MustCompile(`^[a-z][a-z0-9_]{2,31}$`).MatchString

const maxControllers = 32

// maxTokenID is the largest id that fits in uint256.
var maxTokenID = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Collection is the definition of a non fungible token contract.
type Collection struct {
	Name        string
	Symbol      string
	Kind        string
	BaseURI     string
	Admin       common.Address
	Controllers []common.Address
	Paused      bool
	// MintSigner authorizes signature based minting. Signature based
	// minting is disabled while it is not set.
	MintSigner common.Address
	// Vault receives the payments of signature based minting.
	Vault common.Address
	// PaymentToken is the ticker of the token minting is paid in.
	PaymentToken  string
	DomainName    string
	DomainVersion string
}

func (c *Collection) Validate() error {
	if !isCollectionName(c.Name) {
		return errors.Wrapf(errors.ErrInput, "invalid collection name %q", c.Name)
	}
	if c.Symbol == "" {
		return errors.Wrap(errors.ErrEmpty, "symbol")
	}
	switch c.Kind {
	case KindHero, KindArchitect, KindGeneral:
	default:
		return errors.Wrapf(errors.ErrInput, "unknown kind %q", c.Kind)
	}
	if c.Admin == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "admin")
	}
	if len(c.Controllers) > maxControllers {
		return errors.Wrap(errors.ErrState, "too many controllers")
	}
	seen := make(map[common.Address]struct{}, len(c.Controllers))
	for _, a := range c.Controllers {
		if _, ok := seen[a]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "controller %s", a.Hex())
		}
		seen[a] = struct{}{}
	}
	return nil
}

// IsController returns true if the address may mint tokens.
func (c *Collection) IsController(addr common.Address) bool {
	for _, a := range c.Controllers {
		if a == addr {
			return true
		}
	}
	return false
}

func (c *Collection) signedMintEnabled() bool {
	return c.MintSigner != (common.Address{}) &&
		c.Vault != (common.Address{}) &&
		c.PaymentToken != "" &&
		c.DomainName != "" &&
		c.DomainVersion != ""
}

// ContractAddress returns the account address of the collection contract.
// It is the verifying contract of mint authorizations and the spender of
// mint payments.
func ContractAddress(collection string) common.Address {
	return realm.NewCondition("nft", "collection", []byte(collection)).Address()
}

// Token is a single minted token.
type Token struct {
	Owner common.Address
	// Approved may transfer this token. Cleared on every transfer.
	Approved common.Address
}

func (t *Token) Validate() error {
	if t.Owner == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "owner")
	}
	return nil
}

// Holding counts the tokens of a collection owned by an account.
type Holding struct {
	Count uint64
}

func (h *Holding) Validate() error {
	return nil
}

// Operator marks an account allowed to transfer all tokens of an owner.
type Operator struct {
	Approved bool
}

func (o *Operator) Validate() error {
	return nil
}

// TokenKey returns the key under which a token is stored. Ids are encoded
// as 32 bytes big endian, so that keys sort by id.
func TokenKey(collection string, id *big.Int) []byte {
	return append([]byte(collection+"/"), common.BigToHash(id).Bytes()...)
}

// HoldingKey returns the key of the holding of owner.
func HoldingKey(collection string, owner common.Address) []byte {
	return append([]byte(collection+"/"), owner.Bytes()...)
}

// OperatorKey returns the key of the operator approval.
func OperatorKey(collection string, owner, operator common.Address) []byte {
	key := append([]byte(collection+"/"), owner.Bytes()...)
	return append(key, operator.Bytes()...)
}

func validateTokenID(id *big.Int) error {
	if id == nil || id.Sign() < 0 || id.Cmp(maxTokenID) > 0 {
		return errors.Wrap(errors.ErrInput, "token id out of range")
	}
	return nil
}

// NewCollectionBucket returns a bucket of collection definitions.
func NewCollectionBucket() orm.ModelBucket {
	return orm.NewModelBucket("collection", &Collection{})
}

// NewTokenBucket returns a bucket of minted tokens.
func NewTokenBucket() orm.ModelBucket {
	return orm.NewModelBucket("nft", &Token{})
}

// NewHoldingBucket returns a bucket of per owner token counts.
func NewHoldingBucket() orm.ModelBucket {
	return orm.NewModelBucket("holding", &Holding{})
}

// NewOperatorBucket returns a bucket of operator approvals.
func NewOperatorBucket() orm.ModelBucket {
	return orm.NewModelBucket("operator", &Operator{})
}
