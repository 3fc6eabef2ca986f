package vault

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm/crypto/eip712"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/orm"
)

// TransferSchema is the typed message signed by the vault authority.
var TransferSchema = eip712.MustParseSchema("VaultTransfer(address recipient,uint256 amount,uint256 claimId)")

// Config is the vault configuration of a single token. It is stored under
// the token ticker.
type Config struct {
	Token string
	// Admin may change the configuration. Usually a multisig wallet.
	Admin common.Address
	// Vault is the account the claimed funds are taken from.
	Vault common.Address
	// Signer is the authority signing transfer authorizations.
	Signer        common.Address
	DomainName    string
	DomainVersion string
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.Wrap(errors.ErrEmpty, "token")
	}
	if c.Admin == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "admin")
	}
	if c.Vault == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "vault")
	}
	if c.Signer == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "signer")
	}
	if c.DomainName == "" {
		return errors.Wrap(errors.ErrEmpty, "domain name")
	}
	if c.DomainVersion == "" {
		return errors.Wrap(errors.ErrEmpty, "domain version")
	}
	return nil
}

// Claim counts the transfers accepted for a recipient. Next is the claim
// id the next authorization must carry.
type Claim struct {
	Next uint64
}

func (c *Claim) Validate() error {
	return nil
}

// ClaimKey returns the key of the claim record of recipient.
func ClaimKey(token string, recipient common.Address) []byte {
	return append([]byte(token+"/"), recipient.Bytes()...)
}

// NewConfigBucket returns a bucket of vault configurations.
func NewConfigBucket() orm.ModelBucket {
	return orm.NewModelBucket("vault", &Config{})
}

// ClaimBucket stores the claim ledger.
type ClaimBucket struct {
	orm.ModelBucket
}

// NewClaimBucket returns the claim ledger bucket.
func NewClaimBucket() ClaimBucket {
	return ClaimBucket{orm.NewModelBucket("claim", &Claim{})}
}

// Next returns the claim id expected from the recipient. It is zero for a
// recipient that never claimed.
func (b ClaimBucket) Next(db orm.ReadOnlyKVStore, token string, recipient common.Address) (uint64, error) {
	var c Claim
	switch err := b.One(db, ClaimKey(token, recipient), &c); {
	case err == nil:
		return c.Next, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}
