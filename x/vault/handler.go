package vault

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/crypto/eip712"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/orm"
	"github.com/herorealm/realm/x"
	"github.com/herorealm/realm/x/token"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r realm.Registry, auth x.Authenticator, tokens token.Controller) {
	configs := NewConfigBucket()
	r.Handle((&TransferFromVaultMsg{}).Path(), &transferHandler{
		auth:    auth,
		tokens:  tokens,
		configs: configs,
		claims:  NewClaimBucket(),
	})
	admin := &configHandler{auth: auth, configs: configs}
	r.Handle((&SetVaultMsg{}).Path(), admin)
	r.Handle((&SetVaultSignerMsg{}).Path(), admin)
	r.Handle((&SetVaultDomainMsg{}).Path(), admin)
}

// RegisterQuery exposes vault configurations and the claim ledger. Claim
// query data is ClaimKey(token, recipient).
func RegisterQuery(qr realm.QueryRouter) {
	NewConfigBucket().Register("/vault/configs", qr)

	claims := NewClaimBucket()
	qr.Register("/vault/claims", realm.QueryFunc(func(db realm.ReadOnlyKVStore, key []byte) (interface{}, error) {
		var c Claim
		switch err := claims.One(db, key, &c); {
		case err == nil, errors.ErrNotFound.Is(err):
			return &c, nil
		default:
			return nil, err
		}
	}))
}

// SigningDomain returns the domain transfer authorizations of the token
// must be signed under. The network id is taken from the context, the
// verifying contract is the token contract.
func SigningDomain(ctx realm.Context, conf *Config) (eip712.Domain, error) {
	chainID, ok := realm.GetNetworkID(ctx)
	if !ok {
		return eip712.Domain{}, errors.Wrap(errors.ErrState, "network id not set")
	}
	return eip712.Domain{
		Name:              conf.DomainName,
		Version:           conf.DomainVersion,
		ChainID:           chainID,
		VerifyingContract: token.ContractAddress(conf.Token),
	}, nil
}

// TransferMessage returns the typed message authorizing a transfer.
func TransferMessage(recipient common.Address, amount *big.Int, claimID uint64) eip712.Message {
	return eip712.Message{
		"recipient": recipient,
		"amount":    amount,
		"claimId":   claimID,
	}
}

type transferHandler struct {
	auth    x.Authenticator
	tokens  token.Controller
	configs orm.ModelBucket
	claims  ClaimBucket
}

func (h *transferHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *transferHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	recipient, conf, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	next, err := h.claims.Next(db, conf.Token, recipient)
	if err != nil {
		return nil, err
	}
	if err := h.tokens.Transfer(db, conf.Token, conf.Vault, recipient, msg.Amount); err != nil {
		return nil, errors.Wrap(err, "vault transfer")
	}
	if err := h.claims.Put(db, ClaimKey(conf.Token, recipient), &Claim{Next: next + 1}); err != nil {
		return nil, errors.Wrap(err, "advance claim")
	}
	return &realm.DeliverResult{
		Events: []realm.Event{realm.NewEvent("vault_transfer",
			"token", conf.Token,
			"recipient", recipient.Hex(),
			"amount", msg.Amount.String(),
			"claim_id", strconv.FormatUint(next, 10),
		)},
	}, nil
}

// validate checks that the signature authorizes the next claim of the
// signer.
func (h *transferHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (common.Address, *Config, *TransferFromVaultMsg, error) {
	var msg TransferFromVaultMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return common.Address{}, nil, nil, errors.Wrap(err, "load msg")
	}
	recipient, ok := x.MainSigner(ctx, h.auth)
	if !ok {
		return common.Address{}, nil, nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	var conf Config
	if err := h.configs.One(db, []byte(msg.Token), &conf); err != nil {
		return common.Address{}, nil, nil, errors.Wrapf(err, "vault of %q", msg.Token)
	}
	domain, err := SigningDomain(ctx, &conf)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	next, err := h.claims.Next(db, conf.Token, recipient)
	if err != nil {
		return common.Address{}, nil, nil, err
	}

	err = eip712.Verify(domain, TransferSchema, TransferMessage(recipient, msg.Amount, next), msg.Signature, conf.Signer)
	if err == nil {
		return recipient, &conf, &msg, nil
	}
	if !errors.ErrVerification.Is(err) {
		return common.Address{}, nil, nil, err
	}
	// A signature for a neighbouring claim id is a replay or a claim out
	// of order, not a forgery.
	if next > 0 && verifies(domain, conf.Signer, recipient, msg, next-1) {
		return common.Address{}, nil, nil, errors.Wrapf(errors.ErrReplay, "claim %d already used", next-1)
	}
	if verifies(domain, conf.Signer, recipient, msg, next+1) {
		return common.Address{}, nil, nil, errors.Wrapf(errors.ErrReplay, "claim %d presented, expected %d", next+1, next)
	}
	return common.Address{}, nil, nil, err
}

func verifies(domain eip712.Domain, signer, recipient common.Address, msg TransferFromVaultMsg, claimID uint64) bool {
	return eip712.Verify(domain, TransferSchema, TransferMessage(recipient, msg.Amount, claimID), msg.Signature, signer) == nil
}

// configHandler processes the governance messages. All of them require the
// signature of the vault admin.
type configHandler struct {
	auth    x.Authenticator
	configs orm.ModelBucket
}

func (h *configHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *configHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	conf, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	switch msg := msg.(type) {
	case *SetVaultMsg:
		conf.Vault = msg.Vault
	case *SetVaultSignerMsg:
		conf.Signer = msg.Signer
	case *SetVaultDomainMsg:
		conf.DomainName = msg.Name
		conf.DomainVersion = msg.Version
	}
	if err := h.configs.Put(db, []byte(conf.Token), conf); err != nil {
		return nil, errors.Wrap(err, "save config")
	}
	return &realm.DeliverResult{
		Events: []realm.Event{realm.NewEvent("vault_config_updated", "token", conf.Token, "action", msg.Path())},
	}, nil
}

func (h *configHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*Config, realm.Msg, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot get transaction message")
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid message")
	}
	var ticker string
	switch msg := msg.(type) {
	case *SetVaultMsg:
		ticker = msg.Token
	case *SetVaultSignerMsg:
		ticker = msg.Token
	case *SetVaultDomainMsg:
		ticker = msg.Token
	default:
		return nil, nil, errors.Wrapf(errors.ErrType, "unexpected message %T", msg)
	}

	var conf Config
	if err := h.configs.One(db, []byte(ticker), &conf); err != nil {
		return nil, nil, errors.Wrapf(err, "vault of %q", ticker)
	}
	if !h.auth.HasAddress(ctx, conf.Admin) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "admin signature missing")
	}
	return &conf, msg, nil
}
