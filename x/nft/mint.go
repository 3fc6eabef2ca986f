package nft

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/crypto/eip712"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x"
	"github.com/herorealm/realm/x/token"
)

// MintSchema is the typed message signed by the mint signer.
var MintSchema = eip712.MustParseSchema("SafeMintTokens(address minter,uint256[] tokenIds,uint256[] tokenPrices)")

// SigningDomain returns the domain mint authorizations of the collection
// must be signed under. The network id is taken from the context, the
// verifying contract is the collection contract.
func SigningDomain(ctx realm.Context, col *Collection) (eip712.Domain, error) {
	chainID, ok := realm.GetNetworkID(ctx)
	if !ok {
		return eip712.Domain{}, errors.Wrap(errors.ErrState, "network id not set")
	}
	return eip712.Domain{
		Name:              col.DomainName,
		Version:           col.DomainVersion,
		ChainID:           chainID,
		VerifyingContract: ContractAddress(col.Name),
	}, nil
}

// MintMessage returns the typed message authorizing minter to buy the
// listed tokens at the listed prices.
func MintMessage(minter common.Address, ids, prices []*big.Int) eip712.Message {
	return eip712.Message{
		"minter":      minter,
		"tokenIds":    ids,
		"tokenPrices": prices,
	}
}

type safeMintHandler struct {
	auth   x.Authenticator
	ctrl   BaseController
	tokens token.Controller
}

func (h *safeMintHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *safeMintHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	minter, col, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, p := range msg.TokenPrices {
		total.Add(total, p)
	}
	if total.Sign() > 0 {
		err := h.tokens.TransferFrom(db, col.PaymentToken, ContractAddress(col.Name), minter, col.Vault, total)
		if err != nil {
			return nil, errors.Wrap(err, "mint payment")
		}
	}

	events := make([]realm.Event, 0, len(msg.TokenIDs)+1)
	for _, id := range msg.TokenIDs {
		if err := h.ctrl.Mint(db, col.Name, minter, id); err != nil {
			return nil, err
		}
		events = append(events, transferEvent(col.Name, common.Address{}, minter, id))
	}
	events = append(events, realm.NewEvent("safe_mint",
		"collection", col.Name,
		"minter", minter.Hex(),
		"count", strconv.Itoa(len(msg.TokenIDs)),
		"total", total.String(),
	))
	return &realm.DeliverResult{Events: events}, nil
}

// validate verifies the authorization and that none of the tokens exists.
func (h *safeMintHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (common.Address, *Collection, *SafeMintTokensMsg, error) {
	var msg SafeMintTokensMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return common.Address{}, nil, nil, errors.Wrap(err, "load msg")
	}
	minter, err := signer(ctx, h.auth)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	col, err := h.ctrl.Collection(db, msg.Collection)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	if col.Paused {
		return common.Address{}, nil, nil, errors.Wrapf(errors.ErrPaused, "collection %q", col.Name)
	}
	if !col.signedMintEnabled() {
		return common.Address{}, nil, nil, errors.Wrapf(errors.ErrState, "signed minting of %q is not configured", col.Name)
	}

	domain, err := SigningDomain(ctx, col)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	message := MintMessage(minter, msg.TokenIDs, msg.TokenPrices)
	if err := eip712.Verify(domain, MintSchema, message, msg.Signature, col.MintSigner); err != nil {
		return common.Address{}, nil, nil, err
	}

	// Every id of an authorization is minted at once, so an existing id
	// means the authorization was already used.
	for _, id := range msg.TokenIDs {
		switch exists, err := h.ctrl.tokens.Has(db, TokenKey(col.Name, id)); {
		case err != nil:
			return common.Address{}, nil, nil, err
		case exists:
			return common.Address{}, nil, nil, errors.Wrapf(errors.ErrReplay, "token %s already minted", id)
		}
	}
	return minter, col, &msg, nil
}
