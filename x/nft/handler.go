package nft

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x"
	"github.com/herorealm/realm/x/token"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r realm.Registry, auth x.Authenticator, ctrl BaseController, tokens token.Controller) {
	r.Handle((&MintMsg{}).Path(), &mintHandler{auth: auth, ctrl: ctrl})
	r.Handle((&SafeMintTokensMsg{}).Path(), &safeMintHandler{auth: auth, ctrl: ctrl, tokens: tokens})
	r.Handle((&TransferMsg{}).Path(), &transferHandler{auth: auth, ctrl: ctrl})
	r.Handle((&ApproveMsg{}).Path(), &approveHandler{auth: auth, ctrl: ctrl})
	r.Handle((&SetApprovalForAllMsg{}).Path(), &operatorHandler{auth: auth, ctrl: ctrl})

	admin := &adminHandler{auth: auth, ctrl: ctrl}
	r.Handle((&SetBaseURIMsg{}).Path(), admin)
	r.Handle((&SetMintSignerMsg{}).Path(), admin)
	r.Handle((&SetVaultMsg{}).Path(), admin)
	r.Handle((&SetDomainMsg{}).Path(), admin)
	r.Handle((&PauseMsg{}).Path(), admin)
	r.Handle((&AddControllerMsg{}).Path(), admin)
	r.Handle((&RemoveControllerMsg{}).Path(), admin)
}

// RegisterQuery exposes collections, tokens and token URIs. Token queries
// take TokenKey(collection, id) as data.
func RegisterQuery(qr realm.QueryRouter) {
	NewCollectionBucket().Register("/nft/collections", qr)
	NewTokenBucket().Register("/nft/tokens", qr)
	NewHoldingBucket().Register("/nft/holdings", qr)

	ctrl := NewController()
	qr.Register("/nft/token_uri", realm.QueryFunc(func(db realm.ReadOnlyKVStore, key []byte) (interface{}, error) {
		if len(key) < 33 {
			return nil, errors.Wrap(errors.ErrInput, "token key")
		}
		collection := string(key[:len(key)-33])
		id := new(big.Int).SetBytes(key[len(key)-32:])
		return ctrl.TokenURI(db, collection, id)
	}))
}

// TokenURI returns the metadata URI of a minted token: the base URI of the
// collection followed by the decimal id.
func (c BaseController) TokenURI(db realm.ReadOnlyKVStore, collection string, id *big.Int) (string, error) {
	col, err := c.Collection(db, collection)
	if err != nil {
		return "", err
	}
	if _, err := c.token(db, collection, id); err != nil {
		return "", err
	}
	if col.BaseURI == "" {
		return "", nil
	}
	return col.BaseURI + id.String(), nil
}

func signer(ctx realm.Context, auth x.Authenticator) (common.Address, error) {
	addr, ok := x.MainSigner(ctx, auth)
	if !ok {
		return common.Address{}, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return addr, nil
}

func transferEvent(collection string, from, to common.Address, id *big.Int) realm.Event {
	return realm.NewEvent("nft_transfer",
		"collection", collection,
		"from", from.Hex(),
		"to", to.Hex(),
		"id", id.String(),
	)
}

type mintHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

func (h *mintHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *mintHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Mint(db, msg.Collection, msg.To, msg.ID); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{transferEvent(msg.Collection, common.Address{}, msg.To, msg.ID)},
	}, nil
}

func (h *mintHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*MintMsg, error) {
	var msg MintMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	col, err := h.ctrl.Collection(db, msg.Collection)
	if err != nil {
		return nil, err
	}
	for _, c := range col.Controllers {
		if h.auth.HasAddress(ctx, c) {
			return &msg, nil
		}
	}
	return nil, errors.Wrap(errors.ErrUnauthorized, "controller signature missing")
}

type transferHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

func (h *transferHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *transferHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	spender, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Transfer(db, msg.Collection, spender, msg.From, msg.To, msg.ID); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{transferEvent(msg.Collection, msg.From, msg.To, msg.ID)},
	}, nil
}

func (h *transferHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (common.Address, *TransferMsg, error) {
	var msg TransferMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return common.Address{}, nil, errors.Wrap(err, "load msg")
	}
	spender, err := signer(ctx, h.auth)
	if err != nil {
		return common.Address{}, nil, err
	}
	switch ok, err := h.ctrl.CanTransfer(db, msg.Collection, spender, msg.ID); {
	case err != nil:
		return common.Address{}, nil, err
	case !ok:
		return common.Address{}, nil, errors.Wrap(errors.ErrUnauthorized, "not the owner nor approved")
	}
	return spender, &msg, nil
}

type approveHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

func (h *approveHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *approveHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	owner, msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Approve(db, msg.Collection, owner, msg.Approved, msg.ID); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{realm.NewEvent("nft_approval",
			"collection", msg.Collection,
			"approved", msg.Approved.Hex(),
			"id", msg.ID.String(),
		)},
	}, nil
}

func (h *approveHandler) validate(ctx realm.Context, tx realm.Tx) (common.Address, *ApproveMsg, error) {
	var msg ApproveMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return common.Address{}, nil, errors.Wrap(err, "load msg")
	}
	owner, err := signer(ctx, h.auth)
	if err != nil {
		return common.Address{}, nil, err
	}
	return owner, &msg, nil
}

type operatorHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

func (h *operatorHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *operatorHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	owner, msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.SetOperator(db, msg.Collection, owner, msg.Operator, msg.Approved); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{}, nil
}

func (h *operatorHandler) validate(ctx realm.Context, tx realm.Tx) (common.Address, *SetApprovalForAllMsg, error) {
	var msg SetApprovalForAllMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return common.Address{}, nil, errors.Wrap(err, "load msg")
	}
	owner, err := signer(ctx, h.auth)
	if err != nil {
		return common.Address{}, nil, err
	}
	return owner, &msg, nil
}
