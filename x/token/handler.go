package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r realm.Registry, auth x.Authenticator, ctrl BaseController) {
	r.Handle((&TransferMsg{}).Path(), &transferHandler{auth: auth, ctrl: ctrl})
	r.Handle((&TransferFromMsg{}).Path(), &transferFromHandler{auth: auth, ctrl: ctrl})
	r.Handle((&ApproveMsg{}).Path(), &approveHandler{auth: auth, ctrl: ctrl})
	r.Handle((&MintMsg{}).Path(), &mintHandler{auth: auth, ctrl: ctrl})
	r.Handle((&BurnMsg{}).Path(), &burnHandler{auth: auth, ctrl: ctrl})

	admin := &adminHandler{auth: auth, ctrl: ctrl}
	r.Handle((&AddControllerMsg{}).Path(), admin)
	r.Handle((&RemoveControllerMsg{}).Path(), admin)
	r.Handle((&PauseMsg{}).Path(), admin)
	r.Handle((&SetAdminMsg{}).Path(), admin)
}

// RegisterQuery exposes token definitions, balances and allowances.
func RegisterQuery(qr realm.QueryRouter) {
	NewTokenBucket().Register("/tokens", qr)
	NewBalanceBucket().Register("/tokens/balances", qr)
	NewAllowanceBucket().Register("/tokens/allowances", qr)
}

func signer(ctx realm.Context, auth x.Authenticator) (common.Address, error) {
	addr, ok := x.MainSigner(ctx, auth)
	if !ok {
		return common.Address{}, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return addr, nil
}

func transferEvent(ticker string, from, to common.Address, amount *big.Int) realm.Event {
	return realm.NewEvent("transfer",
		"ticker", ticker,
		"from", from.Hex(),
		"to", to.Hex(),
		"amount", amount.String(),
	)
}

type transferHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h *transferHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *transferHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	from, msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Transfer(db, msg.Ticker, from, msg.To, msg.Amount); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{transferEvent(msg.Ticker, from, msg.To, msg.Amount)},
	}, nil
}

func (h *transferHandler) validate(ctx realm.Context, tx realm.Tx) (common.Address, *TransferMsg, error) {
	var msg TransferMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return common.Address{}, nil, errors.Wrap(err, "load msg")
	}
	from, err := signer(ctx, h.auth)
	if err != nil {
		return common.Address{}, nil, err
	}
	return from, &msg, nil
}

type transferFromHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h *transferFromHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *transferFromHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	spender, msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.TransferFrom(db, msg.Ticker, spender, msg.From, msg.To, msg.Amount); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{transferEvent(msg.Ticker, msg.From, msg.To, msg.Amount)},
	}, nil
}

func (h *transferFromHandler) validate(ctx realm.Context, tx realm.Tx) (common.Address, *TransferFromMsg, error) {
	var msg TransferFromMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return common.Address{}, nil, errors.Wrap(err, "load msg")
	}
	spender, err := signer(ctx, h.auth)
	if err != nil {
		return common.Address{}, nil, err
	}
	return spender, &msg, nil
}

type approveHandler struct {
	auth x.Authenticator
	ctrl Controller
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
	if err := h.ctrl.Approve(db, msg.Ticker, owner, msg.Spender, msg.Amount); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{realm.NewEvent("approval",
			"ticker", msg.Ticker,
			"owner", owner.Hex(),
			"spender", msg.Spender.Hex(),
			"amount", msg.Amount.String(),
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

type mintHandler struct {
	auth x.Authenticator
	ctrl Controller
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
	if err := h.ctrl.Mint(db, msg.Ticker, msg.To, msg.Amount); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{transferEvent(msg.Ticker, common.Address{}, msg.To, msg.Amount)},
	}, nil
}

func (h *mintHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*MintMsg, error) {
	var msg MintMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	t, err := h.ctrl.Token(db, msg.Ticker)
	if err != nil {
		return nil, err
	}
	for _, c := range t.Controllers {
		if h.auth.HasAddress(ctx, c) {
			return &msg, nil
		}
	}
	return nil, errors.Wrap(errors.ErrUnauthorized, "controller signature missing")
}

type burnHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h *burnHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *burnHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	holder, msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Burn(db, msg.Ticker, holder, msg.Amount); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{transferEvent(msg.Ticker, holder, common.Address{}, msg.Amount)},
	}, nil
}

func (h *burnHandler) validate(ctx realm.Context, tx realm.Tx) (common.Address, *BurnMsg, error) {
	var msg BurnMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return common.Address{}, nil, errors.Wrap(err, "load msg")
	}
	holder, err := signer(ctx, h.auth)
	if err != nil {
		return common.Address{}, nil, err
	}
	return holder, &msg, nil
}

// adminHandler processes all messages that modify a token definition. All
// of them require the signature of the token admin.
type adminHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

func (h *adminHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *adminHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	t, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	switch msg := msg.(type) {
	case *AddControllerMsg:
		if t.IsController(msg.Controller) {
			return nil, errors.Wrapf(errors.ErrDuplicate, "controller %s", msg.Controller.Hex())
		}
		t.Controllers = append(t.Controllers, msg.Controller)
	case *RemoveControllerMsg:
		if !t.IsController(msg.Controller) {
			return nil, errors.Wrapf(errors.ErrNotFound, "controller %s", msg.Controller.Hex())
		}
		kept := t.Controllers[:0]
		for _, c := range t.Controllers {
			if c != msg.Controller {
				kept = append(kept, c)
			}
		}
		t.Controllers = kept
	case *PauseMsg:
		if t.Paused == msg.Paused {
			return nil, errors.Wrapf(errors.ErrState, "paused is already %v", t.Paused)
		}
		t.Paused = msg.Paused
	case *SetAdminMsg:
		t.Admin = msg.Admin
	default:
		return nil, errors.Wrapf(errors.ErrHuman, "unexpected message %T", msg)
	}

	if err := h.ctrl.tokens.Put(db, []byte(t.Ticker), t); err != nil {
		return nil, errors.Wrap(err, "save token")
	}
	return &realm.DeliverResult{
		Events: []realm.Event{realm.NewEvent("token_updated", "ticker", t.Ticker, "action", msg.Path())},
	}, nil
}

func (h *adminHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*Token, realm.Msg, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot get transaction message")
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid message")
	}

	var ticker string
	switch msg := msg.(type) {
	case *AddControllerMsg:
		ticker = msg.Ticker
	case *RemoveControllerMsg:
		ticker = msg.Ticker
	case *PauseMsg:
		ticker = msg.Ticker
	case *SetAdminMsg:
		ticker = msg.Ticker
	default:
		return nil, nil, errors.Wrapf(errors.ErrType, "unexpected message %T", msg)
	}

	t, err := h.ctrl.Token(db, ticker)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, t.Admin) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "admin signature missing")
	}
	return t, msg, nil
}
