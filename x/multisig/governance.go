package multisig

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x"
	"github.com/herorealm/realm/x/token"
)

// governanceHandler processes the messages a wallet sends to itself. They
// are only accepted when the wallet address is authenticated, which only
// happens while the engine executes a confirmed transaction.
type governanceHandler struct {
	auth    x.Authenticator
	wallets WalletBucket
	tokens  token.Controller
}

var _ realm.Handler = (*governanceHandler)(nil)

func (h *governanceHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, err := h.apply(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *governanceHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	ev, err := h.apply(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return &realm.DeliverResult{Events: []realm.Event{ev}}, nil
}

// walletMsg is implemented by every message a wallet sends to itself.
type walletMsg interface {
	realm.Msg
	wallet() uint64
}

func (m *AddOwnerMsg) wallet() uint64          { return m.WalletID }
func (m *RemoveOwnerMsg) wallet() uint64       { return m.WalletID }
func (m *ReplaceOwnerMsg) wallet() uint64      { return m.WalletID }
func (m *ChangeRequirementMsg) wallet() uint64 { return m.WalletID }
func (m *WithdrawMsg) wallet() uint64          { return m.WalletID }
func (m *WithdrawTokenMsg) wallet() uint64     { return m.WalletID }

func (h *governanceHandler) apply(ctx realm.Context, db realm.KVStore, tx realm.Tx) (realm.Event, error) {
	raw, err := tx.GetMsg()
	if err != nil {
		return realm.Event{}, errors.Wrap(err, "cannot get transaction message")
	}
	msg, ok := raw.(walletMsg)
	if !ok {
		return realm.Event{}, errors.Wrapf(errors.ErrType, "unexpected message %T", raw)
	}
	if err := msg.Validate(); err != nil {
		return realm.Event{}, errors.Wrap(err, "invalid message")
	}
	walletID := msg.wallet()
	addr := WalletAddress(walletID)
	if !h.auth.HasAddress(ctx, addr) {
		return realm.Event{}, errors.Wrap(errors.ErrUnauthorized, "only the wallet itself may govern the wallet")
	}
	w, err := h.wallets.GetWallet(db, walletID)
	if err != nil {
		return realm.Event{}, err
	}

	switch msg := msg.(type) {
	case *AddOwnerMsg:
		if w.IsOwner(msg.Owner) {
			return realm.Event{}, errors.Wrapf(errors.ErrDuplicate, "owner %s", msg.Owner.Hex())
		}
		w.Owners = append(w.Owners, msg.Owner)
	case *RemoveOwnerMsg:
		i := w.ownerIndex(msg.Owner)
		if i < 0 {
			return realm.Event{}, errors.Wrapf(errors.ErrNotFound, "owner %s", msg.Owner.Hex())
		}
		w.Owners = append(w.Owners[:i], w.Owners[i+1:]...)
		if int(w.Required) > len(w.Owners) {
			w.Required = uint32(len(w.Owners))
		}
	case *ReplaceOwnerMsg:
		i := w.ownerIndex(msg.Owner)
		if i < 0 {
			return realm.Event{}, errors.Wrapf(errors.ErrNotFound, "owner %s", msg.Owner.Hex())
		}
		if w.IsOwner(msg.NewOwner) {
			return realm.Event{}, errors.Wrapf(errors.ErrDuplicate, "owner %s", msg.NewOwner.Hex())
		}
		w.Owners[i] = msg.NewOwner
	case *ChangeRequirementMsg:
		w.Required = msg.Required
	case *WithdrawMsg:
		conf, err := loadConfig(db)
		if err != nil {
			return realm.Event{}, err
		}
		return h.withdraw(db, walletID, conf.NativeToken, msg.To, msg.Amount)
	case *WithdrawTokenMsg:
		return h.withdraw(db, walletID, msg.Ticker, msg.To, msg.Amount)
	}

	if err := w.Validate(); err != nil {
		return realm.Event{}, errors.Wrap(errors.ErrState, err.Error())
	}
	if err := w.checkOwnedBy(walletID); err != nil {
		return realm.Event{}, err
	}
	if err := h.wallets.Save(db, walletID, w); err != nil {
		return realm.Event{}, err
	}
	return realm.NewEvent("wallet_updated",
		"wallet", formatID(walletID),
		"owners", formatID(uint64(len(w.Owners))),
		"required", formatID(uint64(w.Required)),
	), nil
}

func (h *governanceHandler) withdraw(db realm.KVStore, walletID uint64, ticker string, to common.Address, amount *big.Int) (realm.Event, error) {
	if err := h.tokens.Transfer(db, ticker, WalletAddress(walletID), to, amount); err != nil {
		return realm.Event{}, errors.Wrap(err, "withdraw")
	}
	return realm.NewEvent("wallet_withdrawal",
		"wallet", formatID(walletID),
		"ticker", ticker,
		"to", to.Hex(),
		"amount", amount.String(),
	), nil
}
