package multisig

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/gconf"
	"github.com/herorealm/realm/orm"
	"github.com/herorealm/realm/store"
	"github.com/herorealm/realm/x"
	"github.com/herorealm/realm/x/token"
)

const confPkg = "multisig"

// RegisterRoutes will instantiate and register all handlers in this
// package. Transactions executed by a wallet are delivered through
// dispatcher, usually the application router itself.
func RegisterRoutes(r realm.Registry, auth x.Authenticator, dispatcher realm.Handler, tokens token.Controller) {
	wallets := NewWalletBucket()
	e := &engine{
		auth:       auth,
		wallets:    wallets,
		txs:        NewTransactionBucket(),
		dispatcher: dispatcher,
		tokens:     tokens,
	}
	r.Handle((&CreateWalletMsg{}).Path(), &createWalletHandler{auth: auth, wallets: wallets})
	r.Handle((&SubmitTransactionMsg{}).Path(), &submitHandler{e})
	r.Handle((&ConfirmTransactionMsg{}).Path(), &confirmHandler{e})
	r.Handle((&RevokeConfirmationMsg{}).Path(), &revokeHandler{e})

	g := &governanceHandler{auth: auth, wallets: wallets, tokens: tokens}
	r.Handle((&AddOwnerMsg{}).Path(), g)
	r.Handle((&RemoveOwnerMsg{}).Path(), g)
	r.Handle((&ReplaceOwnerMsg{}).Path(), g)
	r.Handle((&ChangeRequirementMsg{}).Path(), g)
	r.Handle((&WithdrawMsg{}).Path(), g)
	r.Handle((&WithdrawTokenMsg{}).Path(), g)
	r.Handle((&UpdateConfigurationMsg{}).Path(), gconf.NewUpdateConfigurationHandler(confPkg, &Configuration{}, auth))
}

func loadConfig(db realm.ReadOnlyKVStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, confPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "multisig configuration")
	}
	return &conf, nil
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

type createWalletHandler struct {
	auth    x.Authenticator
	wallets WalletBucket
}

var _ realm.Handler = (*createWalletHandler)(nil)

func (h *createWalletHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *createWalletHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	id, err := h.wallets.Create(db, &Wallet{Owners: msg.Owners, Required: msg.Required})
	if err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Data: orm.EncodeSequence(id),
		Events: []realm.Event{realm.NewEvent("wallet_created",
			"wallet", formatID(id),
			"address", WalletAddress(id).Hex(),
		)},
	}, nil
}

func (h *createWalletHandler) validate(ctx realm.Context, db realm.ReadOnlyKVStore, tx realm.Tx) (*CreateWalletMsg, error) {
	var msg CreateWalletMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, ok := x.MainSigner(ctx, h.auth); !ok {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	latest, err := h.wallets.seq.Latest(db)
	if err != nil {
		return nil, errors.Wrap(err, "wallet sequence")
	}
	w := Wallet{Owners: msg.Owners, Required: msg.Required}
	if err := w.checkOwnedBy(latest + 1); err != nil {
		return nil, err
	}
	return &msg, nil
}

// engine holds the transaction store and runs transactions that reached
// their requirement.
type engine struct {
	auth       x.Authenticator
	wallets    WalletBucket
	txs        TransactionBucket
	dispatcher realm.Handler
	tokens     token.Controller
}

// owner returns the main signer if it is an owner of the wallet.
func (e *engine) owner(ctx realm.Context, db realm.ReadOnlyKVStore, walletID uint64) (common.Address, *Wallet, error) {
	w, err := e.wallets.GetWallet(db, walletID)
	if err != nil {
		return common.Address{}, nil, err
	}
	signer, ok := x.MainSigner(ctx, e.auth)
	if !ok {
		return common.Address{}, nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	if !w.IsOwner(signer) {
		return common.Address{}, nil, errors.Wrapf(errors.ErrUnauthorized, "%s is not an owner", signer.Hex())
	}
	return signer, w, nil
}

// pending loads a transaction that was not executed yet.
func (e *engine) pending(db realm.ReadOnlyKVStore, walletID, txID uint64) (*Transaction, error) {
	t, err := e.txs.GetTransaction(db, walletID, txID)
	if err != nil {
		return nil, err
	}
	if t.Executed {
		return nil, errors.Wrapf(errors.ErrState, "transaction %d already executed", txID)
	}
	return t, nil
}

// execute runs the transaction if the confirmations of current owners
// reach the requirement. The run happens in its own cache wrap, in which
// the transaction is already stored as executed, so a payload reaching
// back into the same transaction finds it closed. When the run fails
// everything it wrote is dropped, the transaction stays pending and the
// failure is reported as an event only.
func (e *engine) execute(ctx realm.Context, db realm.KVStore, walletID, txID uint64, w *Wallet, t *Transaction) ([]realm.Event, error) {
	if t.Executed || uint32(len(t.ConfirmedBy(w))) < w.Required {
		return nil, nil
	}

	cache := cacheWrap(db)
	t.Executed = true
	err := e.txs.Save(cache, walletID, txID, t)
	var events []realm.Event
	if err == nil {
		events, err = e.run(ctx, cache, walletID, t)
	}
	if err != nil {
		cache.Discard()
		t.Executed = false
		executionFailures.Inc()
		realm.GetLogger(ctx).Info("multisig execution failed",
			"wallet", walletID, "tx", txID, "err", err.Error())
		return []realm.Event{realm.NewEvent("multisig_execution_failed",
			"wallet", formatID(walletID),
			"tx", formatID(txID),
			"error", err.Error(),
		)}, nil
	}
	if err := cache.Write(); err != nil {
		t.Executed = false
		return nil, errors.Wrap(err, "write execution")
	}
	executions.Inc()
	ev := realm.NewEvent("multisig_execution", "wallet", formatID(walletID), "tx", formatID(txID))
	return append([]realm.Event{ev}, events...), nil
}

func (e *engine) run(ctx realm.Context, db realm.KVStore, walletID uint64, t *Transaction) (events []realm.Event, err error) {
	defer errors.Recover(&err)

	wallet := WalletAddress(walletID)
	if t.Value.Sign() > 0 {
		if err := e.tokens.Transfer(db, t.Ticker, wallet, t.Target, t.Value); err != nil {
			return nil, errors.Wrap(err, "value transfer")
		}
	}
	if len(t.Payload) == 0 {
		return nil, nil
	}
	msg, err := realm.DecodeMsg(t.Payload)
	if err != nil {
		return nil, errors.Wrap(err, "payload")
	}
	res, err := e.dispatcher.Deliver(x.WithCallFrame(ctx, wallet), db, walletTx{msg: msg})
	if err != nil {
		return nil, err
	}
	return res.Events, nil
}

// walletTx carries a message sent by a wallet.
type walletTx struct {
	msg realm.Msg
}

func (tx walletTx) GetMsg() (realm.Msg, error) {
	return tx.msg, nil
}

func cacheWrap(db realm.KVStore) realm.KVCacheWrap {
	if c, ok := db.(realm.CacheableKVStore); ok {
		return c.CacheWrap()
	}
	return store.NewBTreeCacheWrap(db, db, nil)
}

func confirmationEvent(typ string, walletID, txID uint64, owner common.Address) realm.Event {
	return realm.NewEvent(typ,
		"wallet", formatID(walletID),
		"tx", formatID(txID),
		"owner", owner.Hex(),
	)
}

type submitHandler struct {
	*engine
}

func (h *submitHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *submitHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	msg, signer, w, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t := &Transaction{
		Target:        msg.Target,
		Value:         msg.Value,
		Payload:       msg.Payload,
		Confirmations: []common.Address{signer},
	}
	if t.Value == nil {
		t.Value = new(big.Int)
	}
	if err := pinNativeToken(db, t); err != nil {
		return nil, err
	}
	txID, err := h.txs.Create(db, msg.WalletID, t)
	if err != nil {
		return nil, err
	}
	events := []realm.Event{
		realm.NewEvent("multisig_submission", "wallet", formatID(msg.WalletID), "tx", formatID(txID)),
		confirmationEvent("multisig_confirmation", msg.WalletID, txID, signer),
	}
	executed, err := h.execute(ctx, db, msg.WalletID, txID, w, t)
	if err != nil {
		return nil, err
	}
	if t.Executed {
		if err := h.txs.Save(db, msg.WalletID, txID, t); err != nil {
			return nil, err
		}
	}
	return &realm.DeliverResult{
		Data:   orm.EncodeSequence(txID),
		Events: append(events, executed...),
	}, nil
}

func (h *submitHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*SubmitTransactionMsg, common.Address, *Wallet, error) {
	var msg SubmitTransactionMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return nil, common.Address{}, nil, errors.Wrap(err, "load msg")
	}
	signer, w, err := h.owner(ctx, db, msg.WalletID)
	if err != nil {
		return nil, common.Address{}, nil, err
	}
	return &msg, signer, w, nil
}

// pinNativeToken resolves the native token of the configuration into the
// transaction, for its value and for a WithdrawMsg payload, which is
// rewritten into a WithdrawTokenMsg. Owners confirm the asset that was
// configured at submission, whatever the configuration says later.
func pinNativeToken(db realm.ReadOnlyKVStore, t *Transaction) error {
	var withdraw *WithdrawMsg
	if len(t.Payload) > 0 {
		msg, err := realm.DecodeMsg(t.Payload)
		if err != nil {
			return errors.Wrap(err, "payload")
		}
		withdraw, _ = msg.(*WithdrawMsg)
	}
	if t.Value.Sign() == 0 && withdraw == nil {
		return nil
	}
	conf, err := loadConfig(db)
	if err != nil {
		return err
	}
	if t.Value.Sign() > 0 {
		t.Ticker = conf.NativeToken
	}
	if withdraw != nil {
		payload, err := realm.EncodeMsg(&WithdrawTokenMsg{
			WalletID: withdraw.WalletID,
			Ticker:   conf.NativeToken,
			To:       withdraw.To,
			Amount:   withdraw.Amount,
		})
		if err != nil {
			return errors.Wrap(err, "payload")
		}
		t.Payload = payload
	}
	return nil
}

type confirmHandler struct {
	*engine
}

func (h *confirmHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *confirmHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	msg, signer, w, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.Confirmations = append(t.Confirmations, signer)
	events := []realm.Event{confirmationEvent("multisig_confirmation", msg.WalletID, msg.TxID, signer)}
	executed, err := h.execute(ctx, db, msg.WalletID, msg.TxID, w, t)
	if err != nil {
		return nil, err
	}
	if err := h.txs.Save(db, msg.WalletID, msg.TxID, t); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{Events: append(events, executed...)}, nil
}

func (h *confirmHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*ConfirmTransactionMsg, common.Address, *Wallet, *Transaction, error) {
	var msg ConfirmTransactionMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return nil, common.Address{}, nil, nil, errors.Wrap(err, "load msg")
	}
	signer, w, err := h.owner(ctx, db, msg.WalletID)
	if err != nil {
		return nil, common.Address{}, nil, nil, err
	}
	t, err := h.pending(db, msg.WalletID, msg.TxID)
	if err != nil {
		return nil, common.Address{}, nil, nil, err
	}
	if t.HasConfirmed(signer) {
		return nil, common.Address{}, nil, nil, errors.Wrapf(errors.ErrDuplicate, "%s already confirmed", signer.Hex())
	}
	return &msg, signer, w, t, nil
}

type revokeHandler struct {
	*engine
}

func (h *revokeHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &realm.CheckResult{}, nil
}

func (h *revokeHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	msg, signer, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.revoke(signer)
	if err := h.txs.Save(db, msg.WalletID, msg.TxID, t); err != nil {
		return nil, err
	}
	return &realm.DeliverResult{
		Events: []realm.Event{confirmationEvent("multisig_revocation", msg.WalletID, msg.TxID, signer)},
	}, nil
}

func (h *revokeHandler) validate(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*RevokeConfirmationMsg, common.Address, *Transaction, error) {
	var msg RevokeConfirmationMsg
	if err := realm.LoadMsg(tx, &msg); err != nil {
		return nil, common.Address{}, nil, errors.Wrap(err, "load msg")
	}
	signer, _, err := h.owner(ctx, db, msg.WalletID)
	if err != nil {
		return nil, common.Address{}, nil, err
	}
	t, err := h.pending(db, msg.WalletID, msg.TxID)
	if err != nil {
		return nil, common.Address{}, nil, err
	}
	if !t.HasConfirmed(signer) {
		return nil, common.Address{}, nil, errors.Wrapf(errors.ErrState, "%s has not confirmed", signer.Hex())
	}
	return &msg, signer, t, nil
}
