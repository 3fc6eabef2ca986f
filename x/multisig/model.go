package multisig

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/orm"
)

const (
	maxOwners = 50

	// maxPageSize bounds the transaction id listing.
	maxPageSize = 100
)

// WalletAddress returns the account of the wallet with the given id.
func WalletAddress(id uint64) common.Address {
	return realm.NewCondition("multisig", "wallet", orm.EncodeSequence(id)).Address()
}

// Wallet is the owner set of a multisig account.
type Wallet struct {
	Owners   []common.Address
	Required uint32
}

func (w *Wallet) Validate() error {
	switch n := len(w.Owners); {
	case n == 0:
		return errors.Wrap(errors.ErrModel, "no owners")
	case n > maxOwners:
		return errors.Wrapf(errors.ErrModel, "%d owners, at most %d allowed", n, maxOwners)
	}
	if w.Required == 0 || int(w.Required) > len(w.Owners) {
		return errors.Wrapf(errors.ErrModel, "requirement %d for %d owners", w.Required, len(w.Owners))
	}
	seen := make(map[common.Address]struct{}, len(w.Owners))
	for _, o := range w.Owners {
		if o == (common.Address{}) {
			return errors.Wrap(errors.ErrModel, "zero address owner")
		}
		if _, ok := seen[o]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "owner %s", o.Hex())
		}
		seen[o] = struct{}{}
	}
	return nil
}

// checkOwnedBy fails if the wallet with the given id is one of its own
// owners. A wallet confirming its own transactions could reach the
// requirement from inside an execution.
func (w *Wallet) checkOwnedBy(id uint64) error {
	if w.IsOwner(WalletAddress(id)) {
		return errors.Wrap(errors.ErrInput, "wallet cannot own itself")
	}
	return nil
}

// IsOwner returns true if addr is one of the owners.
func (w *Wallet) IsOwner(addr common.Address) bool {
	return w.ownerIndex(addr) >= 0
}

func (w *Wallet) ownerIndex(addr common.Address) int {
	for i, o := range w.Owners {
		if o == addr {
			return i
		}
	}
	return -1
}

// Transaction is a submitted wallet operation. Target, Value and Payload
// never change after submission.
type Transaction struct {
	Target  common.Address
	Value   *big.Int
	Payload []byte
	// Executed is set once the transaction ran successfully.
	Executed bool
	// Confirmations in the order they were given.
	Confirmations []common.Address
	// Ticker of the token Value is paid in, pinned at submission.
	Ticker string `rlp:"optional"`
}

func (t *Transaction) Validate() error {
	if t.Target == (common.Address{}) {
		return errors.Wrap(errors.ErrModel, "missing target")
	}
	if t.Value == nil || t.Value.Sign() < 0 {
		return errors.Wrap(errors.ErrModel, "invalid value")
	}
	if t.Value.Sign() > 0 && t.Ticker == "" {
		return errors.Wrap(errors.ErrModel, "missing ticker")
	}
	seen := make(map[common.Address]struct{}, len(t.Confirmations))
	for _, c := range t.Confirmations {
		if _, ok := seen[c]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "confirmation of %s", c.Hex())
		}
		seen[c] = struct{}{}
	}
	return nil
}

// HasConfirmed returns true if the owner confirmed the transaction.
func (t *Transaction) HasConfirmed(owner common.Address) bool {
	for _, c := range t.Confirmations {
		if c == owner {
			return true
		}
	}
	return false
}

// ConfirmedBy returns the confirmations given by current owners of the
// wallet, in confirmation order. Confirmations of removed owners do not
// count.
func (t *Transaction) ConfirmedBy(w *Wallet) []common.Address {
	res := make([]common.Address, 0, len(t.Confirmations))
	for _, c := range t.Confirmations {
		if w.IsOwner(c) {
			res = append(res, c)
		}
	}
	return res
}

func (t *Transaction) revoke(owner common.Address) {
	for i, c := range t.Confirmations {
		if c == owner {
			t.Confirmations = append(t.Confirmations[:i], t.Confirmations[i+1:]...)
			return
		}
	}
}

// Configuration is stored with gconf under the "multisig" key.
type Configuration struct {
	Owner common.Address `json:"owner"`
	// NativeToken is the ticker moved by transaction values and
	// WithdrawMsg.
	NativeToken string `json:"native_token"`
}

func (c *Configuration) Validate() error {
	if c.Owner == (common.Address{}) {
		return errors.Wrap(errors.ErrEmpty, "owner")
	}
	if c.NativeToken == "" {
		return errors.Wrap(errors.ErrEmpty, "native token")
	}
	return nil
}

func (c *Configuration) GetOwner() common.Address {
	return c.Owner
}

// WalletBucket stores wallets by their sequence id.
type WalletBucket struct {
	orm.ModelBucket
	seq orm.Sequence
}

func NewWalletBucket() WalletBucket {
	return WalletBucket{
		ModelBucket: orm.NewModelBucket("wallet", &Wallet{}),
		seq:         orm.NewSequence("wallet", "id"),
	}
}

// Create stores a new wallet and returns its id. Ids start at 1.
func (b WalletBucket) Create(db realm.KVStore, w *Wallet) (uint64, error) {
	id, err := b.seq.NextInt(db)
	if err != nil {
		return 0, errors.Wrap(err, "wallet sequence")
	}
	if err := b.Put(db, orm.EncodeSequence(id), w); err != nil {
		return 0, err
	}
	return id, nil
}

// GetWallet returns the wallet with the given id.
func (b WalletBucket) GetWallet(db realm.ReadOnlyKVStore, id uint64) (*Wallet, error) {
	var w Wallet
	if err := b.One(db, orm.EncodeSequence(id), &w); err != nil {
		return nil, errors.Wrapf(err, "wallet %d", id)
	}
	return &w, nil
}

// Save updates an existing wallet.
func (b WalletBucket) Save(db realm.KVStore, id uint64, w *Wallet) error {
	return b.Put(db, orm.EncodeSequence(id), w)
}

// TransactionBucket stores transactions under the wallet id followed by the
// transaction id, both 8 bytes big endian.
type TransactionBucket struct {
	orm.ModelBucket
}

func NewTransactionBucket() TransactionBucket {
	return TransactionBucket{orm.NewModelBucket("mstx", &Transaction{})}
}

// TxKey returns the key of a transaction.
func TxKey(walletID, txID uint64) []byte {
	return append(orm.EncodeSequence(walletID), orm.EncodeSequence(txID)...)
}

func txSequence(walletID uint64) orm.Sequence {
	return orm.NewSequence("mstx", strconv.FormatUint(walletID, 10))
}

// Create stores a new transaction of the wallet and returns its id. Ids of
// a wallet start at 0 and are never reused.
func (b TransactionBucket) Create(db realm.KVStore, walletID uint64, t *Transaction) (uint64, error) {
	seq := txSequence(walletID)
	n, err := seq.NextInt(db)
	if err != nil {
		return 0, errors.Wrap(err, "transaction sequence")
	}
	id := n - 1
	if err := b.Put(db, TxKey(walletID, id), t); err != nil {
		return 0, err
	}
	return id, nil
}

// Count returns the number of transactions submitted to the wallet.
func (b TransactionBucket) Count(db realm.ReadOnlyKVStore, walletID uint64) (uint64, error) {
	seq := txSequence(walletID)
	return seq.Latest(db)
}

// GetTransaction returns a transaction of the wallet.
func (b TransactionBucket) GetTransaction(db realm.ReadOnlyKVStore, walletID, txID uint64) (*Transaction, error) {
	var t Transaction
	if err := b.One(db, TxKey(walletID, txID), &t); err != nil {
		return nil, errors.Wrapf(err, "transaction %d/%d", walletID, txID)
	}
	return &t, nil
}

// Save updates an existing transaction.
func (b TransactionBucket) Save(db realm.KVStore, walletID, txID uint64, t *Transaction) error {
	return b.Put(db, TxKey(walletID, txID), t)
}

// IDs lists transaction ids of the wallet in ascending order. Only
// transactions matching the pending or executed filter are considered,
// then offset of them are skipped and at most limit returned. A zero limit
// returns a full page.
func (b TransactionBucket) IDs(db realm.ReadOnlyKVStore, walletID uint64, offset, limit uint64, pending, executed bool) ([]uint64, error) {
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	ids := make([]uint64, 0)
	var (
		t    Transaction
		seen uint64
	)
	err := b.Each(db, orm.EncodeSequence(walletID), &t, func(key []byte) error {
		if (t.Executed && !executed) || (!t.Executed && !pending) {
			return nil
		}
		seen++
		if seen <= offset {
			return nil
		}
		id, err := orm.DecodeSequence(key[8:])
		if err != nil {
			return err
		}
		ids = append(ids, id)
		if uint64(len(ids)) == limit {
			return errPageFull
		}
		return nil
	})
	if err != nil && err != errPageFull {
		return nil, err
	}
	return ids, nil
}

var errPageFull = errors.Wrap(errors.ErrHuman, "page full")
