package multisig

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/orm"
)

// TransactionIDsQuery is the RLP encoded query data of
// /multisig/transaction_ids.
type TransactionIDsQuery struct {
	WalletID uint64
	Offset   uint64
	Limit    uint64
	Pending  bool
	Executed bool
}

// RegisterQuery registers the wallet and transaction buckets and the
// confirmation queries.
//
//	/multisig/wallets              wallet id (8 bytes) -> Wallet
//	/multisig/transactions         TxKey -> Transaction
//	/multisig/transaction_count    wallet id -> uint64
//	/multisig/confirmations        TxKey -> []common.Address
//	/multisig/confirmation_count   TxKey -> uint64
//	/multisig/transaction_ids      TransactionIDsQuery -> []uint64
func RegisterQuery(qr realm.QueryRouter) {
	wallets := NewWalletBucket()
	txs := NewTransactionBucket()
	wallets.Register("/multisig/wallets", qr)
	txs.Register("/multisig/transactions", qr)

	qr.Register("/multisig/transaction_count", realm.QueryFunc(func(db realm.ReadOnlyKVStore, data []byte) (interface{}, error) {
		id, err := decodeWalletID(data)
		if err != nil {
			return nil, err
		}
		return txs.Count(db, id)
	}))
	qr.Register("/multisig/confirmations", realm.QueryFunc(func(db realm.ReadOnlyKVStore, data []byte) (interface{}, error) {
		return queryConfirmations(db, wallets, txs, data)
	}))
	qr.Register("/multisig/confirmation_count", realm.QueryFunc(func(db realm.ReadOnlyKVStore, data []byte) (interface{}, error) {
		confirmed, err := queryConfirmations(db, wallets, txs, data)
		if err != nil {
			return nil, err
		}
		return uint64(len(confirmed)), nil
	}))
	qr.Register("/multisig/transaction_ids", realm.QueryFunc(func(db realm.ReadOnlyKVStore, data []byte) (interface{}, error) {
		var q TransactionIDsQuery
		if err := rlp.DecodeBytes(data, &q); err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "query: %s", err)
		}
		return txs.IDs(db, q.WalletID, q.Offset, q.Limit, q.Pending, q.Executed)
	}))
}

// Confirmations returns the current owners that confirmed the transaction,
// in confirmation order.
func Confirmations(db realm.ReadOnlyKVStore, walletID, txID uint64) ([]common.Address, error) {
	return queryConfirmations(db, NewWalletBucket(), NewTransactionBucket(), TxKey(walletID, txID))
}

func queryConfirmations(db realm.ReadOnlyKVStore, wallets WalletBucket, txs TransactionBucket, key []byte) ([]common.Address, error) {
	if len(key) != 16 {
		return nil, errors.Wrapf(errors.ErrInput, "transaction key %X", key)
	}
	walletID, err := orm.DecodeSequence(key[:8])
	if err != nil {
		return nil, err
	}
	txID, err := orm.DecodeSequence(key[8:])
	if err != nil {
		return nil, err
	}
	w, err := wallets.GetWallet(db, walletID)
	if err != nil {
		return nil, err
	}
	t, err := txs.GetTransaction(db, walletID, txID)
	if err != nil {
		return nil, err
	}
	return t.ConfirmedBy(w), nil
}

func decodeWalletID(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, errors.Wrapf(errors.ErrInput, "wallet id %X", data)
	}
	return orm.DecodeSequence(data)
}
