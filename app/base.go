package app

import (
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp adds DeliverTx and CheckTx handlers to the storage and query
// functionality of StoreApp
type BaseApp struct {
	*StoreApp
	decoder realm.TxDecoder
	handler realm.Handler
	debug   bool
}

var _ abci.Application = BaseApp{}

// NewBaseApp constructs a basic abci application. When debug is set, the
// log of failed transactions carries the full error with its stack trace.
func NewBaseApp(store *StoreApp, decoder realm.TxDecoder, handler realm.Handler, debug bool) BaseApp {
	return BaseApp{
		StoreApp: store,
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
	}
}

// DeliverTx - ABCI - dispatches to the handler
func (b BaseApp) DeliverTx(req abci.RequestDeliverTx) abci.ResponseDeliverTx {
	tx, err := b.loadTx(req.Tx)
	if err != nil {
		return deliverTxError(err, b.debug)
	}

	ctx := realm.WithLogInfo(b.BlockContext(),
		"call", "deliver_tx",
		"path", realm.GetPath(tx))

	res, err := b.handler.Deliver(ctx, b.DeliverStore(), tx)
	if err != nil {
		return deliverTxError(err, b.debug)
	}
	return deliverTxResponse(res)
}

// CheckTx - ABCI - dispatches to the handler
func (b BaseApp) CheckTx(req abci.RequestCheckTx) abci.ResponseCheckTx {
	tx, err := b.loadTx(req.Tx)
	if err != nil {
		return checkTxError(err, b.debug)
	}

	ctx := realm.WithLogInfo(b.BlockContext(),
		"call", "check_tx",
		"path", realm.GetPath(tx))

	res, err := b.handler.Check(ctx, b.CheckStore(), tx)
	if err != nil {
		return checkTxError(err, b.debug)
	}
	return abci.ResponseCheckTx{Data: res.Data, Log: res.Log}
}

// loadTx calls the decoder, and capture any panics
func (b BaseApp) loadTx(txBytes []byte) (tx realm.Tx, err error) {
	defer errors.Recover(&err)
	return b.decoder(txBytes)
}
