package app

import (
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

func deliverTxError(err error, debug bool) abci.ResponseDeliverTx {
	code, msg := errors.ABCIInfo(err, debug)
	return abci.ResponseDeliverTx{Code: code, Log: msg}
}

func checkTxError(err error, debug bool) abci.ResponseCheckTx {
	code, msg := errors.ABCIInfo(err, debug)
	return abci.ResponseCheckTx{Code: code, Log: msg}
}

func deliverTxResponse(res *realm.DeliverResult) abci.ResponseDeliverTx {
	return abci.ResponseDeliverTx{
		Data:   res.Data,
		Log:    res.Log,
		Events: ABCIEvents(res.Events),
	}
}

// ABCIEvents converts handler events into indexed ABCI events.
func ABCIEvents(events []realm.Event) []abci.Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]abci.Event, len(events))
	for i, ev := range events {
		attrs := make([]abci.EventAttribute, len(ev.Attributes))
		for j, a := range ev.Attributes {
			attrs[j] = abci.EventAttribute{Key: []byte(a.Key), Value: []byte(a.Value), Index: true}
		}
		out[i] = abci.Event{Type: ev.Type, Attributes: attrs}
	}
	return out
}
