package utils

import (
	"bytes"
	"context"
	"testing"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/realmtest"
	"github.com/herorealm/realm/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

type panicHandler struct{}

func (panicHandler) Check(realm.Context, realm.KVStore, realm.Tx) (*realm.CheckResult, error) {
	panic("check exploded")
}

func (panicHandler) Deliver(realm.Context, realm.KVStore, realm.Tx) (*realm.DeliverResult, error) {
	panic("deliver exploded")
}

func TestRecovery(t *testing.T) {
	ctx := context.Background()
	db := store.MemStore()
	r := NewRecovery()

	_, err := r.Check(ctx, db, nil, panicHandler{})
	require.Error(t, err)
	assert.True(t, errors.ErrPanic.Is(err))
	assert.Contains(t, err.Error(), "check exploded")

	_, err = r.Deliver(ctx, db, nil, panicHandler{})
	assert.True(t, errors.ErrPanic.Is(err))
	assert.Contains(t, err.Error(), "deliver exploded")

	// the panic value is logged with the message path
	var out bytes.Buffer
	ctx = realm.WithLogger(ctx, log.NewTMLogger(&out))
	tx := &realmtest.Tx{Msg: &realmtest.Msg{RoutePath: "nft/mint"}}
	_, err = r.Deliver(ctx, db, tx, panicHandler{})
	assert.True(t, errors.ErrPanic.Is(err))
	assert.Contains(t, out.String(), "nft/mint")
	assert.Contains(t, out.String(), "deliver exploded")
}

func TestActionTagger(t *testing.T) {
	ctx := context.Background()
	db := store.MemStore()
	tx := &realmtest.Tx{Msg: &realmtest.Msg{RoutePath: "market/buy"}}

	h := &realmtest.Handler{
		DeliverResult: realm.DeliverResult{Events: []realm.Event{realm.NewEvent("sold")}},
	}
	res, err := NewActionTagger().Deliver(ctx, db, tx, h)
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "sold", res.Events[0].Type)
	assert.Equal(t, realm.NewEvent(ActionEvent, ActionKey, "market/buy"), res.Events[1])

	failing := &realmtest.Handler{DeliverErr: errors.ErrUnauthorized}
	_, err = NewActionTagger().Deliver(ctx, db, tx, failing)
	assert.True(t, errors.ErrUnauthorized.Is(err))

	broken := &realmtest.Tx{Err: errors.ErrInput}
	_, err = NewActionTagger().Deliver(ctx, db, broken, h)
	assert.True(t, errors.ErrInput.Is(err))
	assert.Equal(t, 1, h.DeliverCallCount())
}

func TestMetricsCountsDeliveries(t *testing.T) {
	ctx := context.Background()
	db := store.MemStore()
	tx := &realmtest.Tx{Msg: &realmtest.Msg{RoutePath: "vault/claim"}}

	ok := deliveredTxs.WithLabelValues("vault/claim", "0")
	replayed := deliveredTxs.WithLabelValues("vault/claim", "20")
	okBefore, replayedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(replayed)

	m := NewMetrics()
	_, err := m.Deliver(ctx, db, tx, &realmtest.Handler{})
	require.NoError(t, err)
	_, err = m.Deliver(ctx, db, tx, &realmtest.Handler{DeliverErr: errors.ErrReplay})
	require.Error(t, err)
	_, err = m.Check(ctx, db, tx, &realmtest.Handler{})
	require.NoError(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, replayedBefore+1, testutil.ToFloat64(replayed))
}

func TestLoggingPassesResults(t *testing.T) {
	ctx := context.Background()
	db := store.MemStore()
	l := NewLogging()

	res, err := l.Deliver(ctx, db, nil, &realmtest.Handler{DeliverResult: realm.DeliverResult{Log: "done"}})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Log)

	_, err = l.Check(ctx, db, nil, &realmtest.Handler{CheckErr: errors.ErrEmpty})
	assert.True(t, errors.ErrEmpty.Is(err))
}
