package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/app"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/realmtest"
	"github.com/herorealm/realm/store"
	"github.com/herorealm/realm/x"
	"github.com/herorealm/realm/x/sigs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"
)

const chainID = "realm-client-test"

// nodeConn serves RPC calls from an in-process application, committing one
// block per BroadcastTxCommit.
type nodeConn struct {
	app    app.BaseApp
	height int64
	txs    map[string]*ctypes.ResultTx
	down   bool
}

func newNodeConn(t *testing.T) *nodeConn {
	t.Helper()
	kv, err := store.NewMemCommitStore()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	auth := x.ChainAuth(sigs.Authenticate{})
	router := app.NewRouter()
	sigs.RegisterRoutes(router, auth)
	qr := realm.NewQueryRouter()
	sigs.RegisterQuery(qr)

	stack := app.ChainDecorators(sigs.NewDecorator()).WithHandler(router)
	base := app.NewBaseApp(app.NewStoreApp("clienttest", kv, qr, context.Background()), app.DecodeTx, stack, false)

	c := &nodeConn{app: base, txs: make(map[string]*ctypes.ResultTx)}
	base.InitChain(abci.RequestInitChain{ChainId: chainID, AppStateBytes: []byte(`{}`)})
	c.block(nil)
	return c
}

func (c *nodeConn) block(tx tmtypes.Tx) abci.ResponseDeliverTx {
	c.height++
	c.app.BeginBlock(abci.RequestBeginBlock{Header: tmproto.Header{
		ChainID: chainID,
		Height:  c.height,
		Time:    time.Now(),
	}})
	var res abci.ResponseDeliverTx
	if tx != nil {
		res = c.app.DeliverTx(abci.RequestDeliverTx{Tx: tx})
	}
	c.app.EndBlock(abci.RequestEndBlock{Height: c.height})
	c.app.Commit()
	return res
}

func (c *nodeConn) err() error {
	if c.down {
		return fmt.Errorf("connection refused")
	}
	return nil
}

func (c *nodeConn) Status(ctx context.Context) (*ctypes.ResultStatus, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	return &ctypes.ResultStatus{SyncInfo: ctypes.SyncInfo{LatestBlockHeight: c.height}}, nil
}

func (c *nodeConn) ABCIQueryWithOptions(ctx context.Context, path string, data tmbytes.HexBytes, opts rpcclient.ABCIQueryOptions) (*ctypes.ResultABCIQuery, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	return &ctypes.ResultABCIQuery{Response: c.app.Query(abci.RequestQuery{Path: path, Data: data})}, nil
}

func (c *nodeConn) BroadcastTxSync(ctx context.Context, tx tmtypes.Tx) (*ctypes.ResultBroadcastTx, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	res := c.app.CheckTx(abci.RequestCheckTx{Tx: tx})
	return &ctypes.ResultBroadcastTx{Code: res.Code, Log: res.Log, Hash: tx.Hash()}, nil
}

func (c *nodeConn) BroadcastTxCommit(ctx context.Context, tx tmtypes.Tx) (*ctypes.ResultBroadcastTxCommit, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	check := c.app.CheckTx(abci.RequestCheckTx{Tx: tx})
	if check.Code != 0 {
		return &ctypes.ResultBroadcastTxCommit{CheckTx: check, Hash: tx.Hash()}, nil
	}
	deliver := c.block(tx)
	c.txs[string(tx.Hash())] = &ctypes.ResultTx{Hash: tx.Hash(), Height: c.height, TxResult: deliver, Tx: tx}
	return &ctypes.ResultBroadcastTxCommit{CheckTx: check, DeliverTx: deliver, Hash: tx.Hash(), Height: c.height}, nil
}

func (c *nodeConn) Tx(ctx context.Context, hash []byte, prove bool) (*ctypes.ResultTx, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	res, ok := c.txs[string(hash)]
	if !ok {
		return nil, fmt.Errorf("tx (%X) not found", hash)
	}
	return res, nil
}

func TestSignAndCommit(t *testing.T) {
	ctx := context.Background()
	conn := newNodeConn(t)
	c := NewClient(conn, chainID)
	key := realmtest.NewKey()

	seq, err := c.Sequence(ctx, key.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)

	first, err := c.SignTx(ctx, &sigs.BumpSequenceMsg{Increment: 5}, key.Private)
	require.NoError(t, err)
	res, err := c.CommitTx(ctx, first)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(2), res.Height)

	seq, err = c.Sequence(ctx, key.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), seq)

	found, err := c.GetTxByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Height, found.Height)

	next, err := c.SignTx(ctx, &sigs.BumpSequenceMsg{Increment: 1}, key.Private)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), next.Signatures[0].Sequence)
	id, err := c.SubmitTx(ctx, next)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// the first transaction can not be replayed
	_, err = c.CommitTx(ctx, first)
	assert.True(t, sigs.ErrInvalidSequence.Is(err), "%+v", err)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), status.Height)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	conn := newNodeConn(t)
	c := NewClient(conn, chainID)

	var out interface{}
	err := c.Query(ctx, "/unknown", nil, &out)
	assert.True(t, errors.ErrNotFound.Is(err))

	_, err = c.SignTx(ctx, &sigs.BumpSequenceMsg{}, realmtest.NewKey().Private)
	assert.True(t, errors.ErrMsg.Is(err))

	_, err = c.GetTxByID(ctx, []byte{1, 2, 3})
	assert.True(t, errors.ErrNetwork.Is(err))

	conn.down = true
	_, err = c.Status(ctx)
	assert.True(t, errors.ErrNetwork.Is(err))
	_, err = c.Sequence(ctx, realmtest.NewAddress())
	assert.True(t, errors.ErrNetwork.Is(err))

	expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
	defer cancel()
	_, err = c.Status(expired)
	assert.True(t, errors.ErrTimeout.Is(err))
}

func TestEventsRoundTrip(t *testing.T) {
	events := []realm.Event{realm.NewEvent("sold", "id", "1", "price", "100")}
	assert.Equal(t, events, realmEvents(app.ABCIEvents(events)))
	assert.Nil(t, realmEvents(nil))
}
