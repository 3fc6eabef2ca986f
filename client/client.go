package client

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/app"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/x/sigs"
	abci "github.com/tendermint/tendermint/abci/types"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	rpchttp "github.com/tendermint/tendermint/rpc/client/http"
)

// Client is a tendermint client wrapped to provide
// simple access to the data structures of the realm application.
type Client struct {
	conn    Conn
	chainID string
}

// NewClient wraps a Client around an existing tendermint connection.
func NewClient(conn Conn, chainID string) *Client {
	return &Client{conn: conn, chainID: chainID}
}

// NewHTTPClient connects to the RPC endpoint of a node, for example
// "tcp://localhost:26657".
func NewHTTPClient(remote, chainID string) (*Client, error) {
	conn, err := rpchttp.New(remote, "/websocket")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "connect %s: %s", remote, err)
	}
	return NewClient(conn, chainID), nil
}

// ChainID returns the chain the client signs for.
func (c *Client) ChainID() string {
	return c.chainID
}

// Status returns current height and other (subjective) status info from this node
func (c *Client) Status(ctx context.Context) (*Status, error) {
	status, err := c.conn.Status(ctx)
	if err != nil {
		return nil, wrapNetwork(ctx, err, "status")
	}
	return &Status{
		Height:     status.SyncInfo.LatestBlockHeight,
		CatchingUp: status.SyncInfo.CatchingUp,
	}, nil
}

// Query runs an application query and decodes the JSON result into dest.
// A failed query is returned as the error registered under its code.
func (c *Client) Query(ctx context.Context, path string, data []byte, dest interface{}) error {
	res, err := c.conn.ABCIQueryWithOptions(ctx, path, data, rpcclient.DefaultABCIQueryOptions)
	if err != nil {
		return wrapNetwork(ctx, err, "query "+path)
	}
	if err := errors.ABCIError(res.Response.Code, res.Response.Log); err != nil {
		return err
	}
	if err := json.Unmarshal(res.Response.Value, dest); err != nil {
		return errors.Wrapf(errors.ErrInput, "decode %s result: %s", path, err)
	}
	return nil
}

// Sequence returns the next sequence the address must sign with.
func (c *Client) Sequence(ctx context.Context, addr common.Address) (uint64, error) {
	var user sigs.UserData
	switch err := c.Query(ctx, "/sigs", addr.Bytes(), &user); {
	case err == nil:
		return user.Sequence, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}

// SignTx builds a transaction carrying the message, signed by every key
// with its current sequence.
func (c *Client) SignTx(ctx context.Context, msg realm.Msg, keys ...*ecdsa.PrivateKey) (*app.Tx, error) {
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid message")
	}
	tx, err := app.NewTx(msg)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		seq, err := c.Sequence(ctx, crypto.PubkeyToAddress(key.PublicKey))
		if err != nil {
			return nil, err
		}
		if err := tx.Sign(key, c.chainID, seq); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// SubmitTx places the transaction in the mempool and returns its id once it
// passed CheckTx. Use GetTxByID to learn the result of the delivery.
func (c *Client) SubmitTx(ctx context.Context, tx *app.Tx) (TransactionID, error) {
	raw, err := tx.Marshal()
	if err != nil {
		return nil, err
	}
	res, err := c.conn.BroadcastTxSync(ctx, raw)
	if err != nil {
		return nil, wrapNetwork(ctx, err, "submit tx")
	}
	if err := errors.ABCIError(res.Code, res.Log); err != nil {
		return nil, err
	}
	return res.Hash, nil
}

// CommitTx broadcasts the transaction and blocks until it is included in a
// block. A transaction rejected by CheckTx is returned as an error; a
// failed delivery is reported in CommitResult.Err.
func (c *Client) CommitTx(ctx context.Context, tx *app.Tx) (*CommitResult, error) {
	raw, err := tx.Marshal()
	if err != nil {
		return nil, err
	}
	res, err := c.conn.BroadcastTxCommit(ctx, raw)
	if err != nil {
		return nil, wrapNetwork(ctx, err, "commit tx")
	}
	if err := errors.ABCIError(res.CheckTx.Code, res.CheckTx.Log); err != nil {
		return nil, err
	}
	return commitResult(res.Hash, res.Height, res.DeliverTx), nil
}

// GetTxByID returns the result of a committed transaction.
func (c *Client) GetTxByID(ctx context.Context, id TransactionID) (*CommitResult, error) {
	res, err := c.conn.Tx(ctx, id, false)
	if err != nil {
		return nil, wrapNetwork(ctx, err, "get tx")
	}
	return commitResult(res.Hash, res.Height, res.TxResult), nil
}

func commitResult(id TransactionID, height int64, res abci.ResponseDeliverTx) *CommitResult {
	return &CommitResult{
		ID:     id,
		Height: height,
		Data:   res.Data,
		Log:    res.Log,
		Events: realmEvents(res.Events),
		Err:    errors.ABCIError(res.Code, res.Log),
	}
}

func realmEvents(events []abci.Event) []realm.Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]realm.Event, len(events))
	for i, ev := range events {
		out[i].Type = ev.Type
		for _, a := range ev.Attributes {
			out[i].Attributes = append(out[i].Attributes, realm.Attribute{Key: string(a.Key), Value: string(a.Value)})
		}
	}
	return out
}

func wrapNetwork(ctx context.Context, err error, what string) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Wrapf(errors.ErrTimeout, "%s: %s", what, err)
	}
	return errors.Wrapf(errors.ErrNetwork, "%s: %s", what, err)
}
