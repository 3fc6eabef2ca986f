package client

import (
	"context"

	"github.com/herorealm/realm"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"
)

// TransactionID is the hash used to identify the transaction
type TransactionID = tmbytes.HexBytes

// Conn is the part of the Tendermint RPC client used by Client. Both the
// HTTP and the in-process clients of Tendermint implement it.
type Conn interface {
	Status(ctx context.Context) (*ctypes.ResultStatus, error)
	ABCIQueryWithOptions(ctx context.Context, path string, data tmbytes.HexBytes, opts rpcclient.ABCIQueryOptions) (*ctypes.ResultABCIQuery, error)
	BroadcastTxSync(ctx context.Context, tx tmtypes.Tx) (*ctypes.ResultBroadcastTx, error)
	BroadcastTxCommit(ctx context.Context, tx tmtypes.Tx) (*ctypes.ResultBroadcastTxCommit, error)
	Tx(ctx context.Context, hash []byte, prove bool) (*ctypes.ResultTx, error)
}

var _ Conn = (rpcclient.Client)(nil)

// Status is the current status of the node we connect to.
type Status struct {
	Height     int64
	CatchingUp bool
}

// CommitResult is the outcome of a transaction included in a block.
// Err is set if the transaction failed.
type CommitResult struct {
	ID     TransactionID
	Height int64
	Data   []byte
	Log    string
	Events []realm.Event
	Err    error
}
