package realmtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/herorealm/realm/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
)

// Tester is implemented by both *testing.T and *testing.B. Use it instead of
// the pointer type to allow notation to accept both objects.
type Tester interface {
	Helper()
	Errorf(string, ...interface{})
	Fatalf(string, ...interface{})
	Logf(string, ...interface{})
}

// Marshaler is a transaction that can be serialized for the application.
type Marshaler interface {
	Marshal() ([]byte, error)
}

// Runner drives an ABCI application in process the way a Tendermint node
// does: blocks are begun, filled with transactions, ended and committed.
//
// All calls are serialized, so a Runner can be shared by goroutines.
type Runner struct {
	mu      sync.Mutex
	chainID string
	height  int64
	start   time.Time
	t       Tester
	app     abci.Application
}

// NewRunner creates a Runner for the application.
func NewRunner(t Tester, app abci.Application, chainID string) *Runner {
	return &Runner{
		chainID: chainID,
		start:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		t:       t,
		app:     app,
	}
}

// Height returns the height of the last block.
func (r *Runner) Height() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.height
}

// InitChain serializes the genesis to JSON and loads it in its own block.
func (r *Runner) InitChain(genesis interface{}) {
	r.t.Helper()
	raw, err := json.Marshal(genesis)
	if err != nil {
		r.t.Fatalf("cannot JSON serialize genesis: %s", err)
	}

	changed := r.InBlock(func(*Block) {
		r.app.InitChain(abci.RequestInitChain{
			Time:          r.start,
			ChainId:       r.chainID,
			AppStateBytes: raw,
		})
	})
	if !changed {
		r.t.Fatalf("genesis did not change the state")
	}
}

// CheckTx runs the transaction through CheckTx.
func (r *Runner) CheckTx(tx Marshaler) abci.ResponseCheckTx {
	r.t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.app.CheckTx(abci.RequestCheckTx{Tx: r.marshal(tx)})
}

// Block collects the transactions delivered within InBlock.
type Block struct {
	r *Runner
}

// Deliver delivers the transaction and returns the response. Failed
// transactions do not fail the test.
func (b *Block) Deliver(tx Marshaler) abci.ResponseDeliverTx {
	b.r.t.Helper()
	return b.r.app.DeliverTx(abci.RequestDeliverTx{Tx: b.r.marshal(tx)})
}

// MustDeliver delivers the transaction and fails the test unless it
// succeeds.
func (b *Block) MustDeliver(tx Marshaler) abci.ResponseDeliverTx {
	b.r.t.Helper()
	res := b.Deliver(tx)
	if res.Code != 0 {
		b.r.t.Fatalf("deliver failed with code %d: %s", res.Code, res.Log)
	}
	return res
}

// InBlock begins a block and runs given function. All transactions
// delivered within it are part of the new block. The block is then ended
// and committed. InBlock returns true if the application state was
// modified.
func (r *Runner) InBlock(fn func(*Block)) bool {
	r.t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	r.height++
	initialHash := r.app.Info(abci.RequestInfo{}).LastBlockAppHash

	r.app.BeginBlock(abci.RequestBeginBlock{
		Header: tmproto.Header{
			ChainID: r.chainID,
			Height:  r.height,
			Time:    r.start.Add(time.Duration(r.height) * 5 * time.Second),
		},
	})
	fn(&Block{r: r})
	r.app.EndBlock(abci.RequestEndBlock{Height: r.height})

	// Commit data contains the new app hash. It differs from the initial
	// hash only if the state was modified.
	finalHash := r.app.Commit().Data
	return !bytes.Equal(initialHash, finalHash)
}

// Query runs an ABCI query and decodes the JSON result into dest.
func (r *Runner) Query(path string, data []byte, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.app.Query(abci.RequestQuery{Path: path, Data: data})
	if res.Code != 0 {
		return fmt.Errorf("query %s failed with code %d: %s", path, res.Code, res.Log)
	}
	if err := json.Unmarshal(res.Value, dest); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	return nil
}

func (r *Runner) marshal(tx Marshaler) []byte {
	r.t.Helper()
	raw, err := tx.Marshal()
	if err != nil {
		r.t.Fatalf("cannot marshal transaction: %s", err)
	}
	return raw
}
