package app

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// StoreApp contains a data store and all info needed
// to perform queries and handshakes.
//
// It should be embedded in another struct for CheckTx,
// DeliverTx and initializing state from the genesis.
//
// Failures of ABCI steps that take no user input (Info, InitChain,
// BeginBlock, EndBlock and Commit) cannot be reported to the caller, so
// they panic.
type StoreApp struct {
	abci.BaseApplication

	logger log.Logger

	// name is what is returned from abci.Info
	name string

	store *CommitStore

	initializer realm.Initializer
	queryRouter realm.QueryRouter

	// chainID is loaded from the db, or saved once in InitChain
	chainID string

	// baseContext contains context info that is valid for
	// lifetime of this app (eg. chainID)
	baseContext realm.Context

	// blockContext contains context info that is valid for the
	// current block (eg. height, block time), reset on BeginBlock
	blockContext realm.Context
}

// NewStoreApp initializes this app into a ready state with some defaults.
//
// It panics if the state cannot be loaded from the given store.
func NewStoreApp(name string, store realm.CommitKVStore, queryRouter realm.QueryRouter, baseContext realm.Context) *StoreApp {
	cs, err := NewCommitStore(store)
	if err != nil {
		panic(err)
	}
	s := &StoreApp{
		name:        name,
		store:       cs,
		queryRouter: queryRouter,
		baseContext: baseContext,
	}
	s = s.WithLogger(log.NewNopLogger())

	chainID, err := loadChainID(s.DeliverStore())
	if err != nil {
		panic(err)
	}
	if chainID != "" {
		s.chainID = chainID
		s.baseContext = realm.WithChainID(s.baseContext, chainID)
	}
	networkID, err := loadNetworkID(s.DeliverStore())
	if err != nil {
		panic(err)
	}
	if networkID != nil {
		s.baseContext = realm.WithNetworkID(s.baseContext, networkID)
	}

	info, err := s.store.CommitInfo()
	if err != nil {
		panic(err)
	}
	s.blockContext = realm.WithHeight(s.baseContext, info.Version)
	return s
}

// GetChainID returns the current chainID
func (s *StoreApp) GetChainID() string {
	return s.chainID
}

// WithInit is used to set the init function we call
func (s *StoreApp) WithInit(init realm.Initializer) *StoreApp {
	s.initializer = init
	return s
}

// WithLogger sets the logger on the StoreApp and returns it,
// to make it easy to chain in initialization
//
// also sets baseContext logger
func (s *StoreApp) WithLogger(logger log.Logger) *StoreApp {
	s.baseContext = realm.WithLogger(s.baseContext, logger)
	if s.blockContext != nil {
		s.blockContext = realm.WithLogger(s.blockContext, logger)
	}
	s.logger = logger
	return s
}

// Logger returns the application base logger
func (s *StoreApp) Logger() log.Logger {
	return s.logger
}

// BlockContext returns the block context for public use
func (s *StoreApp) BlockContext() realm.Context {
	return s.blockContext
}

// DeliverStore returns the current DeliverTx cache for methods
func (s *StoreApp) DeliverStore() realm.CacheableKVStore {
	return s.store.DeliverStore()
}

// CheckStore returns the current CheckTx cache for methods
func (s *StoreApp) CheckStore() realm.CacheableKVStore {
	return s.store.CheckStore()
}

// parseAppState is called from InitChain, the first time the chain
// starts, and not on restarts.
func (s *StoreApp) parseAppState(data []byte, chainID string) error {
	if s.chainID != "" {
		return errors.Wrapf(errors.ErrState, "app state previously loaded for chain %q", s.chainID)
	}
	if len(data) == 0 {
		return errors.Wrap(errors.ErrEmpty, "app_state not set in genesis")
	}

	var appState realm.Options
	if err := json.Unmarshal(data, &appState); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	db := s.DeliverStore()
	if err := saveChainID(db, chainID); err != nil {
		return err
	}
	s.chainID = chainID
	s.baseContext = realm.WithChainID(s.baseContext, chainID)

	var networkID *big.Int
	if err := appState.ReadOptions("network_id", &networkID); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if networkID != nil {
		if err := saveNetworkID(db, networkID); err != nil {
			return err
		}
		s.baseContext = realm.WithNetworkID(s.baseContext, networkID)
	}

	if s.initializer == nil {
		return nil
	}
	return s.initializer.FromGenesis(appState, db)
}

//----------------------- ABCI ---------------------

// Info implements abci.Application. It returns the height and hash,
// as well as the abci name.
//
// The height is the block that holds the transactions, not the apphash itself.
func (s *StoreApp) Info(req abci.RequestInfo) abci.ResponseInfo {
	info, err := s.store.CommitInfo()
	if err != nil {
		panic(err)
	}

	s.logger.Info("Info synced",
		"height", info.Version,
		"hash", fmt.Sprintf("%X", info.Hash))

	return abci.ResponseInfo{
		Data:             s.name,
		LastBlockHeight:  info.Version,
		LastBlockAppHash: info.Hash,
	}
}

// Query runs the query handler registered for the request path against the
// last committed state. The handler result is returned JSON encoded in the
// Value field.
func (s *StoreApp) Query(req abci.RequestQuery) abci.ResponseQuery {
	qh := s.queryRouter.Handler(req.Path)
	if qh == nil {
		return queryError(errors.Wrapf(errors.ErrNotFound, "query path %q", req.Path))
	}

	info, err := s.store.CommitInfo()
	if err != nil {
		return queryError(err)
	}

	db := s.store.QueryStore()
	defer db.Discard()

	res, err := qh.Query(db, req.Data)
	if err != nil {
		return queryError(err)
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return queryError(errors.Wrap(errors.ErrHuman, err.Error()))
	}
	return abci.ResponseQuery{
		Key:    req.Data,
		Value:  raw,
		Height: info.Version,
	}
}

func queryError(err error) abci.ResponseQuery {
	code, msg := errors.ABCIInfo(err, false)
	return abci.ResponseQuery{Code: code, Log: msg}
}

// Commit implements abci.Application
func (s *StoreApp) Commit() abci.ResponseCommit {
	commitID, err := s.store.Commit()
	if err != nil {
		panic(err)
	}

	s.logger.Debug("Commit synced",
		"height", commitID.Version,
		"hash", fmt.Sprintf("%X", commitID.Hash),
	)
	return abci.ResponseCommit{Data: commitID.Hash}
}

// InitChain loads the application state of the genesis.
func (s *StoreApp) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	if err := s.parseAppState(req.AppStateBytes, req.ChainId); err != nil {
		panic(err)
	}
	return abci.ResponseInitChain{}
}

// BeginBlock sets up the block context with the height and time of the
// block.
func (s *StoreApp) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	ctx := realm.WithHeight(s.baseContext, req.Header.Height)
	ctx = realm.WithBlockTime(ctx, req.Header.Time)
	s.blockContext = ctx
	return abci.ResponseBeginBlock{}
}

// EndBlock implements abci.Application. Validator set changes are not
// supported.
func (s *StoreApp) EndBlock(req abci.RequestEndBlock) abci.ResponseEndBlock {
	return abci.ResponseEndBlock{}
}
