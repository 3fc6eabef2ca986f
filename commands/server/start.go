package server

import (
	"context"
	"io"

	"github.com/herorealm/realm/errors"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
	tmos "github.com/tendermint/tendermint/libs/os"
)

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags. The closer
// releases the resources of the application.
type AppGenerator func(home string, logger log.Logger, debug bool) (abci.Application, io.Closer, error)

// StartCmd runs the ABCI server until the process receives an interrupt.
func StartCmd(gen AppGenerator, logger log.Logger, conf Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		done <- Run(ctx, gen, logger, conf)
		close(stopped)
	}()

	tmos.TrapSignal(logger, func() {
		cancel()
		<-stopped
	})
	return <-done
}

// Run starts the ABCI server and the metrics service and blocks until
// ctx is done. Both are stopped and the application closed before it
// returns.
func Run(ctx context.Context, gen AppGenerator, logger log.Logger, conf Config) error {
	if err := conf.Validate(); err != nil {
		return err
	}
	// Generate the app in the proper dir
	app, closer, err := gen(conf.Home, logger, conf.Debug)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Error("Cannot close application", "err", err)
		}
	}()

	logger.Info("Starting ABCI app", "bind", conf.ABCIAddress, "transport", conf.Transport)
	svr, err := server.NewServer(conf.ABCIAddress, conf.Transport, app)
	if err != nil {
		return errors.Wrapf(errors.ErrNetwork, "creating listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrapf(errors.ErrNetwork, "starting server: %s", err)
	}

	metrics := NewMetricsService(conf.MetricsAddress, logger)
	go metrics.Start()

	<-ctx.Done()
	metrics.ShutDown()
	if err := svr.Stop(); err != nil {
		logger.Error("Cannot stop ABCI server", "err", err)
	}
	return nil
}
