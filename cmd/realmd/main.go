package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/herorealm/realm"
	realmd "github.com/herorealm/realm/cmd/realmd/app"
	"github.com/herorealm/realm/commands/server"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/urfave/cli"
)

func main() {
	ctl := newApp()
	if err := ctl.Run(os.Args); err != nil {
		fmt.Fprintln(ctl.ErrWriter, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".realm")

	ctl := cli.NewApp()
	ctl.Name = "realmd"
	ctl.Usage = "Hero Realm game economy node"
	ctl.Version = realm.Version()
	ctl.ErrWriter = os.Stderr
	ctl.Flags = []cli.Flag{
		cli.StringFlag{Name: "home", Value: defaultHome, Usage: "directory to store files under"},
		cli.StringFlag{Name: "config, c", Usage: "YAML configuration file (default <home>/config/realmd.yaml)"},
		cli.StringFlag{Name: "log_level", Usage: "overrides the configured log level"},
	}
	ctl.Commands = []cli.Command{
		{
			Name:      "init",
			Usage:     "write the app_state of a development network to the genesis file",
			ArgsUsage: "[admin address]",
			Action:    initChain,
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "force", Usage: "replace an existing app_state"},
			},
		},
		{
			Name:   "start",
			Usage:  "run the ABCI server",
			Action: start,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "bind", Usage: "overrides the configured ABCI address"},
				cli.BoolFlag{Name: "debug", Usage: "call stack returned on error"},
			},
		},
		{
			Name:      "validate",
			Usage:     "check that genesis files load",
			ArgsUsage: "<genesis file>...",
			Action:    validate,
		},
	}
	return ctl
}

func loadConfig(ctx *cli.Context) (server.Config, log.Logger, error) {
	home := ctx.GlobalString("home")
	path := ctx.GlobalString("config")
	if path == "" {
		path = filepath.Join(home, "config", "realmd.yaml")
	}
	conf, err := server.LoadConfig(path, home)
	if err != nil {
		return server.Config{}, nil, cli.NewExitError(err, 1)
	}
	if lvl := ctx.GlobalString("log_level"); lvl != "" {
		conf.LogLevel = lvl
	}

	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	option, err := log.AllowLevel(conf.LogLevel)
	if err != nil {
		return server.Config{}, nil, cli.NewExitError(err, 1)
	}
	return conf, log.NewFilter(logger, option).With("module", "realm"), nil
}

func initChain(ctx *cli.Context) error {
	conf, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := server.InitCmd(realmd.GenInitOptions, logger, conf, os.Stdout, ctx.Bool("force"), ctx.Args()); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func start(ctx *cli.Context) error {
	conf, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if bind := ctx.String("bind"); bind != "" {
		conf.ABCIAddress = bind
	}
	if ctx.Bool("debug") {
		conf.Debug = true
	}
	if err := server.StartCmd(realmd.GenerateApp, logger, conf); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func validate(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.NewExitError("at least one genesis file is required", 1)
	}
	if err := server.ValidateGenesis(realmd.Initializers(), ctx.Args()); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Println("genesis is valid")
	return nil
}
