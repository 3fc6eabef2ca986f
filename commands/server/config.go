package server

import (
	"os"
	"path/filepath"

	"github.com/herorealm/realm/errors"
	"gopkg.in/yaml.v3"
)

// Config is the node configuration read from a YAML file. Relative paths
// are resolved against Home.
type Config struct {
	Home string `yaml:"home"`
	// ABCIAddress is the address the ABCI server listens on.
	ABCIAddress string `yaml:"abci_address"`
	// Transport is either "socket" or "grpc".
	Transport string `yaml:"transport"`
	LogLevel  string `yaml:"log_level"`
	// MetricsAddress serves prometheus metrics. Empty disables it.
	MetricsAddress string `yaml:"metrics_address"`
	// Genesis is the Tendermint genesis file the app_state is written to.
	Genesis string `yaml:"genesis"`
	// Debug returns full error logs to clients.
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig(home string) Config {
	return Config{
		Home:           home,
		ABCIAddress:    "tcp://localhost:26658",
		Transport:      "socket",
		LogLevel:       "info",
		MetricsAddress: "localhost:2112",
		Genesis:        filepath.Join("config", "genesis.json"),
	}
}

// LoadConfig reads the configuration at path on top of the defaults. A
// missing file leaves the defaults unchanged.
func LoadConfig(path, home string) (Config, error) {
	conf := DefaultConfig(home)
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return conf, nil
	case err != nil:
		return Config{}, errors.Wrapf(errors.ErrInput, "read config: %s", err)
	}
	if err := yaml.Unmarshal(raw, &conf); err != nil {
		return Config{}, errors.Wrapf(errors.ErrInput, "parse config: %s", err)
	}
	if conf.Home == "" {
		conf.Home = home
	}
	return conf, conf.Validate()
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Home == "" {
		return errors.Wrap(errors.ErrEmpty, "home")
	}
	if c.ABCIAddress == "" {
		return errors.Wrap(errors.ErrEmpty, "abci address")
	}
	switch c.Transport {
	case "socket", "grpc":
	default:
		return errors.Wrapf(errors.ErrInput, "transport %q", c.Transport)
	}
	if c.Genesis == "" {
		return errors.Wrap(errors.ErrEmpty, "genesis")
	}
	return nil
}

// GenesisFile returns the absolute path of the genesis file.
func (c Config) GenesisFile() string {
	return c.abs(c.Genesis)
}

func (c Config) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Home, path)
}
