package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the qconv configuration file (~/.config/qconv/config.yaml).
// Every field is optional; flags given on the command line win.
type Config struct {
	Backend   string `yaml:"backend"`
	Rounding  string `yaml:"rounding"`
	GoldenDir string `yaml:"golden_dir"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "qconv", "config.yaml")
}

// applyRootConfig applies config file defaults to the global flags when
// the corresponding flag was not explicitly set.
func applyRootConfig(c *cli.Command, cfg Config) {
	if cfg.Backend != "" && !c.IsSet("backend") {
		backendName = cfg.Backend
	}
	if cfg.Rounding != "" && !c.IsSet("rounding") {
		rounding = cfg.Rounding
	}
	if cfg.GoldenDir != "" && !c.IsSet("golden-dir") {
		goldenDir = cfg.GoldenDir
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file at path. Returns a zero Config if the
// file doesn't exist or doesn't parse.
func LoadConfig(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// activeConfig reloads the config the root command resolved.
func activeConfig() Config {
	if configFile != "" {
		return LoadConfig(configFile)
	}
	return LoadConfig(configPath())
}
