package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// BootConfig is the configuration cmd/ai-gateway-agent needs before the
// collaborator ever sends a Configure event: where to listen and how
// verbosely to log. The inspection policy itself (gateway/config.Config)
// is never part of this file — it only ever arrives over the wire.
type BootConfig struct {
	Network string `yaml:"network"`
	Address string `yaml:"address"`
	Debug   bool   `yaml:"debug"`
}

func defaultBootConfig() BootConfig {
	return BootConfig{
		Network: "unix",
		Address: "/tmp/ai-gateway-agent.sock",
		Debug:   false,
	}
}

// LoadBootConfig parses CLI flags and an optional --config YAML file,
// flags taking precedence over the file, the file taking precedence over
// defaultBootConfig.
func LoadBootConfig(args []string) (BootConfig, error) {
	cfg := defaultBootConfig()

	flags := pflag.NewFlagSet("ai-gateway-agent", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a boot config YAML file")
	network := flags.String("network", "", "listener network (unix or tcp)")
	address := flags.String("address", "", "listener address (socket path or host:port)")
	debug := flags.Bool("debug", false, "enable verbose logging")

	if err := flags.Parse(args); err != nil {
		return cfg, fmt.Errorf("parse flags: %w", err)
	}

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return cfg, fmt.Errorf("read boot config %s: %w", *configPath, err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse boot config %s: %w", *configPath, err)
		}
	}

	if *network != "" {
		cfg.Network = *network
	}

	if *address != "" {
		cfg.Address = *address
	}

	if *debug {
		cfg.Debug = true
	}

	return cfg, nil
}
