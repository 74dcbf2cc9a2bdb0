package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/lox/rummy/internal/config"
	"github.com/lox/rummy/internal/fileutil"
)

// ConfigCmd groups the configuration subcommands
type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Write a configuration file with the default settings"`
	Show ConfigShowCmd `cmd:"" help:"Print the effective configuration"`
}

// ConfigInitCmd writes the defaults to the config path
type ConfigInitCmd struct {
	Force bool `short:"f" help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run(cli *CLI) error {
	if _, err := os.Stat(cli.ConfigFile); err == nil && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", cli.ConfigFile)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := fileutil.WriteAtomic(cli.ConfigFile, 0o644, config.DefaultConfig().WriteHCL); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", cli.ConfigFile)
	return nil
}

// ConfigShowCmd prints the configuration after defaults are applied
type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	return cfg.WriteHCL(os.Stdout)
}

// loadConfig reads the config file, applies the global overrides and
// validates the result
func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	return cfg, nil
}
