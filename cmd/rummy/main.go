package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version    kong.VersionFlag `short:"v" help:"Show version"`
	ConfigFile string           `name:"config" short:"c" default:"rummy.hcl" type:"path" help:"Path to the HCL configuration file"`
	LogLevel   string           `help:"Override the configured log level (debug, info, warn, error)"`

	Play     PlayCmd     `cmd:"" default:"withargs" help:"Play Five Card Rummy against the fake homies"`
	Simulate SimulateCmd `cmd:"" help:"Pit AI play styles against each other"`
	Config   ConfigCmd   `cmd:"" help:"Inspect or create the configuration file"`
	Personas PersonasCmd `cmd:"" help:"List the companion personas"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("rummy"),
		kong.Description("Five Card Rummy in the terminal with LLM-backed companions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
