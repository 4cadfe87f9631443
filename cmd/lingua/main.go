// Command lingua runs the multilingual chat server and its helper tools.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/internal/config"
)

// Options is the root command. Sub-commands implement flags.Commander.
type Options struct {
	Config string   `short:"f" long:"config" description:"path to a lingua YAML config file"`
	Serve  ServeCmd `command:"serve" description:"Start the HTTP and WebSocket server"`
	Token  TokenCmd `command:"token" description:"Mint a user JWT for local testing"`
	Chat   ChatCmd  `command:"chat" description:"Chat with the assistant from the terminal"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration selected by --config and builds the logger
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
