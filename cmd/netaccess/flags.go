package main

import (
	"fmt"
	"github.com/skybi/netaccess/internal/config"
	"github.com/spf13/pflag"
	"io"
	"os"
)

// cliOptions holds the flags that do not map onto the configuration structure
type cliOptions struct {
	showMachines bool
	debug        bool
	help         bool
}

// applyFlags parses the command line and lets every explicitly set flag override the loaded configuration
func applyFlags(cfg *config.Config, args []string) (cliOptions, *pflag.FlagSet, error) {
	var opts cliOptions
	var strict bool

	flagSet := pflag.NewFlagSet("netaccess", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.IntVarP(&cfg.Duration, "duration", "d", cfg.Duration, "approval window: 1 (1 hour) or 2 (1 day)")
	flagSet.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "root URL of the portal")
	flagSet.BoolVar(&strict, "strict", false, "treat an approval without confirmation text as a failure")
	flagSet.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout of every single portal request")
	flagSet.IntVar(&cfg.Retries, "retries", cfg.Retries, "re-send failed portal requests up to this many times")
	flagSet.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "delay between two attempts of the same request")
	flagSet.BoolVar(&opts.showMachines, "show-machines", false, "print the authorized machines after the approval")
	flagSet.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		return opts, flagSet, err
	}
	if flagSet.NArg() > 0 {
		return opts, flagSet, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	if strict {
		cfg.ApprovePolicy = "strict"
	}
	return opts, flagSet, nil
}

// helpRequested returns whether the command line asks for the usage text
func helpRequested(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "-h" || arg == "--help" {
			return true
		}
	}
	return false
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `netaccess logs into the campus network-access portal and approves this machine.

Credentials are read from NA_USERNAME and NA_PASSWORD (or NA_PASSWORD_FILE),
optionally loaded from a .env file in the working directory.

Usage:
  netaccess [flags]

Flags:
%s`, flagSet.FlagUsages())
}
