package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/netaccess/internal/config"
	"github.com/skybi/netaccess/internal/netaccess"
	"github.com/skybi/netaccess/internal/transport"
	"github.com/skybi/netaccess/internal/workflow"
	"github.com/spf13/pflag"
	"os"
	"os/signal"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Set up zerolog to use pretty printing and tag every line with the ID of this run
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	}).With().Str("run", uuid.NewString()).Logger()

	// Usage must stay reachable even if the environment is malformed
	if helpRequested(args) {
		_, flagSet, _ := applyFlags(new(config.Config), args)
		printUsage(flagSet)
		return 0
	}

	// Load the application configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error().Err(err).Msg("could not load the configuration")
		return 2
	}
	opts, flagSet, err := applyFlags(cfg, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(flagSet)
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		printUsage(flagSet)
		return 2
	}
	if opts.help {
		printUsage(flagSet)
		return 0
	}
	if cfg.IsEnvProduction() && !opts.debug {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("config", fmt.Sprintf("%+v", cfg)).Msg("")

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 2
	}
	policy, err := cfg.Policy()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 2
	}

	client, err := netaccess.New(cfg.BaseURL,
		netaccess.WithTimeout(cfg.Timeout),
		netaccess.WithTransport(transport.Logging(transport.Retrying(nil, cfg.Retries, cfg.RetryDelay))),
		netaccess.WithApprovePolicy(policy),
	)
	if err != nil {
		log.Error().Err(err).Msg("could not create the portal client")
		return 2
	}

	// Abort the run on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().Str("portal", client.BaseURL()).Msg("starting netaccess automation...")
	result, err := workflow.Run(ctx, client, workflow.Credentials{
		Username: cfg.Username,
		Password: cfg.Password,
	}, workflow.Options{
		Duration:      netaccess.Duration(cfg.Duration),
		FetchMachines: true,
	})
	if err != nil {
		log.Error().Err(err).Msg("netaccess automation failed - check the network connection and credentials")
		return 1
	}

	if opts.showMachines && result.MachinesPage != "" {
		printMachines(result.MachinesPage)
	}
	log.Info().Msg("netaccess automation completed successfully")
	return 0
}

func printMachines(page string) {
	machines, err := netaccess.ParseMachines(page)
	if err != nil {
		log.Warn().Err(err).Msg("could not parse the authorized machines page")
		return
	}
	if len(machines) == 0 {
		fmt.Println("no authorized machines listed")
		return
	}
	for _, machine := range machines {
		fmt.Printf("%-16s %-18s %s\n", machine.IP, machine.MAC, machine.Expires)
	}
}
