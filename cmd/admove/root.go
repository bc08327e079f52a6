package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/8bits1beard-io/admove/internal/batch"
	"github.com/8bits1beard-io/admove/internal/config"
	adldap "github.com/8bits1beard-io/admove/internal/ldap"
	"github.com/8bits1beard-io/admove/internal/logging"
	"github.com/8bits1beard-io/admove/internal/worklist"
)

func rootCommand() *cobra.Command {
	var (
		configPath string
		flags      config.Config
	)

	cmd := &cobra.Command{
		Use:   "admove",
		Short: "Bulk-move directory objects into a target organizational unit",
		Long: `admove reads object identifiers from a file, resolves each one
against Active Directory, and moves it into the target organizational
unit. Every object is attempted regardless of earlier failures; outcomes
are written to an append-only audit log and summarized at the end.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd, configPath, &flags)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&flags.Input, "input", "i", "", "path to file of object identifiers, one per line")
	cmd.Flags().StringVarP(&flags.Destination, "destination", "d", "", "distinguished name of the target organizational unit")
	cmd.Flags().StringVarP(&flags.LogPath, "log", "l", "", "path to the append-only audit log")
	cmd.Flags().StringVarP(&flags.Server, "server", "s", "", "directory server URL, host, or domain for SRV discovery")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML configuration file")
	cmd.Flags().StringVarP(&flags.Username, "username", "u", "", "bind username (DN, UPN, or SAM format)")
	cmd.Flags().StringVarP(&flags.Password, "password", "p", "", "bind password")
	cmd.Flags().StringVar(&flags.BaseDN, "base-dn", "", "search base DN (discovered from the root DSE when omitted)")
	cmd.Flags().BoolVar(&flags.Insecure, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().IntVar(&flags.TimeoutSeconds, "timeout", 30, "directory operation timeout in seconds")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "log connection-layer diagnostics")

	return cmd
}

// buildConfig layers defaults, TOML file, environment, and flags, in
// ascending precedence.
func buildConfig(cmd *cobra.Command, configPath string, flags *config.Config) (*config.Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	override := func(name string, dst *string, src string) {
		if cmd.Flags().Changed(name) {
			*dst = src
		}
	}
	override("input", &cfg.Input, flags.Input)
	override("destination", &cfg.Destination, flags.Destination)
	override("log", &cfg.LogPath, flags.LogPath)
	override("server", &cfg.Server, flags.Server)
	override("username", &cfg.Username, flags.Username)
	override("password", &cfg.Password, flags.Password)
	override("base-dn", &cfg.BaseDN, flags.BaseDN)
	if cmd.Flags().Changed("insecure") {
		cfg.Insecure = flags.Insecure
	}
	if cmd.Flags().Changed("timeout") {
		cfg.TimeoutSeconds = flags.TimeoutSeconds
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = flags.Verbose
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run executes the full relocation: connect, validate the destination,
// load the worklist, move every object, summarize. Item failures never
// fail the run; only setup errors do.
func run(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, closer, err := logging.New(logging.Options{
		Path:    cfg.LogPath,
		Verbose: cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info("starting bulk move",
		"input", cfg.Input,
		"destination", cfg.Destination,
		"server", cfg.Server)

	// setup failures after this point are fatal and go into the audit log
	fail := func(err error) error {
		log.Error(err.Error())
		return err
	}

	// load the worklist before touching the directory: a bad input file
	// is knowable without a connection
	identifiers, err := worklist.Load(cfg.Input, log)
	if err != nil {
		return fail(err)
	}
	log.Info("loaded worklist", "count", len(identifiers))

	client, err := adldap.NewClient(ctx, cfg.ConnectionConfig(log))
	if err != nil {
		return fail(fmt.Errorf("configuring directory client: %w", err))
	}
	if err := client.Connect(ctx); err != nil {
		return fail(fmt.Errorf("connecting to directory: %w", err))
	}
	defer client.Close()

	baseDN := cfg.BaseDN
	if baseDN == "" {
		baseDN, err = client.GetBaseDN(ctx)
		if err != nil {
			return fail(fmt.Errorf("discovering base DN: %w", err))
		}
		log.Info("discovered base DN from root DSE", "base_dn", baseDN)
	}

	resolver := adldap.NewResolver(client, baseDN)
	resolver.SetTimeout(cfg.Timeout())

	if err := resolver.ValidateDestination(ctx, cfg.Destination); err != nil {
		return fail(fmt.Errorf("validating destination %s: %w", cfg.Destination, err))
	}
	log.Info("destination validated", "destination", cfg.Destination)

	result := batch.Run(ctx, identifiers, cfg.Destination, resolver, log)
	result.LogPath = cfg.LogPath

	batch.Summarize(result, log, os.Stdout)
	return nil
}
