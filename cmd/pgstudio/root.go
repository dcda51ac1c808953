package main

import (
	"github.com/spf13/cobra"

	"github.com/marcogbarcellos/pgstudio/internal/config"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

type rootOptions struct {
	configFile string
	envFile    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "pgstudio",
		Short:         "PostgreSQL workbench backend",
		Long:          "pgstudio keeps saved Postgres connections, runs queries, browses catalogs and drives pg_dump/pg_restore.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.Options{
				File:    opts.configFile,
				EnvFile: opts.envFile,
				Flags:   cmd.Flags(),
			})
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "path to a YAML config file (default ./"+config.DefaultFileName+" when present)")
	pf.StringVar(&opts.envFile, "env-file", "", "path to a .env file (default ./.env when present)")
	pf.String("data-dir", "", "directory for local state")
	pf.String("state-db", "", "path of the local state database")
	pf.String("log-level", "info", "log level: debug|info|warn|error")
	pf.String("keyring", "", "credential backend: auto|file|memory")
	pf.StringSlice("tools-dir", nil, "extra directories searched for pg_dump, pg_restore and psql")

	cmd.AddCommand(
		newServeCmd(opts),
		newToolsCmd(opts),
		newDumpCmd(opts),
		newRestoreCmd(opts),
		newTransferCmd(opts),
		newConnectionsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}
