package main

import (
	"fmt"
	"os"

	"github.com/Sternrassler/wms-enderecos/pkg/config"
	"github.com/Sternrassler/wms-enderecos/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by all subcommands.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:   "wms-enderecos",
		Short: "Export WMS storage addresses to Excel",
		Long: `wms-enderecos reads every storage address of a WMS unit through the
query API and hands them over as a table and an xlsx workbook.

Settings come from defaults, an optional config file (--config), WMS_*
environment variables and flags, in increasing order of precedence.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Configuration file (yaml, json or toml)")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("log-pretty", false, "Human-readable console logs")
	a.bind(cmd, "log.level", "log-level", true)
	a.bind(cmd, "log.pretty", "log-pretty", true)

	cmd.AddCommand(NewExportCmd(a))
	cmd.AddCommand(NewServeCmd(a))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// bind connects a flag to a configuration key.
func (a *app) bind(cmd *cobra.Command, key, flag string, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// load resolves the configuration and sets up logging.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	logging.Setup(logCfg)
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
