package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/talvor/tmxblueprints/internal/config"
)

type options struct {
	configPath string
	assetRoot  string
	logLevel   string
}

// load reads the config file and applies flag overrides and the log level.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("root") {
		cfg.AssetRoot = o.assetRoot
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	zerolog.SetGlobalLevel(cfg.Level())
	return cfg, nil
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var opts options
	rootCmd := &cobra.Command{
		Use:          "tmxscene",
		Short:        "Build scene graphs from Tiled maps and bind their properties to records",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.FileName, "configuration file")
	rootCmd.PersistentFlags().StringVarP(&opts.assetRoot, "root", "r", ".", "directory map paths are relative to")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level")

	rootCmd.AddCommand(dumpCmd(&opts))
	rootCmd.AddCommand(propsCmd(&opts))
	rootCmd.AddCommand(viewCmd(&opts))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
