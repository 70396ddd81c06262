// Package cli holds the ts5-mirror command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/ts5-mirror/internal/config"
	applog "github.com/vovakirdan/ts5-mirror/internal/log"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "ts5-mirror",
		Short:         "Mirror TeamSpeak 5 client state and serve it to overlays",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml (created with defaults when missing)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newTokenCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// load resolves configuration: defaults < file < env < overrides.
func (o *rootOptions) load(overrides config.Config) (config.Config, error) {
	bootLogger := applog.New("info")
	cfg, path, err := config.Load(bootLogger, o.configPath)
	if err != nil {
		return cfg, err
	}

	overrides.LogLevel = o.logLevel
	cfg.UpdateFrom(overrides)
	bootLogger.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}
