package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/ts5-mirror/internal/app"
	"github.com/vovakirdan/ts5-mirror/internal/config"
	applog "github.com/vovakirdan/ts5-mirror/internal/log"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var overrides config.Config
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the TeamSpeak client and serve the snapshot API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(overrides)
			if err != nil {
				return err
			}

			logger := applog.New(cfg.LogLevel)
			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().Str("remote", cfg.Remote.RemoteURL()).Msg("starting ts5-mirror")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("ts5-mirror exited with error")
				return err
			}
			logger.Info().Msg("ts5-mirror stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&overrides.Remote.Host, "host", "", "TeamSpeak client host")
	flags.IntVar(&overrides.Remote.Port, "port", 0, "TeamSpeak Remote Apps port")
	flags.StringVar(&overrides.Remote.APIKey, "api-key", "", "Remote Apps API key from a previous authorisation")
	flags.DurationVar(&overrides.Remote.ConnectTimeout, "connect-timeout", 0, "dial timeout")
	flags.DurationVar(&overrides.Remote.AuthTimeout, "auth-timeout", 0, "time allowed for the auth acknowledgment")
	flags.DurationVar(&overrides.Remote.ReconnectMaxDelay, "reconnect-max-delay", 0, "upper bound of the reconnect backoff")
	flags.StringVar(&overrides.HTTP.Addr, "http-addr", "", "snapshot API listen address")
	flags.StringVar(&overrides.HTTP.JWTSecret, "jwt-secret", "", "require viewer tokens signed with this secret")
	flags.DurationVar(&overrides.HTTP.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	return cmd
}
