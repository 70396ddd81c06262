package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/ts5-mirror/internal/auth"
	"github.com/vovakirdan/ts5-mirror/internal/config"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		viewer    string
		ttl       time.Duration
		overrides config.Config
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a viewer token for the snapshot API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(overrides)
			if err != nil {
				return err
			}

			token, err := auth.GenerateToken(auth.ConfigFrom(cfg.HTTP, ttl), viewer)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&viewer, "viewer", "overlay", "viewer name carried in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	cmd.Flags().StringVar(&overrides.HTTP.JWTSecret, "jwt-secret", "", "signing secret, overrides config")

	return cmd
}
