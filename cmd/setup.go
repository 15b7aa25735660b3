package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/listenlog/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the config template to --config and suggests a session secret.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	r.logger.Info("creating config file from template", "path", configPath)
	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	secret, err := shared.GenerateSecret(32)
	if err != nil {
		return err
	}

	r.writePlain("✓ Config written to %s\n\n", configPath)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Add your Spotify client_id and client_secret under [credentials.spotify]\n")
	r.writePlain("2. Set a session secret, for example:\n   export LISTENLOG_SESSION_SECRET=%s\n", secret)
	r.writePlain("3. Run 'listenlog serve --open' to sign in\n")
	return nil
}

// Secret prints a random base64url secret suitable for session.secret.
func (r *Runner) Secret(ctx context.Context, cmd *cli.Command) error {
	n := int(cmd.Int("bytes"))
	if n < 16 {
		return fmt.Errorf("%w: --bytes must be at least 16", shared.ErrInvalidFlag)
	}

	secret, err := shared.GenerateSecret(n)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", secret)
}
