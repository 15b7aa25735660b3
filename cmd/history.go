package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/listenlog/internal/formatter"
	"github.com/desertthunder/listenlog/internal/services"
	"github.com/desertthunder/listenlog/internal/shared"
	"github.com/desertthunder/listenlog/internal/stats"
	"github.com/urfave/cli/v3"
)

// accessToken takes the token from --token, or from the credential inside --session.
func (r *Runner) accessToken(cmd *cli.Command) (string, error) {
	if token := strings.TrimSpace(cmd.String("token")); token != "" {
		return token, nil
	}

	value := cmd.String("session")
	if value == "" {
		return "", fmt.Errorf("%w: --token or --session", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return "", err
	}
	sess, err := r.readSession(config, value)
	if err != nil {
		return "", err
	}

	cred := sess.Credential
	if cred == nil || cred.AccessToken == "" {
		return "", fmt.Errorf("%w: session has no access token", shared.ErrNotAuthenticated)
	}
	if cred.Expired(r.now()) {
		return "", shared.ErrTokenExpired
	}
	return cred.AccessToken, nil
}

// History fetches recent plays with liked status and prints them in the chosen format.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	token, err := r.accessToken(cmd)
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Debug("fetching recently played", "token", shared.MaskToken(token))
	page, err := services.History(ctx, r.spotifyClient(config), token, r.logger)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}

	items := stats.SortNewestFirst(page.Items)
	now := r.now()

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(items, format, path, now); err != nil {
			return err
		}
		r.logger.Info("history written", "path", path, "tracks", len(items))
		return nil
	}

	data, err := formatter.Export(items, format, now)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
