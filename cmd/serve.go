package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/common-nighthawk/go-figure"
	"github.com/desertthunder/listenlog/internal/server"
	"github.com/desertthunder/listenlog/internal/services"
	"github.com/desertthunder/listenlog/internal/session"
	"github.com/desertthunder/listenlog/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the API server until the context is cancelled.
//
// A missing session secret stops startup before anything listens.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := int(cmd.Int("port")); port != 0 {
		config.Server.Port = port
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("cannot start server: %w", err)
	}
	if err := shared.SetLogLevel(r.logger, config.Log.Level); err != nil {
		return err
	}

	app, err := r.buildApp(config)
	if err != nil {
		return err
	}

	r.banner()
	for _, route := range app.Routes() {
		r.logger.Debug("route registered", "route", route)
	}

	addr := config.Server.Addr()
	if cmd.Bool("open") {
		target := "http://" + browsableAddr(addr) + server.SignInPath
		if err := shared.OpenBrowser(target); err != nil {
			r.logger.Warn("could not open browser", "url", target, "err", err)
		}
	}

	return server.Serve(ctx, addr, app, cmd.Duration("grace"), r.logger)
}

// buildApp wires the session store, extractor, Spotify client and sign-in flow into the router.
func (r *Runner) buildApp(config *shared.Config) (*server.BasicRouter, error) {
	secret := []byte(config.Session.Secret)
	opts := []session.Option{
		session.WithCookieName(config.Session.CookieName),
		session.WithMaxAge(config.Session.MaxAge),
		session.WithSecure(config.Server.Production()),
	}

	store, err := session.NewStore(secret, opts...)
	if err != nil {
		return nil, err
	}
	extractor, err := session.NewExtractor(secret, opts...)
	if err != nil {
		return nil, err
	}

	appOpts := server.AppOptions{
		Sessions:  extractor,
		Upstream:  r.spotifyClient(config),
		Logger:    r.logger,
		RateLimit: config.Server.RateLimit,
		RateBurst: config.Server.RateBurst,
		Secure:    config.Server.Production(),
	}

	if config.Credentials.Spotify.Configured() {
		auth, err := services.NewSpotifyAuth(config.Credentials.Spotify)
		if err != nil {
			return nil, err
		}
		appOpts.Auth = auth
		appOpts.Store = store
	}

	return server.NewApp(appOpts), nil
}

func (r *Runner) banner() {
	r.writePlain("%s\n", figure.NewFigure("listenlog", "cybermedium", true).String())
}

// browsableAddr swaps a wildcard listen host for loopback.
func browsableAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	if _, err := strconv.Atoi(port); err != nil {
		return addr
	}
	return net.JoinHostPort(host, port)
}
