// Package base holds what every particle subcommand shares: the logger and
// UI, the -config flag, and construction of an authenticated client.
package base

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	particle "github.com/tj-smith47/particle-go"
	"github.com/tj-smith47/particle-go/internal/config"
)

// UserAgent is sent by every CLI request.
const UserAgent = "particle-go-cli/" + particle.Version

// ErrNotLoggedIn is returned when neither the configuration nor the token
// file holds usable credentials.
var ErrNotLoggedIn = errors.New(`not logged in: run "particle login" or set PARTICLE_TOKEN`)

type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	flagConfig string
}

// NewFlagSet returns a flag set for the named subcommand with -config
// already registered.
func (c *Command) NewFlagSet(name string) *FlagSet {
	f := NewFlagSet(flag.NewFlagSet(name, flag.ContinueOnError))
	f.StringVar(
		&c.flagConfig, "config", "",
		fmt.Sprintf("Path to a YAML or TOML config file. Defaults to %s.", config.DefaultPath()),
	)
	return f
}

// LoadConfig reads the file named by -config, applies PARTICLE_* overrides,
// and sets the log level from the result.
func (c *Command) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.flagConfig)
	if err != nil {
		return nil, err
	}
	c.Log.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	return cfg, nil
}

// Client returns an authenticated client for cfg.
//
// Configured credentials win: an access token is used as is, a username and
// password are exchanged unless the token file still holds a valid token.
// Without configured credentials the token file must hold one.
func (c *Command) Client(ctx context.Context, cfg *config.Config) (*particle.Client, error) {
	opts := c.ClientOptions(cfg)
	store := particle.NewFileTokenStore(cfg.TokenFile)
	if cfg.HasCredentials() {
		opts = append(opts, particle.WithTokenStore(store))
		return particle.NewClientFromConfig(ctx, cfg.Particle(), opts...)
	}

	tokens, err := store.LoadTokens(ctx)
	switch {
	case errors.Is(err, particle.ErrNoStoredToken):
		return nil, ErrNotLoggedIn
	case err != nil:
		return nil, err
	case !tokens.IsValid():
		c.Log.Debug("stored token expired", "path", store.Path(), "expires_at", tokens.ExpiresAt)
		return nil, ErrNotLoggedIn
	}

	return particle.NewClient(tokens.AccessToken, opts...)
}

// ClientOptions returns the options every CLI client is built with.
func (c *Command) ClientOptions(cfg *config.Config) []particle.Option {
	opts := []particle.Option{
		particle.WithLogger(NewLogger(c.Log)),
		particle.WithUserAgent(UserAgent),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, particle.WithBaseURL(cfg.BaseURL))
	}
	if d := cfg.TimeoutDuration(); d > 0 {
		opts = append(opts, particle.WithTimeout(d))
	}
	return opts
}

// Setup parses args with f, loads the configuration and builds a client.
// Problems are reported on the UI; a nil client means Run should return 1.
func (c *Command) Setup(ctx context.Context, f *FlagSet, args []string) (*config.Config, *particle.Client) {
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return nil, nil
	}
	return c.Connect(ctx)
}

// Connect is Setup for commands that have already parsed their flags.
func (c *Command) Connect(ctx context.Context) (*config.Config, *particle.Client) {
	cfg, err := c.LoadConfig()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading config: %v", err))
		return nil, nil
	}

	client, err := c.Client(ctx, cfg)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating client: %v", err))
		return nil, nil
	}
	return cfg, client
}
