package login

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	particle "github.com/tj-smith47/particle-go"
	"github.com/tj-smith47/particle-go/internal/command/base"
)

// isTerminal is replaced in tests, where stdin may be a terminal.
var isTerminal = term.IsTerminal

type Command struct {
	*base.Command

	flagUsername string
}

func (c *Command) Synopsis() string {
	return "Log in and save an access token"
}

func (c *Command) Help() string {
	return `Usage: particle login [options]

  Exchanges a username and password for an access token and saves it to the
  token file, where later commands pick it up. Any previously saved token is
  discarded first.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := c.NewFlagSet("login")
	f.StringVar(
		&c.flagUsername, "username", "",
		"Account email. Defaults to the configured username, else prompts.",
	)
	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI
	ctx := context.Background()

	if err := c.Flags().Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}

	username := c.flagUsername
	if username == "" {
		username = cfg.Username
	}
	if username == "" {
		if username, err = ui.Ask("Username:"); err != nil {
			ui.Error(fmt.Sprintf("error reading username: %v", err))
			return 1
		}
	}

	password, err := c.readPassword()
	if err != nil {
		ui.Error(fmt.Sprintf("error reading password: %v", err))
		return 1
	}

	username, password = strings.TrimSpace(username), strings.TrimSpace(password)
	if username == "" || password == "" {
		ui.Error("username and password are required")
		return 1
	}

	store := particle.NewFileTokenStore(cfg.TokenFile)
	if err := store.Delete(ctx); err != nil {
		ui.Error(fmt.Sprintf("error removing old token: %v", err))
		return 1
	}

	opts := append(c.ClientOptions(cfg), particle.WithTokenStore(store))
	client, err := particle.NewClientFromConfig(ctx, &particle.Config{
		Username: username,
		Password: password,
		Timeout:  cfg.TimeoutDuration(),
	}, opts...)
	if err != nil {
		ui.Error(fmt.Sprintf("error logging in: %v", err))
		return 1
	}

	if !store.Exists() {
		ui.Warn("Logged in, but the token could not be saved; see the log for details.")
		return 1
	}

	msg := fmt.Sprintf("Logged in as %s. Token saved to %s", username, store.Path())
	if tok := client.Token(); tok != nil && !tok.Expiry.IsZero() {
		msg += fmt.Sprintf(" (expires %s)", tok.Expiry.Local().Format("2006-01-02 15:04"))
	}
	ui.Output(msg + ".")
	return 0
}

// readPassword reads without echo from a terminal, else from the UI.
func (c *Command) readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return c.UI.AskSecret("Password:")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	return string(b), err
}
