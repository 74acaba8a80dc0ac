package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/cli"

	particle "github.com/tj-smith47/particle-go"
	"github.com/tj-smith47/particle-go/internal/command/base"
)

const basicAuthHint = "access token management needs a username and password in the config file or PARTICLE_USERNAME and PARTICLE_PASSWORD"

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Manage access tokens"
}

func (c *Command) Help() string {
	return `Usage: particle token <subcommand> [options] [args]

  This command groups subcommands for the account's access tokens. They
  authenticate with the account username and password, not a token.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

// report prints err, pointing at the missing credentials when that is the cause.
func report(ui cli.Ui, action string, err error) {
	if errors.Is(err, particle.ErrNoCredentials) {
		ui.Error(fmt.Sprintf("error %s: %s", action, basicAuthHint))
		return
	}
	ui.Error(fmt.Sprintf("error %s: %v", action, err))
}

type ListCommand struct {
	*base.Command
}

func (c *ListCommand) Synopsis() string {
	return "List access tokens"
}

func (c *ListCommand) Help() string {
	return `Usage: particle token list [options]` + c.NewFlagSet("list").Help()
}

func (c *ListCommand) Run(args []string) int {
	ctx := context.Background()
	_, client := c.Setup(ctx, c.NewFlagSet("list"), args)
	if client == nil {
		return 1
	}

	tokens, err := client.ListAccessTokens(ctx)
	if err != nil {
		report(c.UI, "listing tokens", err)
		return 1
	}
	if len(tokens) == 0 {
		c.UI.Info("No access tokens.")
		return 0
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tEXPIRES\tCLIENT")
	for _, t := range tokens {
		expires := "never"
		if !t.ExpiresAt.IsZero() {
			expires = t.ExpiresAt.Local().Format("2006-01-02 15:04")
		}
		client := t.Client
		if client == "" {
			client = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Token, expires, client)
	}
	w.Flush()
	c.UI.Output(strings.TrimRight(b.String(), "\n"))
	return 0
}

type CreateCommand struct {
	*base.Command
}

func (c *CreateCommand) Synopsis() string {
	return "Create a new access token"
}

func (c *CreateCommand) Help() string {
	return `Usage: particle token create [options]

  Exchanges the configured username and password for a new token and prints
  it. The saved login token is left alone.` + c.NewFlagSet("create").Help()
}

func (c *CreateCommand) Run(args []string) int {
	ctx := context.Background()
	_, client := c.Setup(ctx, c.NewFlagSet("create"), args)
	if client == nil {
		return 1
	}

	tok, err := client.GenerateAccessToken(ctx)
	if err != nil {
		report(c.UI, "creating token", err)
		return 1
	}

	c.UI.Output(tok.AccessToken)
	if !tok.ExpiresAt.IsZero() {
		c.UI.Info(fmt.Sprintf("Expires %s.", tok.ExpiresAt.Local().Format("2006-01-02 15:04")))
	}
	return 0
}

type DeleteCommand struct {
	*base.Command
}

func (c *DeleteCommand) Synopsis() string {
	return "Revoke an access token"
}

func (c *DeleteCommand) Help() string {
	return `Usage: particle token delete [options] <token>` + c.NewFlagSet("delete").Help()
}

func (c *DeleteCommand) Run(args []string) int {
	ctx := context.Background()

	f := c.NewFlagSet("delete")
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("usage: particle token delete [options] <token>")
		return 1
	}

	_, client := c.Connect(ctx)
	if client == nil {
		return 1
	}

	if err := client.DeleteAccessToken(ctx, f.Arg(0)); err != nil {
		report(c.UI, "deleting token", err)
		return 1
	}
	c.UI.Output("Token deleted.")
	return 0
}
