package publish

import (
	"context"
	"fmt"

	particle "github.com/tj-smith47/particle-go"
	"github.com/tj-smith47/particle-go/internal/command/base"
)

type Command struct {
	*base.Command

	flagPrivate bool
	flagTTL     int
}

func (c *Command) Synopsis() string {
	return "Publish an event"
}

func (c *Command) Help() string {
	return `Usage: particle publish [options] <name> [data]

  Publishes an event on the account's event stream.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := c.NewFlagSet("publish")
	f.BoolVar(
		&c.flagPrivate, "private", false,
		"Deliver only to the account's own devices and streams.",
	)
	f.IntVar(
		&c.flagTTL, "ttl", 0,
		"Event time to live in `seconds`. Zero leaves it to the cloud.",
	)
	return f
}

func (c *Command) Run(args []string) int {
	ctx := context.Background()

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	rest := f.Args()
	if len(rest) < 1 || len(rest) > 2 {
		c.UI.Error("usage: particle publish [options] <name> [data]")
		return 1
	}
	if c.flagTTL < 0 {
		c.UI.Error("ttl must not be negative")
		return 1
	}

	_, client := c.Connect(ctx)
	if client == nil {
		return 1
	}

	ev := &particle.PublishEvent{Name: rest[0], Private: c.flagPrivate, TTL: c.flagTTL}
	if len(rest) == 2 {
		ev.Data = rest[1]
	}

	if err := client.PublishEvent(ctx, ev); err != nil {
		c.UI.Error(fmt.Sprintf("error publishing %s: %v", ev.Name, err))
		return 1
	}

	scope := "public"
	if ev.Private {
		scope = "private"
	}
	c.UI.Output(fmt.Sprintf("Published %s event %s.", scope, ev.Name))
	return 0
}
