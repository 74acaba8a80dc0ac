package device

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/tj-smith47/particle-go/internal/command/base"
	"github.com/tj-smith47/particle-go/internal/command/commands/devices"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Inspect and manage a single device"
}

func (c *Command) Help() string {
	return `Usage: particle device <subcommand> [options] [args]

  This command groups subcommands acting on one device, addressed by id.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

// positional parses args and checks the number of remaining arguments is
// between least and most.
func positional(c *base.Command, f *base.FlagSet, args []string, least, most int, usage string) ([]string, bool) {
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return nil, false
	}
	rest := f.Args()
	if len(rest) < least || len(rest) > most {
		c.UI.Error("usage: particle device " + usage)
		return nil, false
	}
	return rest, true
}

type InfoCommand struct {
	*base.Command
}

func (c *InfoCommand) Synopsis() string {
	return "Show a device's details, functions and variables"
}

func (c *InfoCommand) Help() string {
	return `Usage: particle device info [options] <device id>` + c.NewFlagSet("info").Help()
}

func (c *InfoCommand) Run(args []string) int {
	ctx := context.Background()
	f := c.NewFlagSet("info")
	rest, ok := positional(c.Command, f, args, 1, 1, "info <device id>")
	if !ok {
		return 1
	}
	_, client := c.Connect(ctx)
	if client == nil {
		return 1
	}

	info, err := client.Device(rest[0]).Info(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error getting device %s: %v", rest[0], err))
		return 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ID:        %s\n", info.ID)
	fmt.Fprintf(&b, "Name:      %s\n", info.Name)
	fmt.Fprintf(&b, "Platform:  %s\n", devices.PlatformName(info.PlatformID))
	fmt.Fprintf(&b, "Status:    %s\n", devices.Status(info.Connected))
	if info.SystemFirmwareVersion != "" {
		fmt.Fprintf(&b, "Firmware:  %s\n", info.SystemFirmwareVersion)
	}
	if info.Notes != "" {
		fmt.Fprintf(&b, "Notes:     %s\n", info.Notes)
	}

	b.WriteString("Functions:")
	if len(info.Functions) == 0 {
		b.WriteString(" none")
	}
	for _, fn := range info.Functions {
		fmt.Fprintf(&b, "\n  %s(String args)", fn)
	}

	b.WriteString("\nVariables:")
	if len(info.Variables) == 0 {
		b.WriteString(" none")
	}
	names := make([]string, 0, len(info.Variables))
	for name := range info.Variables {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %s (%s)", name, info.Variables[name])
	}

	c.UI.Output(b.String())
	return 0
}
