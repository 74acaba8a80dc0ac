package device

import (
	"context"
	"encoding/json"
	"fmt"

	particle "github.com/tj-smith47/particle-go"
	"github.com/tj-smith47/particle-go/internal/command/base"
)

type GetCommand struct {
	*base.Command
}

func (c *GetCommand) Synopsis() string {
	return "Read a cloud variable"
}

func (c *GetCommand) Help() string {
	return `Usage: particle device get [options] <device id> <variable>

  Prints the variable's current value. Strings are printed bare, other
  values as JSON.` + c.NewFlagSet("get").Help()
}

func (c *GetCommand) Run(args []string) int {
	ctx := context.Background()
	f := c.NewFlagSet("get")
	rest, ok := positional(c.Command, f, args, 2, 2, "get <device id> <variable>")
	if !ok {
		return 1
	}
	_, client := c.Connect(ctx)
	if client == nil {
		return 1
	}

	v, err := client.Device(rest[0]).Variable(ctx, rest[1])
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading %s on %s: %v", rest[1], rest[0], err))
		return 1
	}

	if s, ok := v.Result.(string); ok {
		c.UI.Output(s)
		return 0
	}
	out, err := json.Marshal(v.Result)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error encoding result: %v", err))
		return 1
	}
	c.UI.Output(string(out))
	return 0
}

type CallCommand struct {
	*base.Command
}

func (c *CallCommand) Synopsis() string {
	return "Call a cloud function"
}

func (c *CallCommand) Help() string {
	return `Usage: particle device call [options] <device id> <function> [argument]

  Calls the function and prints its return value. Without an argument the
  function receives none at all, which differs from an empty string.` +
		c.NewFlagSet("call").Help()
}

func (c *CallCommand) Run(args []string) int {
	ctx := context.Background()
	f := c.NewFlagSet("call")
	rest, ok := positional(c.Command, f, args, 2, 3, "call <device id> <function> [argument]")
	if !ok {
		return 1
	}
	_, client := c.Connect(ctx)
	if client == nil {
		return 1
	}

	d := client.Device(rest[0])
	var (
		result *particle.FunctionResult
		err    error
	)
	if len(rest) == 3 {
		result, err = d.CallWithArg(ctx, rest[1], rest[2])
	} else {
		result, err = d.Call(ctx, rest[1])
	}
	if err != nil {
		c.UI.Error(fmt.Sprintf("error calling %s on %s: %v", rest[1], rest[0], err))
		return 1
	}

	c.UI.Output(fmt.Sprint(result.ReturnValue))
	return 0
}

type ClaimCommand struct {
	*base.Command
}

func (c *ClaimCommand) Synopsis() string {
	return "Claim a device for the account"
}

func (c *ClaimCommand) Help() string {
	return `Usage: particle device claim [options] <device id>` + c.NewFlagSet("claim").Help()
}

func (c *ClaimCommand) Run(args []string) int {
	ctx := context.Background()
	f := c.NewFlagSet("claim")
	rest, ok := positional(c.Command, f, args, 1, 1, "claim <device id>")
	if !ok {
		return 1
	}
	_, client := c.Connect(ctx)
	if client == nil {
		return 1
	}

	if _, err := client.ClaimDevice(ctx, rest[0]); err != nil {
		c.UI.Error(fmt.Sprintf("error claiming %s: %v", rest[0], err))
		return 1
	}
	c.UI.Output(fmt.Sprintf("Claimed %s.", rest[0]))
	return 0
}

type RenameCommand struct {
	*base.Command
}

func (c *RenameCommand) Synopsis() string {
	return "Rename a device"
}

func (c *RenameCommand) Help() string {
	return `Usage: particle device rename [options] <device id> <name>` + c.NewFlagSet("rename").Help()
}

func (c *RenameCommand) Run(args []string) int {
	ctx := context.Background()
	f := c.NewFlagSet("rename")
	rest, ok := positional(c.Command, f, args, 2, 2, "rename <device id> <name>")
	if !ok {
		return 1
	}
	_, client := c.Connect(ctx)
	if client == nil {
		return 1
	}

	result, err := client.Device(rest[0]).Rename(ctx, rest[1])
	if err != nil {
		c.UI.Error(fmt.Sprintf("error renaming %s: %v", rest[0], err))
		return 1
	}
	name := result.Name
	if name == "" {
		name = rest[1]
	}
	c.UI.Output(fmt.Sprintf("Renamed %s to %s.", rest[0], name))
	return 0
}

type RemoveCommand struct {
	*base.Command
}

func (c *RemoveCommand) Synopsis() string {
	return "Release a device from the account"
}

func (c *RemoveCommand) Help() string {
	return `Usage: particle device remove [options] <device id>` + c.NewFlagSet("remove").Help()
}

func (c *RemoveCommand) Run(args []string) int {
	ctx := context.Background()
	f := c.NewFlagSet("remove")
	rest, ok := positional(c.Command, f, args, 1, 1, "remove <device id>")
	if !ok {
		return 1
	}
	_, client := c.Connect(ctx)
	if client == nil {
		return 1
	}

	if err := client.Device(rest[0]).Remove(ctx); err != nil {
		c.UI.Error(fmt.Sprintf("error removing %s: %v", rest[0], err))
		return 1
	}
	c.UI.Output(fmt.Sprintf("Removed %s.", rest[0]))
	return 0
}
