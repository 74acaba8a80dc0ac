package command

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/tj-smith47/particle-go/internal/command/base"
	"github.com/tj-smith47/particle-go/internal/command/commands/device"
	"github.com/tj-smith47/particle-go/internal/command/commands/devices"
	"github.com/tj-smith47/particle-go/internal/command/commands/events"
	"github.com/tj-smith47/particle-go/internal/command/commands/login"
	"github.com/tj-smith47/particle-go/internal/command/commands/publish"
	"github.com/tj-smith47/particle-go/internal/command/commands/token"
)

// Commands returns the subcommand factories, keyed by their invocation.
func Commands(log hclog.Logger, ui cli.Ui) map[string]cli.CommandFactory {
	b := &base.Command{Log: log, UI: ui}

	return map[string]cli.CommandFactory{
		"login": func() (cli.Command, error) {
			return &login.Command{Command: b}, nil
		},
		"devices": func() (cli.Command, error) {
			return &devices.Command{Command: b}, nil
		},
		"device": func() (cli.Command, error) {
			return &device.Command{Command: b}, nil
		},
		"device info": func() (cli.Command, error) {
			return &device.InfoCommand{Command: b}, nil
		},
		"device get": func() (cli.Command, error) {
			return &device.GetCommand{Command: b}, nil
		},
		"device call": func() (cli.Command, error) {
			return &device.CallCommand{Command: b}, nil
		},
		"device claim": func() (cli.Command, error) {
			return &device.ClaimCommand{Command: b}, nil
		},
		"device rename": func() (cli.Command, error) {
			return &device.RenameCommand{Command: b}, nil
		},
		"device remove": func() (cli.Command, error) {
			return &device.RemoveCommand{Command: b}, nil
		},
		"publish": func() (cli.Command, error) {
			return &publish.Command{Command: b}, nil
		},
		"events": func() (cli.Command, error) {
			return &events.Command{Command: b}, nil
		},
		"token": func() (cli.Command, error) {
			return &token.Command{Command: b}, nil
		},
		"token list": func() (cli.Command, error) {
			return &token.ListCommand{Command: b}, nil
		},
		"token create": func() (cli.Command, error) {
			return &token.CreateCommand{Command: b}, nil
		},
		"token delete": func() (cli.Command, error) {
			return &token.DeleteCommand{Command: b}, nil
		},
	}
}
