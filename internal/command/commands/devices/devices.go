package devices

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	particle "github.com/tj-smith47/particle-go"
	"github.com/tj-smith47/particle-go/internal/command/base"
)

type Command struct {
	*base.Command

	flagConnected bool
}

func (c *Command) Synopsis() string {
	return "List the account's devices"
}

func (c *Command) Help() string {
	return `Usage: particle devices [options]

  Lists every device claimed by the account with its platform, when it was
  last heard from, and whether it is online.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := c.NewFlagSet("devices")
	f.BoolVar(
		&c.flagConnected, "connected", false,
		"Only list devices that are online.",
	)
	return f
}

func (c *Command) Run(args []string) int {
	ctx := context.Background()
	_, client := c.Setup(ctx, c.Flags(), args)
	if client == nil {
		return 1
	}

	list, err := client.ListDevices(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error listing devices: %v", err))
		return 1
	}
	if c.flagConnected {
		list = particle.ConnectedDevices(list)
	}
	if len(list) == 0 {
		c.UI.Info("No devices found.")
		return 0
	}

	c.UI.Output(Table(list))
	return 0
}

// Table renders devices as aligned columns.
func Table(list []particle.Device) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPLATFORM\tLAST HEARD\tSTATUS")
	for _, d := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.ID, orDash(d.Name), PlatformName(d.PlatformID), lastHeard(d.LastHeard), Status(d.Connected))
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// Status renders the online state, colored when the terminal allows.
func Status(connected bool) string {
	if connected {
		return color.GreenString("online")
	}
	return color.New(color.FgRed, color.Faint).Sprint("offline")
}

var platforms = map[int]string{
	particle.PlatformCore:     "core",
	particle.PlatformPhoton:   "photon",
	particle.PlatformP1:       "p1",
	particle.PlatformElectron: "electron",
	particle.PlatformArgon:    "argon",
	particle.PlatformBoron:    "boron",
	particle.PlatformXenon:    "xenon",
}

// PlatformName returns the platform's common name, or its numeric id.
func PlatformName(id int) string {
	if name, ok := platforms[id]; ok {
		return name
	}
	return fmt.Sprintf("platform %d", id)
}

func lastHeard(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
