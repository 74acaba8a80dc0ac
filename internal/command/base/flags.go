package base

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"strings"
)

// FlagSet is a flag.FlagSet that can render itself for a command's Help.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f. Parse errors are returned, not printed.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(io.Discard)
	return &FlagSet{FlagSet: f}
}

// Help renders the flags in the layout used by command help text.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&buf, "\n  -%s", fl.Name)
		if name, _ := flag.UnquoteUsage(fl); name != "" {
			fmt.Fprintf(&buf, "=<%s>", name)
		}
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&buf, " (default: %s)", fl.DefValue)
		}
		_, usage := flag.UnquoteUsage(fl)
		fmt.Fprintf(&buf, "\n    %s\n", strings.ReplaceAll(usage, "\n", "\n    "))
	})
	if buf.Len() == 0 {
		return ""
	}
	return "\n\nOptions:\n" + buf.String()
}
