package main

import (
	"errors"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command defines a kvtool subcommand with unified flag parsing and help
// generation, grounded on the teacher's internal/cli.Command.
type Command struct {
	// Flags holds the command-specific flag set. May be nil for commands
	// that take only positional arguments.
	Flags *flag.FlagSet

	// Usage is shown after "kvtool" in help, e.g. "get --schema <file> <path> <key>".
	Usage string

	// Short is the one-line description shown in the top-level help listing.
	Short string

	// Exec runs the command body after flags are parsed.
	Exec func(o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

func (c *Command) HelpLine() string {
	return "  " + padRight(c.Usage, 40) + c.Short
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s + " "
	}
	return s + strings.Repeat(" ", n-len(s))
}

// Run parses flags and executes the command, returning a process exit code.
func (c *Command) Run(o *IO, args []string) int {
	flags := c.Flags
	if flags == nil {
		flags = flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	}
	flags.SetOutput(&strings.Builder{})

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			o.Println("Usage: kvtool", c.Usage)
			return 0
		}
		o.ErrPrintln("error:", err)
		return 1
	}

	if err := c.Exec(o, flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	return 0
}
