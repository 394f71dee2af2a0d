package main

import (
	"errors"

	"rowdb/pkg/fs"
	"rowdb/pkg/rowfile"
)

var errSizeUsage = errors.New("usage: kvtool size <path>")

func sizeCmd() *Command {
	return &Command{
		Usage: "size <path>",
		Short: "print a table's row count without a schema",
		Exec: func(o *IO, args []string) error {
			if len(args) != 1 {
				return errSizeUsage
			}
			n, err := rowfile.Peek(fs.NewReal(), args[0])
			if err != nil {
				return err
			}
			o.Printf("%d\n", n)
			return nil
		},
	}
}
