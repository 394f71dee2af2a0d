package main

import (
	"errors"

	flag "github.com/spf13/pflag"

	"rowdb/pkg/table"
)

var errCreateUsage = errors.New("usage: kvtool create --schema <file> <path>")

func createCmd() *Command {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	schemaPath := flags.String("schema", "", "path to a schema.hujson file")

	return &Command{
		Flags: flags,
		Usage: "create --schema <file> <path>",
		Short: "create a new table file",
		Exec: func(o *IO, args []string) error {
			if *schemaPath == "" || len(args) != 1 {
				return errCreateUsage
			}
			opts, err := loadSchema(*schemaPath)
			if err != nil {
				return err
			}
			tbl, err := table.Open(args[0], opts)
			if err != nil {
				return err
			}
			defer tbl.Close()
			o.Println("created", args[0])
			return nil
		},
	}
}
