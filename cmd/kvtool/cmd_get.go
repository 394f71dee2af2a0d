package main

import (
	"errors"

	flag "github.com/spf13/pflag"

	"rowdb/pkg/table"
)

var errGetUsage = errors.New("usage: kvtool get --schema <file> <path> <key>")

func getCmd() *Command {
	flags := flag.NewFlagSet("get", flag.ContinueOnError)
	schemaPath := flags.String("schema", "", "path to a schema.hujson file")

	return &Command{
		Flags: flags,
		Usage: "get --schema <file> <path> <key>",
		Short: "print a row's fields",
		Exec: func(o *IO, args []string) error {
			if *schemaPath == "" || len(args) != 2 {
				return errGetUsage
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

			keyVal, err := parseScalar(args[1], columnType(opts, opts.Key))
			if err != nil {
				return err
			}
			tx, err := tbl.At(keyVal)
			if err != nil {
				return err
			}
			result, err := tx.Submit(func(row table.Fields, h *table.Handle) (any, error) {
				if !h.Exists() {
					return nil, nil
				}
				return row, nil
			}).Wait()
			if err != nil {
				return err
			}
			fields, ok := result.(table.Fields)
			if !ok {
				o.ErrPrintln("not found:", args[1])
				return nil
			}
			o.Println(formatFields(fields))
			return nil
		},
	}
}
