package main

import (
	"errors"

	flag "github.com/spf13/pflag"

	"rowdb/pkg/table"
)

var errDelUsage = errors.New("usage: kvtool del --schema <file> <path> <key>")

func delCmd() *Command {
	flags := flag.NewFlagSet("del", flag.ContinueOnError)
	schemaPath := flags.String("schema", "", "path to a schema.hujson file")

	return &Command{
		Flags: flags,
		Usage: "del --schema <file> <path> <key>",
		Short: "remove a row",
		Exec: func(o *IO, args []string) error {
			if *schemaPath == "" || len(args) != 2 {
				return errDelUsage
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
			existed, err := tx.Submit(func(row table.Fields, h *table.Handle) (any, error) {
				return h.Remove(), nil
			}).Wait()
			if err != nil {
				return err
			}
			if existed.(bool) {
				o.Println("removed", args[1])
			} else {
				o.Println("not found:", args[1])
			}
			return nil
		},
	}
}
