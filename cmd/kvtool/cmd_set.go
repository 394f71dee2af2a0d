package main

import (
	"errors"

	flag "github.com/spf13/pflag"

	"rowdb/pkg/table"
)

var errSetUsage = errors.New("usage: kvtool set --schema <file> <path> <key> col=value [col=value ...]")

func setCmd() *Command {
	flags := flag.NewFlagSet("set", flag.ContinueOnError)
	schemaPath := flags.String("schema", "", "path to a schema.hujson file")

	return &Command{
		Flags: flags,
		Usage: "set --schema <file> <path> <key> col=value [col=value ...]",
		Short: "create or update a row",
		Exec: func(o *IO, args []string) error {
			if *schemaPath == "" || len(args) < 3 {
				return errSetUsage
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

			assignments := make(map[string]any, len(args)-2)
			for _, arg := range args[2:] {
				name, v, err := parseAssignment(opts, arg)
				if err != nil {
					return err
				}
				assignments[name] = v
			}

			tx, err := tbl.At(keyVal)
			if err != nil {
				return err
			}
			_, err = tx.Submit(func(row table.Fields, h *table.Handle) (any, error) {
				h.Confirm()
				for name, v := range assignments {
					row[name] = v
				}
				return nil, nil
			}).Wait()
			if err != nil {
				return err
			}
			o.Println("ok")
			return nil
		},
	}
}
