package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"rowdb/pkg/table"
)

var errReplUsage = errors.New("usage: kvtool repl <path>")

// replCmd opens a table by its own preamble (no --schema needed, per
// spec.md §6.1's usage block) and drops into an interactive session.
// Its get/set/del/size commands mirror the one-shot subcommands with their
// own handlers over the attached table (size reports Table.Size rather
// than calling rowfile.Peek), grounded on the teacher's sloty REPL loop: a
// peterh/liner prompt with
// persisted history, tab completion, and a fixed command dispatch.
func replCmd() *Command {
	return &Command{
		Usage: "repl <path>",
		Short: "open a table and drop into an interactive session",
		Exec: func(o *IO, args []string) error {
			if len(args) != 1 {
				return errReplUsage
			}
			tbl, err := table.Attach(args[0], table.AttachOptions{})
			if err != nil {
				return err
			}
			defer tbl.Close()

			return runREPL(o, tbl)
		},
	}
}

type repl struct {
	o     *IO
	table *table.Table
	liner *liner.State
}

var replCommands = []string{"get", "set", "del", "size", "help", "exit", "quit"}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kvtool_history")
}

func runREPL(o *IO, tbl *table.Table) error {
	r := &repl{o: o, table: tbl}

	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	o.Println("kvtool repl — type 'help' for commands, 'exit' to quit")

	for {
		line, err := r.liner.Prompt("kvtool> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				o.Println("bye")
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "exit", "quit":
			o.Println("bye")
			r.saveHistory()
			return nil
		case "help", "?":
			r.printHelp()
		case "get":
			r.cmdGet(args)
		case "set":
			r.cmdSet(args)
		case "del":
			r.cmdDel(args)
		case "size":
			r.cmdSize()
		default:
			o.ErrPrintln("unknown command:", cmd, "(type 'help' for commands)")
		}
	}

	r.saveHistory()
	return nil
}

func (r *repl) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		r.liner.WriteHistory(f)
		f.Close()
	}
}

func (r *repl) completer(line string) []string {
	var out []string
	lower := strings.ToLower(line)
	for _, c := range replCommands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}
	return out
}

func (r *repl) printHelp() {
	r.o.Println("Commands:")
	r.o.Println("  get <key>                      print a row's fields")
	r.o.Println("  set <key> col=value [...]       create or update a row")
	r.o.Println("  del <key>                       remove a row")
	r.o.Println("  size                            print the row count")
	r.o.Println("  help                            show this help")
	r.o.Println("  exit / quit                     leave the REPL")
}

func (r *repl) keyType() string {
	t, _ := r.table.ColumnType(r.table.KeyName())
	return t
}

func (r *repl) columnType(name string) string {
	t, ok := r.table.ColumnType(name)
	if !ok {
		return "string"
	}
	return t
}

func (r *repl) cmdGet(args []string) {
	if len(args) != 1 {
		r.o.ErrPrintln("usage: get <key>")
		return
	}
	keyVal, err := parseScalar(args[0], r.keyType())
	if err != nil {
		r.o.ErrPrintln(err)
		return
	}
	tx, err := r.table.At(keyVal)
	if err != nil {
		r.o.ErrPrintln(err)
		return
	}
	result, err := tx.Submit(func(row table.Fields, h *table.Handle) (any, error) {
		if !h.Exists() {
			return nil, nil
		}
		return row, nil
	}).Wait()
	if err != nil {
		r.o.ErrPrintln(err)
		return
	}
	fields, ok := result.(table.Fields)
	if !ok {
		r.o.ErrPrintln("not found:", args[0])
		return
	}
	r.o.Println(formatFields(fields))
}

func (r *repl) cmdSet(args []string) {
	if len(args) < 2 {
		r.o.ErrPrintln("usage: set <key> col=value [col=value ...]")
		return
	}
	keyVal, err := parseScalar(args[0], r.keyType())
	if err != nil {
		r.o.ErrPrintln(err)
		return
	}

	assignments := make(map[string]any, len(args)-1)
	for _, arg := range args[1:] {
		name, v, ok := strings.Cut(arg, "=")
		if !ok {
			r.o.ErrPrintln("bad assignment:", arg)
			return
		}
		parsed, err := parseScalar(v, r.columnType(name))
		if err != nil {
			r.o.ErrPrintln(err)
			return
		}
		assignments[name] = parsed
	}

	tx, err := r.table.At(keyVal)
	if err != nil {
		r.o.ErrPrintln(err)
		return
	}
	_, err = tx.Submit(func(row table.Fields, h *table.Handle) (any, error) {
		h.Confirm()
		for name, v := range assignments {
			row[name] = v
		}
		return nil, nil
	}).Wait()
	if err != nil {
		r.o.ErrPrintln(err)
		return
	}
	r.o.Println("ok")
}

func (r *repl) cmdDel(args []string) {
	if len(args) != 1 {
		r.o.ErrPrintln("usage: del <key>")
		return
	}
	keyVal, err := parseScalar(args[0], r.keyType())
	if err != nil {
		r.o.ErrPrintln(err)
		return
	}
	tx, err := r.table.At(keyVal)
	if err != nil {
		r.o.ErrPrintln(err)
		return
	}
	existed, err := tx.Submit(func(row table.Fields, h *table.Handle) (any, error) {
		return h.Remove(), nil
	}).Wait()
	if err != nil {
		r.o.ErrPrintln(err)
		return
	}
	if existed.(bool) {
		r.o.Println("removed", args[0])
	} else {
		r.o.Println("not found:", args[0])
	}
}

func (r *repl) cmdSize() {
	r.o.Println(r.table.Size())
}
