// kvtool is a command-line client for the embedded row-table engine: it
// creates table files from a HuJSON schema declaration, reads and writes
// single rows, and drops into an interactive REPL.
package main

import "os"

func main() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
