// Command chitctl inspects and edits a chit fund ledger stored in SQLite.
package main

import (
	"os"

	"chitfund/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	root, a := newRootCmd()
	err := root.Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Exit(1)
	}
}
