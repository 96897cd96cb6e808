// Command schemareg validates documents against JSON schemas and serves
// registered validators over HTTP.
package main

import (
	"errors"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errNotValid) {
			fmt.Fprintln(os.Stderr, "schemareg:", err)
		}
		os.Exit(1)
	}
}
