// Package main is the entry point for the jbctl operator CLI.
package main

import (
	"os"

	"github.com/awnumar/memguard"

	cli "jobboard/pkg/cli"
)

func main() {
	code := cli.Execute()
	memguard.Purge()
	os.Exit(code)
}
