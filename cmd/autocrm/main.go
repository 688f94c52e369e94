// Package main provides the autocrm tooling CLI.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := NewCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
