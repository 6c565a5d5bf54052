package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/beejak/MCP-Sentinel/cmd"
)

func main() {
	// Container CPU quotas set the default worker count.
	_, _ = maxprocs.Set()

	if err := cmd.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
