package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/N-Bhageeratha/OLP/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Domain failures were already reported on stdout.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code == cli.ExitCommandError {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
