package main

import (
	"fmt"
	"os"

	"github.com/memsieve/pescan/internal/cmd"
	"github.com/memsieve/pescan/internal/output"
)

func main() {
	err := cmd.NewRootCmd().Execute()
	if err == nil {
		os.Exit(output.ExitSuccess)
	}
	if code, ok := cmd.ExitCode(err); ok {
		os.Exit(code)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(output.ExitError)
}
