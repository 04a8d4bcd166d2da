// Command findit manages the catalogue of photographed items from a terminal.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vbonduro/findit/internal/domain"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	defer func() {
		if err := a.stop(); err != nil {
			fmt.Fprintln(stderr, "Error: failed to close database:", err)
		}
	}()

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// errUsage marks bad input that the stores never saw.
var errUsage = errors.New("invalid usage")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errUsage),
		errors.Is(err, domain.ErrDuplicateRoomName),
		errors.Is(err, domain.ErrEmptyRoomName):
		return exitUserError
	default:
		return exitSysError
	}
}
