// Command verify is the reference CLI front-end for the verifier core: a
// cobra root command in the shape of the teacher's CLIHarness
// (persistent flags layered over a typed config struct), a `verify`
// subcommand that runs every claim in a protocol file and renders a
// report, and a `serve` subcommand exposing progress as prometheus
// metrics (spec §10/§11).
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyverify/arachne/internal/verrors"
)

// Exit codes, named the way the teacher's cmd/devcmd names its own.
const (
	exitSuccess      = 0
	exitInvalidArgs  = 1
	exitBadSpec      = 2
	exitFalsified    = 3
	exitInternalErr  = 4
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "verify",
		Short:   "Symbolic Dolev-Yao protocol verifier (Arachne backward search)",
		Version: "0.1.0",
		SilenceUsage: true,
	}

	root.AddCommand(newVerifyCommand())
	root.AddCommand(newServeCommand())
	return root
}

// exitCodeFor maps a returned error to the CLI's exit status: a falsified
// claim, a malformed protocol description, and an internal invariant
// violation are distinguished so scripts can tell them apart.
func exitCodeFor(err error) int {
	if errors.Is(err, errFalsified) {
		return exitFalsified
	}
	var verr *verrors.VerifierError
	if errors.As(err, &verr) {
		if verr.Type == verrors.InternalErr {
			return exitInternalErr
		}
		return exitBadSpec
	}
	return exitInvalidArgs
}
