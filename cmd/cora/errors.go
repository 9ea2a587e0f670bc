package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/untoldecay/cora/internal/queries"
	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/ui"
)

// FatalError prints an error message to stderr and exits with code 1.
// Open resources are released first so the lock file never outlives the process.
func FatalError(format string, args ...interface{}) {
	closeAll()
	fmt.Fprintf(os.Stderr, "%s %s\n", ui.RenderFail("Error:"), fmt.Sprintf(format, args...))
	os.Exit(1)
}

// FatalErrorRespectJSON reports the error as {"error": ...} on stdout in
// JSON mode and like FatalError otherwise.
func FatalErrorRespectJSON(format string, args ...interface{}) {
	fatalWithKind("error", fmt.Sprintf(format, args...))
}

// fatalIf exits when err is non-nil, prefixing the message with what and
// adding a hint for missing records.
func fatalIf(err error, what string) {
	if err == nil {
		return
	}
	var nf *queries.NotFoundError
	switch {
	case errors.As(err, &nf):
		fatalWithKind(errorKind(err), err.Error())
	case storage.IsNotFound(err):
		fatalWithKind(errorKind(err), fmt.Sprintf("%s: %v (check ids with 'cora tree')", what, err))
	default:
		fatalWithKind(errorKind(err), fmt.Sprintf("%s: %v", what, err))
	}
}

func fatalWithKind(kind, msg string) {
	if jsonOutput {
		closeAll()
		outputJSON(map[string]string{"error": msg, "kind": kind})
		os.Exit(1)
	}
	FatalError("%s", msg)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, queries.ErrAmbiguous):
		return "ambiguous"
	case storage.IsNotFound(err):
		return "not_found"
	case storage.IsValidation(err):
		return "validation"
	}
	return "error"
}

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		FatalError("encoding JSON: %v", err)
	}
}
