package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Untitled replaces names that sanitize to nothing.
const Untitled = "Untitled"

var unsafeNameChars = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// Sanitize makes a record name usable as a file or directory name on every
// common filesystem.
func Sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return Untitled
	}
	return unsafeNameChars.Replace(name)
}

// ErrNoUniqueName is returned when every candidate export root is taken.
var ErrNoUniqueName = errors.New("failed to pick unique export folder name")

// UniqueRoot returns the first free path among dest/base,
// dest/"base export 2", ... dest/"base export <attempts>".
func UniqueRoot(dest, base string, attempts int) (string, error) {
	candidate := filepath.Join(dest, base)
	for n := 2; ; n++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		if n > attempts {
			return "", fmt.Errorf("%w under %s", ErrNoUniqueName, dest)
		}
		candidate = filepath.Join(dest, fmt.Sprintf("%s export %d", base, n))
	}
}
