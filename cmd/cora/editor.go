package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/config"
)

// findEditor picks the editor: the editor config key, $EDITOR, $VISUAL,
// then the first common editor on PATH.
func findEditor() string {
	for _, candidate := range []string{config.GetString("editor"), os.Getenv("EDITOR"), os.Getenv("VISUAL")} {
		if candidate != "" {
			return candidate
		}
	}
	for _, defaultEditor := range []string{"vim", "vi", "nano", "emacs"} {
		if _, err := exec.LookPath(defaultEditor); err == nil {
			return defaultEditor
		}
	}
	return ""
}

// editText opens current in the editor and returns the saved content.
func editText(label, current string) (string, error) {
	editor := findEditor()
	if editor == "" {
		return "", fmt.Errorf("no editor found. Set $EDITOR or the editor config key")
	}

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("cora-%s-*.txt", label))
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmpFile.WriteString(current); err != nil {
		_ = tmpFile.Close()
		return "", fmt.Errorf("writing to temp file: %w", err)
	}
	_ = tmpFile.Close()

	// "code --wait" style editors carry their own arguments.
	editorParts := strings.Fields(editor)
	editorArgs := append(editorParts[1:], tmpPath)
	editorCmd := exec.Command(editorParts[0], editorArgs...) //nolint:gosec // G204: editor from the user's own config or environment
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return "", fmt.Errorf("running editor: %w", err)
	}

	// #nosec G304 -- tmpPath was created earlier in this function
	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("reading edited file: %w", err)
	}
	return string(edited), nil
}

// notesInput reads replacement notes from args[1], --clear, --edit or "-"
// (stdin). changed is false when the command should only print the notes.
func notesInput(cmd *cobra.Command, args []string, current string) (notes string, changed bool) {
	if clearNotes, _ := cmd.Flags().GetBool("clear"); clearNotes {
		return "", true
	}
	if edit, _ := cmd.Flags().GetBool("edit"); edit {
		edited, err := editText("notes", current)
		if err != nil {
			FatalErrorRespectJSON("%v", err)
		}
		return strings.TrimRight(edited, "\n"), edited != current
	}
	if len(args) < 2 {
		return current, false
	}
	return textArg(args[1]), true
}

// textArg returns s, or stdin's content when s is "-".
func textArg(s string) string {
	if s != "-" {
		return s
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		FatalErrorRespectJSON("reading stdin: %v", err)
	}
	return string(data)
}
