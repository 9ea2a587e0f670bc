package ui

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// Confirm asks a yes/no question. In non-interactive mode (e.g. scripts) it
// returns defaultYes without prompting.
func Confirm(question, description string, defaultYes bool) (bool, error) {
	if !IsInteractive() {
		return defaultYes, nil
	}

	answer := defaultYes
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&answer),
		),
	)
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt cancelled: %w", err)
	}
	return answer, nil
}
