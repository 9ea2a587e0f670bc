// Package validation holds input checks shared by the storage layer and the CLI.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
)

// MaxNameLength bounds group, document and entity names.
const MaxNameLength = 500

// NameValidator validates a name for the given record kind ("group", "document", ...).
// Validators can be composed using Chain() for complex validation logic.
type NameValidator func(kind, name string) error

// Chain composes multiple validators into a single validator.
// Validators are executed in order and the first error stops the chain.
func Chain(validators ...NameValidator) NameValidator {
	return func(kind, name string) error {
		for _, v := range validators {
			if err := v(kind, name); err != nil {
				return err
			}
		}
		return nil
	}
}

// Required rejects names that are empty after trimming whitespace.
func Required() NameValidator {
	return func(kind, name string) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%s name is required: %w", kind, storage.ErrValidation)
		}
		return nil
	}
}

// MaxLength rejects names longer than n runes.
func MaxLength(n int) NameValidator {
	return func(kind, name string) error {
		if utf8.RuneCountInString(name) > n {
			return fmt.Errorf("%s name exceeds %d characters: %w", kind, n, storage.ErrValidation)
		}
		return nil
	}
}

var defaultName = Chain(Required(), MaxLength(MaxNameLength))

// Name applies the default name rules.
func Name(kind, name string) error {
	return defaultName(kind, name)
}

// Direction checks that d is a known reorder direction.
func Direction(d types.Direction) error {
	if d != types.DirectionUp && d != types.DirectionDown {
		return fmt.Errorf("invalid direction %q: %w", d, storage.ErrValidation)
	}
	return nil
}

// TimelineEntity checks that e is a known timeline entity type.
func TimelineEntity(e types.TimelineEntity) error {
	if !e.IsValid() {
		return fmt.Errorf("invalid timeline entity type %q: %w", e, storage.ErrValidation)
	}
	return nil
}

// LinkKind checks that k is an attachable entity kind.
func LinkKind(k types.LinkKind) error {
	for _, known := range types.LinkKinds {
		if k == known {
			return nil
		}
	}
	return fmt.Errorf("invalid link kind %q: %w", k, storage.ErrValidation)
}
