// Package storage tests for error classification helpers.
package storage

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantNotFound   bool
		wantValidation bool
	}{
		{"nil", nil, false, false},
		{"bare not found", ErrNotFound, true, false},
		{"wrapped not found", fmt.Errorf("group 7: %w", ErrNotFound), true, false},
		{"wrapped validation", fmt.Errorf("group name is required: %w", ErrValidation), false, true},
		{"unrelated", errors.New("disk full"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.wantNotFound {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.wantNotFound)
			}
			if got := IsValidation(tt.err); got != tt.wantValidation {
				t.Errorf("IsValidation(%v) = %v, want %v", tt.err, got, tt.wantValidation)
			}
		})
	}
}
