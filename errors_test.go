package vista_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hyperengineering/vista"
)

func TestSentinelErrors_ErrorsIs(t *testing.T) {
	tests := []struct {
		name     string
		sentinel error
	}{
		{"ErrDatasetNotFound", vista.ErrDatasetNotFound},
		{"ErrDatasetExists", vista.ErrDatasetExists},
		{"ErrWorkspaceNotFound", vista.ErrWorkspaceNotFound},
		{"ErrInvalidPrivacy", vista.ErrInvalidPrivacy},
		{"ErrStoreClosed", vista.ErrStoreClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("operation failed: %w", tt.sentinel)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(wrapped, %v) = false, want true", tt.sentinel)
			}
		})
	}
}

func TestValidationError_ErrorsAs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &vista.ValidationError{Field: "LocalPath", Message: "required"})

	var ve *vista.ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("errors.As(err, *ValidationError) = false, want true")
	}
	if ve.Field != "LocalPath" {
		t.Errorf("Field = %q, want LocalPath", ve.Field)
	}
	if got, want := ve.Error(), "config: LocalPath: required"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
