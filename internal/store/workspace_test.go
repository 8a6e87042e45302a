package store_test

import (
	"errors"
	"testing"

	"github.com/hyperengineering/vista/internal/store"
)

func TestValidateWorkspaceID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "ops", false},
		{"hyphenated", "team-logs", false},
		{"numeric", "42", false},
		{"two segments", "team/logs", false},
		{"three segments", "org/team/logs", false},
		{"default", "default", false},

		{"empty", "", true},
		{"uppercase", "Ops", true},
		{"leading hyphen", "-ops", true},
		{"trailing hyphen", "ops-", true},
		{"double hyphen", "ops--logs", true},
		{"underscore", "ops_logs", true},
		{"four segments", "a/b/c/d", true},
		{"empty segment", "a//b", true},
		{"trailing slash", "ops/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.ValidateWorkspaceID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateWorkspaceID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, store.ErrInvalidWorkspaceID) {
				t.Errorf("ValidateWorkspaceID(%q) error = %v, want ErrInvalidWorkspaceID", tt.id, err)
			}
		})
	}
}

func TestResolveWorkspace(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		env      string
		want     string
		wantErr  bool
	}{
		{"explicit wins", "ops", "env-ws", "ops", false},
		{"env fallback", "", "env-ws", "env-ws", false},
		{"default fallback", "", "", store.DefaultWorkspace, false},
		{"invalid explicit", "Bad", "", "", true},
		{"invalid env", "", "Bad_Env", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(store.WorkspaceEnv, tt.env)

			got, err := store.ResolveWorkspace(tt.explicit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveWorkspace(%q) error = %v, wantErr %v", tt.explicit, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveWorkspace(%q) = %q, want %q", tt.explicit, got, tt.want)
			}
		})
	}
}
