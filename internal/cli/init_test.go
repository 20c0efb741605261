package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureGitignore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		existing   string
		wantStatus string
		wantParts  []string
	}{
		{name: "missing file", wantStatus: "created", wantParts: []string{"# iniref (auto-generated)", ".iniref/"}},
		{name: "append", existing: "bin/\n", wantStatus: "updated", wantParts: []string{"bin/\n", "# iniref\n.iniref/\n"}},
		{name: "already present", existing: "bin/\n.iniref/\n", wantStatus: "unchanged", wantParts: []string{"bin/\n.iniref/\n"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			path := filepath.Join(root, ".gitignore")
			if tt.existing != "" {
				if err := os.WriteFile(path, []byte(tt.existing), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			status, err := ensureGitignore(root)
			if err != nil {
				t.Fatalf("ensureGitignore: %v", err)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			for _, part := range tt.wantParts {
				if !strings.Contains(string(data), part) {
					t.Errorf(".gitignore missing %q:\n%s", part, data)
				}
			}
		})
	}
}
