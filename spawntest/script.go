//go:build !windows

package spawntest

import (
	"os"
	"path/filepath"
	"testing"
)

// Script writes body as an executable sh script in a test-scoped temp
// directory and returns its path.
func Script(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "script.sh")

	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	return path
}
