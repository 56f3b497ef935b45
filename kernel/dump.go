// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"fmt"
	"os"
	"path/filepath"
)

// DumpSource writes source to dir/bad_<label>.wgsl for offline inspection
// and returns the path.
func DumpSource(dir, label, source string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("kernel: dump: %w", err)
	}
	path := filepath.Join(dir, "bad_"+label+".wgsl")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil { //nolint:gosec // debug artifact
		return "", fmt.Errorf("kernel: dump: %w", err)
	}
	return path, nil
}
