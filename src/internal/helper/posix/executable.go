// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultExecutableName is used when the argument vector names no program.
const DefaultExecutableName = "tls-trust-resolver"

// GetExecutableName returns the name of the running binary without
// directory or .exe extension, for use in cobra Use strings.
func GetExecutableName() string {
	return ExecutableName(os.Args)
}

// ExecutableName returns the clean program name from args[0]. Windows
// paths are split on backslashes even on Unix hosts.
//
// Returns:
//   - string: Base name without .exe, or [DefaultExecutableName] when args is empty
func ExecutableName(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return DefaultExecutableName
	}

	name := filepath.Base(args[0])

	// filepath.Base only knows the host separator.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return DefaultExecutableName
	}

	return strings.TrimSuffix(name, ".exe")
}
