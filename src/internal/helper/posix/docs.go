// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package posix provides [POSIX]-compliant helper functions for cross-platform compatibility.
//
// Key functions:
//   - GetExecutableName: Returns the name of the running binary for CLI usage strings
//   - ExecutableName: Same, for an explicit argument vector
//
// Cross-Platform Behavior:
//
//   - Linux/macOS: "/usr/bin/tls-trust-resolver" → "tls-trust-resolver"
//   - Windows: "C:\bin\tls-trust-resolver.exe" → "tls-trust-resolver"
//   - Fallback: Empty args → [DefaultExecutableName]
//
// [POSIX]: https://grokipedia.com/page/POSIX
package posix
