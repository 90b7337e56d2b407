// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package templates

import (
	"embed"
	"io/fs"
)

//go:embed *.md
var embeddedFS embed.FS

// EmbedFS defines the interface for accessing embedded template files.
// It abstracts the [embed.FS] type so that callers and tests can substitute
// their own files.
type EmbedFS interface {
	// ReadFile reads the named file and returns the contents.
	ReadFile(name string) ([]byte, error)

	// ReadDir reads the named directory and returns a list of directory entries.
	ReadDir(name string) ([]fs.DirEntry, error)
}

// MagicEmbed is the embedded filesystem holding the server instructions
// template.
//
//	templateBytes, err := templates.MagicEmbed.ReadFile("instructions.md")
var MagicEmbed EmbedFS = embeddedFS
