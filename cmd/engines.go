package cmd

// Engine registration. Each platform package compiles to an empty package
// off its own OS, so all three imports are safe on every target.
import (
	_ "github.com/deskdriver/deskdriver/internal/platform/darwin"
	_ "github.com/deskdriver/deskdriver/internal/platform/linux"
	_ "github.com/deskdriver/deskdriver/internal/platform/windows"
)
