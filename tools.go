//go:build tools

// Package tools tracks the code generators used by go generate as module
// dependencies.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
