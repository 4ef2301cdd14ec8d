//go:build tools

package tools

// This file pins versions of CLI tool dependencies.
// It is not compiled into the binary.

import (
	_ "github.com/vektra/mockery/v2"
)
