//go:build tools
// +build tools

// Package tools declares tool dependencies for this module.
//
// These imports are not used at runtime. They keep the mockgen version
// invoked by `go generate` pinned in go.mod.
package guestbook

import (
	_ "go.uber.org/mock/mockgen"
)
