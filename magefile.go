//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

// Build compiles the audiotag binary
func Build() error {
	return sh.RunV("go", "build", "-o", "audiotag", "./cmd/audiotag")
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Lint runs go vet over the module
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs the audiotag binary into GOBIN
func Install() error {
	return sh.RunV("go", "install", "./cmd/audiotag")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm("audiotag")
}

// CI runs lint, tests and a build in sequence
func CI() {
	mg.SerialDeps(Lint, Test, Build)
}
