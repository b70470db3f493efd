//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bilingual"

// Default target to run when none is specified
var Default = Build

// Build builds the bilingual binary
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/bilingual")
}

// Test runs all unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet on all packages
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs the binary to $GOPATH/bin
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "./cmd/bilingual")
}

// Clean removes the built binary
func Clean() error {
	return os.RemoveAll(filepath.Join(".", binary))
}
