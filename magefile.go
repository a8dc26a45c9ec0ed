//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary   = "bin/server"
	wireDir  = "./internal/app"
	coverOut = "coverage.out"
)

var Default = Build

// Build compiles the server into bin/.
func Build() error {
	mg.Deps(Wire)
	fmt.Println("Building", binary)
	return sh.Run("go", "build", "-o", binary, "./cmd/server")
}

// Wire regenerates the injector in internal/app.
func Wire() error {
	fmt.Println("Generating injector in", wireDir)
	return sh.Run("wire", wireDir)
}

// Test runs the suite with the race detector and writes a coverage profile.
func Test() error {
	return sh.RunV("go", "test", "-race", "-coverprofile="+coverOut, "./...")
}

// Lint runs go vet and golangci-lint.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// CI checks that go.mod is tidy, then lints and tests.
func CI() error {
	if err := sh.Run("go", "mod", "tidy"); err != nil {
		return err
	}
	if err := sh.RunV("git", "diff", "--exit-code", "go.mod", "go.sum"); err != nil {
		return fmt.Errorf("go.mod is not tidy: %w", err)
	}
	mg.SerialDeps(Wire, Lint, Test)
	return nil
}

// Dev runs the server on the in-memory store with notifications logged.
func Dev() error {
	mg.Deps(Build)
	cmd := exec.Command(binary)
	cmd.Env = append(os.Environ(),
		"APPROVENOW_DATABASE_DRIVER=memory",
		"APPROVENOW_NOTIFICATION_DRIVER=log",
		"APPROVENOW_AUTH_JWT_SECRET=dev-secret",
		"APPROVENOW_SERVER_INTERNAL_TOKEN=dev-internal",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Clean removes the binary and the coverage profile.
func Clean() {
	_ = os.RemoveAll("bin")
	_ = os.Remove(coverOut)
}

// Tools installs wire and golangci-lint.
func Tools() error {
	for _, tool := range []string{
		"github.com/google/wire/cmd/wire@v0.7.0",
		"github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
	} {
		if err := sh.RunV("go", "install", tool); err != nil {
			return fmt.Errorf("install %s: %w", tool, err)
		}
	}
	return nil
}
