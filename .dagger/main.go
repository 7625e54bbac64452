// Instagit CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/instagit/internal/dagger"
)

// Instagit is the CI/CD module for the instagit CLI
type Instagit struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Instagit CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Instagit {
	return &Instagit{
		Source: source,
	}
}

// goContainer returns a Go container with the project source mounted and
// module and build caches attached. The CLI is pure Go so CGO stays off.
func (i *Instagit) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", i.Source)
}

// Test runs the unit tests via "go test". git is installed for the
// checkout resolution specs.
func (i *Instagit) Test(ctx context.Context) (string, error) {
	return i.goContainer().
		WithExec([]string{"apk", "add", "--no-cache", "git"}).
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}
