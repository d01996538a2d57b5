// Marquee CI
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/marquee/internal/dagger"
)

// Marquee is the main module for the Marquee CI pipeline
type Marquee struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Marquee CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", "build", "tmp", "data", "_examples"]
	source *dagger.Directory,
) *Marquee {
	return &Marquee{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc and
// libsqlite3-dev for the sqlite-vec store, CGO enabled, and the project
// source mounted.
func (m *Marquee) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", m.Source)
}

// Test runs the marquee unit tests via "go test" with the race detector
func (m *Marquee) Test(ctx context.Context) (string, error) {
	return m.goContainer().
		WithExec([]string{"go", "test", "-race", "-v", "./..."}).
		Stdout(ctx)
}

// Vet runs "go vet" over the module
//
// +check
func (m *Marquee) Vet(ctx context.Context) (string, error) {
	return m.goContainer().
		WithExec([]string{"go", "vet", "./..."}).
		Stdout(ctx)
}
