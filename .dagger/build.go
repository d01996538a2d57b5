package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/marquee/internal/dagger"
)

// Build returns a directory holding the marquee binary for linux on the
// host architecture. The sqlite-vec store needs CGO, so builds happen in
// the CGO container rather than cross-compiling.
func (m *Marquee) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	path := "linux/"

	build := m.goContainer().
		WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/marquee"})

	return dag.Directory().WithDirectory(path, build.Directory(path))
}

// BuildRelease compiles a versioned release binary with embedded version info
func (m *Marquee) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now().UTC().Format(time.RFC3339)

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/marquee/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/marquee/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/marquee/pkg/utils.Buildtime=%s'", buildtime),
	}

	return m.Build(ctx, strings.Join(ldflags, " "))
}
