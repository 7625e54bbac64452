package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/instagit/internal/dagger"
)

const versionPkg = "github.com/papercomputeco/instagit/pkg/utils"

// Build and return directory of instagit binaries
func (i *Instagit) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	gooses := []string{"linux", "darwin", "windows"}
	goarches := []string{"amd64", "arm64"}

	outputs := dag.Directory()
	golang := i.goContainer()

	for _, goos := range gooses {
		for _, goarch := range goarches {
			path := fmt.Sprintf("%s/%s/", goos, goarch)

			build := golang.
				WithEnvVariable("GOOS", goos).
				WithEnvVariable("GOARCH", goarch).
				WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/instagit"})

			outputs = outputs.WithDirectory(path, build.Directory(path))
		}
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (i *Instagit) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X '%s.Version=%s'", versionPkg, version),
		fmt.Sprintf("-X '%s.Sha=%s'", versionPkg, commit),
		fmt.Sprintf("-X '%s.Buildtime=%s'", versionPkg, time.Now().UTC().Format(time.RFC3339)),
	}

	return i.Build(ctx, strings.Join(ldflags, " "))
}
