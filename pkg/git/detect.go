// Package git resolves repository coordinates from a local checkout.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultRemote is used when no remote name is given.
	DefaultRemote = "origin"

	commandTimeout = 5 * time.Second
)

// ErrNoRemote is returned when the checkout has no such remote.
var ErrNoRemote = errors.New("git remote not configured")

// IsLocalPath reports whether repo names a directory on disk rather than a
// URL or owner/repo shorthand. "." and paths starting with "./", "../" or
// "/" count when the directory exists.
func IsLocalPath(repo string) bool {
	if repo != "." && repo != ".." &&
		!strings.HasPrefix(repo, "./") && !strings.HasPrefix(repo, "../") && !strings.HasPrefix(repo, "/") {
		return false
	}

	info, err := os.Stat(repo)
	return err == nil && info.IsDir()
}

// RemoteURL returns the URL of the named remote of the checkout at dir.
// An empty name means DefaultRemote.
func RemoteURL(ctx context.Context, dir, name string) (string, error) {
	if name == "" {
		name = DefaultRemote
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "-C", dir, "remote", "get-url", name).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s in %s", ErrNoRemote, name, dir)
		}
		return "", fmt.Errorf("running git: %w", err)
	}

	url := strings.TrimSpace(string(out))
	if url == "" {
		return "", fmt.Errorf("%w: %s in %s", ErrNoRemote, name, dir)
	}
	return url, nil
}
