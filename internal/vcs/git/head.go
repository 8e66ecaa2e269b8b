package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// HeadReader returns the commit hash of the checked-out HEAD.
type HeadReader interface {
	HeadCommit(ctx context.Context) (string, error)
}

// CLI reads HEAD by shelling out to git.
type CLI struct {
	// Dir is the working tree; empty means the process working directory.
	Dir string
}

func (g CLI) HeadCommit(ctx context.Context) (string, error) {
	args := []string{"log", "-n", "1", "--pretty=format:%H"}
	if g.Dir != "" {
		args = append([]string{"-C", g.Dir}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git log: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git log: %w", err)
	}
	sha := strings.TrimSpace(string(out))
	if sha == "" {
		return "", errors.New("git log returned no commit")
	}
	return sha, nil
}

// Static returns a fixed commit. It is used when the caller already knows
// the hash.
type Static string

func (s Static) HeadCommit(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("static head commit is empty")
	}
	return string(s), nil
}
