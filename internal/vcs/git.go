// Package vcs resolves commit hashes from version control. The Bash
// command text observed at classify time does not contain the resulting
// hash, so it is resolved lazily here at synthesis time: the most recent
// commit at or after the fact's timestamp. Best-effort, not
// guaranteed-exact.
package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ResolveCommitHash returns the hash of the earliest commit in dir made at
// or after the given time, falling back to the latest commit overall when
// none qualifies (clock skew between the observer and git).
func ResolveCommitHash(ctx context.Context, dir string, at time.Time) (string, error) {
	out, err := gitLog(ctx, dir, "--since="+at.UTC().Format(time.RFC3339), "--reverse")
	if err != nil {
		return "", err
	}
	if out != "" {
		// first line of the reversed --since list is the earliest match
		return strings.SplitN(out, "\n", 2)[0], nil
	}

	out, err = gitLog(ctx, dir, "-1")
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("no commits in %s", dir)
	}
	return out, nil
}

func gitLog(ctx context.Context, dir string, args ...string) (string, error) {
	cmdArgs := append([]string{"-C", dir, "log", "--format=%H"}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git log: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
