// Package git probes local checkouts so a datapack loaded from disk can be
// linked to its GitHub repository
package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// Remote identifies a GitHub repository and branch
type Remote struct {
	Owner  string
	Repo   string
	Branch string
}

// IsRepo checks if dir is inside a git repository
func IsRepo(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// CurrentBranch returns the checked out branch name
func CurrentBranch(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// RemoteURL returns the fetch URL of a remote
func RemoteURL(dir, remote string) (string, error) {
	cmd := exec.Command("git", "remote", "get-url", remote)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get url of remote %s: %w", remote, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HasUncommittedChanges checks if the working tree differs from HEAD
func HasUncommittedChanges(dir string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to check git status: %w", err)
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// ParseGitHubRemote extracts owner and repository from a GitHub remote URL.
// https, ssh:// and scp-style URLs are accepted.
func ParseGitHubRemote(url string) (owner, repo string, err error) {
	rest := strings.TrimSpace(url)

	switch {
	case strings.HasPrefix(rest, "git@github.com:"):
		rest = strings.TrimPrefix(rest, "git@github.com:")
	case strings.HasPrefix(rest, "ssh://"), strings.HasPrefix(rest, "https://"), strings.HasPrefix(rest, "http://"):
		_, after, _ := strings.Cut(rest, "://")
		host, path, ok := strings.Cut(after, "/")
		if i := strings.LastIndex(host, "@"); i >= 0 {
			host = host[i+1:]
		}
		host, _, _ = strings.Cut(host, ":")
		if !ok || host != "github.com" {
			return "", "", fmt.Errorf("not a GitHub remote: %s", url)
		}
		rest = path
	default:
		return "", "", fmt.Errorf("not a GitHub remote: %s", url)
	}

	rest = strings.TrimSuffix(strings.TrimSuffix(rest, "/"), ".git")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("not a GitHub repository path: %s", url)
	}
	return parts[0], parts[1], nil
}

// Probe reads owner, repository and branch from a local checkout
func Probe(dir, remote string) (Remote, error) {
	if !IsRepo(dir) {
		return Remote{}, fmt.Errorf("%s is not a git repository", dir)
	}

	url, err := RemoteURL(dir, remote)
	if err != nil {
		return Remote{}, err
	}
	owner, repo, err := ParseGitHubRemote(url)
	if err != nil {
		return Remote{}, err
	}
	branch, err := CurrentBranch(dir)
	if err != nil {
		return Remote{}, err
	}

	return Remote{Owner: owner, Repo: repo, Branch: branch}, nil
}
