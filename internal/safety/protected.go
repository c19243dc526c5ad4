package safety

import (
	"path"
	"regexp"
	"strings"
)

// genericProtected is the baseline protected-branch allowlist. Entries are
// glob patterns matched against the bare branch name.
var genericProtected = []string{
	"main",
	"master",
	"develop",
	"release/*",
	"hotfix/*",
	"production",
	"staging",
}

// hostProtected adds host-specific defaults on top of the generic set for
// recognized forge hosts.
var hostProtected = map[string][]string{
	"github.com":    {"gh-pages"},
	"gitlab.com":    {"stable"},
	"bitbucket.org": {},
	"dev.azure.com": {},
}

var remoteHostPattern = regexp.MustCompile(`^(?:[a-z+]+://)?(?:[^/@\s]+@)?([^/:\s]+)`)

// RemoteHost extracts the host from a remote URL in either scp-like
// (git@host:path) or URL form.
func RemoteHost(remoteURL string) string {
	if remoteURL == "" {
		return ""
	}
	m := remoteHostPattern.FindStringSubmatch(remoteURL)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// IsProtectedBranch reports whether branch matches the allowlist for the
// repository's remote host, including config-supplied extras.
func IsProtectedBranch(branch, remoteURL string, extra []string) bool {
	if branch == "" || branch == "HEAD" {
		return false
	}

	patterns := append([]string{}, genericProtected...)
	if hostExtra, ok := hostProtected[RemoteHost(remoteURL)]; ok {
		patterns = append(patterns, hostExtra...)
	}
	patterns = append(patterns, extra...)

	for _, p := range patterns {
		if ok, err := path.Match(p, branch); err == nil && ok {
			return true
		}
	}
	return false
}
