package lfsgate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	oidRegex  = regexp.MustCompile(`^[0-9a-f]{64}$`)
	repoRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// IsValidOID reports whether oid is a lowercase hex SHA-256 digest.
func IsValidOID(oid string) bool {
	return oidRegex.MatchString(oid)
}

// IsValidRepo reports whether repo is usable as a repository id. Repository
// ids are single path segments made of letters, digits, dot, dash and underscore.
func IsValidRepo(repo string) bool {
	if repo == "." || repo == ".." || len(repo) > 255 {
		return false
	}
	return repoRegex.MatchString(repo)
}

// IsValidLockPath validates a path submitted for locking. It checks that the path:
//   - is not empty
//   - is valid UTF-8
//   - does not contain null bytes or control characters
//   - does not start or end with whitespace
//
// Lock paths are compared verbatim and are never touched on disk.
func IsValidLockPath(p string) bool {
	if p == "" {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if strings.TrimSpace(p) != p {
		return false
	}

	for _, r := range p {
		if r == 0 || r < 0x20 || r == 0x7f || (unicode.IsSpace(r) && r != ' ') {
			return false
		}
	}

	return true
}
