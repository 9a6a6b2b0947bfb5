// Package pathutil resolves user-supplied paths the way a shell would.
package pathutil

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ExpandUser replaces a leading "~" or "~name" with the matching home
// directory. Paths that cannot be expanded are returned unchanged.
func ExpandUser(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	name, rest := path[1:], ""
	if i := strings.IndexAny(name, `/`+string(filepath.Separator)); i >= 0 {
		name, rest = name[:i], name[i:]
	}

	var home string
	if name == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		home = h
	} else {
		u, err := user.Lookup(name)
		if err != nil {
			return path
		}
		home = u.HomeDir
	}

	if rest == "" {
		return home
	}
	return filepath.Join(home, rest)
}

// Resolve expands the home directory shorthand and returns a cleaned
// absolute path. Relative paths are resolved against base; an empty base
// means the process working directory.
func Resolve(path, base string) (string, error) {
	path = ExpandUser(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	if base == "" {
		return filepath.Abs(path)
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, path), nil
}
