// Package shell encapsulates the two shell quoting regimes the bridge has to
// render for. Callers pick a Dialect once at startup and never branch on
// platform again.
package shell

import (
	"fmt"
	"strings"
)

// Dialect is the platform-specific quoting/invocation convention.
type Dialect interface {
	// Name identifies the dialect ("unix" or "windows").
	Name() string
	// Quote escapes a single token for safe interpolation into a command
	// line. Values containing characters the dialect cannot escape safely
	// are rejected with an error, never passed through.
	Quote(s string) (string, error)
	// Home is the home-directory placeholder the platform's shell expands.
	Home() string
	// Join joins path elements with the platform separator.
	Join(elem ...string) string
	// ExpandHome replaces a leading home placeholder with the given
	// absolute home directory.
	ExpandHome(path, home string) string
}

// ForPlatform selects a dialect from a GOOS-style platform tag.
func ForPlatform(platform string) Dialect {
	if platform == "windows" {
		return Windows{}
	}
	return Unix{}
}

// Unix renders for a POSIX shell.
type Unix struct{}

func (Unix) Name() string { return "unix" }

func (Unix) Home() string { return "~" }

func (Unix) Join(elem ...string) string { return strings.Join(elem, "/") }

func (Unix) ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return home + path[1:]
	}
	return path
}

// unixSafe holds the characters that need no quoting in a POSIX shell word.
func unixSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("@%+=:,./_-", r)
}

func (Unix) Quote(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("value contains a NUL byte, which cannot be escaped for a POSIX shell")
	}
	if s == "" {
		return "''", nil
	}
	safe := true
	for _, r := range s {
		if !unixSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s, nil
	}
	// Single quotes make everything literal; an embedded single quote is
	// closed, escaped, and reopened.
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'", nil
}

// Windows renders for cmd.exe.
type Windows struct{}

func (Windows) Name() string { return "windows" }

func (Windows) Home() string { return "%USERPROFILE%" }

func (Windows) Join(elem ...string) string { return strings.Join(elem, `\`) }

func (Windows) ExpandHome(path, home string) string {
	const placeholder = "%USERPROFILE%"
	if strings.HasPrefix(path, placeholder) {
		return home + path[len(placeholder):]
	}
	return path
}

func windowsSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune(`@#$*+=:,.\/_-`, r)
}

func (Windows) Quote(s string) (string, error) {
	// cmd.exe has no escape that reliably neutralizes these inside or
	// outside double quotes, so they are rejected outright.
	for _, r := range s {
		if r == 0 || r == '\r' || r == '\n' || r == '%' || r == '!' || r == '"' {
			return "", fmt.Errorf("value contains %q, which cannot be escaped for cmd.exe", r)
		}
	}
	if s == "" {
		return `""`, nil
	}
	safe := true
	for _, r := range s {
		if !windowsSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s, nil
	}
	return `"` + s + `"`, nil
}
