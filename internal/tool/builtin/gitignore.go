package builtin

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ignoreMatcher filters directory listings through the .gitignore at the
// listing root, when one exists. A missing or unreadable .gitignore matches
// nothing.
type ignoreMatcher struct {
	matcher gitignore.Matcher
}

func newIgnoreMatcher(root string) *ignoreMatcher {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return &ignoreMatcher{}
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return &ignoreMatcher{}
	}
	return &ignoreMatcher{matcher: gitignore.NewMatcher(patterns)}
}

// Match reports whether the relative path is excluded by the loaded patterns.
func (m *ignoreMatcher) Match(relativePath string, isDir bool) bool {
	if m.matcher == nil {
		return false
	}
	segments := strings.Split(filepath.ToSlash(relativePath), "/")
	cleaned := segments[:0]
	for _, s := range segments {
		if s != "" && s != "." {
			cleaned = append(cleaned, s)
		}
	}
	return m.matcher.Match(cleaned, isDir)
}
