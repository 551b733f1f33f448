package archive

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ignoreRules is the ordered pattern list in effect for a directory. Patterns
// from parent directories come first so that deeper files can override them.
type ignoreRules []gitignore.Pattern

// withFile returns the rules extended by the .gitignore in dir, if any.
// domain is dir relative to the archive root, one element per segment.
func (r ignoreRules) withFile(dir string, domain []string) (ignoreRules, error) {
	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := append(ignoreRules(nil), r...)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if p, ok := parsePattern(sc.Text(), domain); ok {
			out = append(out, p)
		}
	}
	return out, sc.Err()
}

// ignored reports whether path (relative to the root, one element per
// segment) is excluded. The last matching pattern wins.
func (r ignoreRules) ignored(path []string, isDir bool) bool {
	return gitignore.NewMatcher(r).Match(path, isDir)
}

func parsePattern(line string, domain []string) (gitignore.Pattern, bool) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	body := strings.TrimPrefix(line, "!")
	if !strings.HasSuffix(body, `\ `) {
		body = strings.TrimRight(body, " ")
	}
	if strings.Trim(body, "/") == "" {
		return nil, false
	}

	// gitignore negates a bracket class with '!', path matching with '^'.
	line = strings.ReplaceAll(line, "[!", "[^")
	p := gitignore.ParsePattern(line, domain)

	if strings.HasSuffix(body, "/**") {
		segs := strings.Split(strings.Trim(body, "/"), "/")
		return contentsOnly{Pattern: p, depth: len(domain) + len(segs) - 1}, true
	}
	return p, true
}

// contentsOnly matches "dir/**" against what is inside dir but never dir
// itself, so entries below it can still be re-included.
type contentsOnly struct {
	gitignore.Pattern
	depth int
}

func (c contentsOnly) Match(path []string, isDir bool) gitignore.MatchResult {
	if len(path) <= c.depth {
		return gitignore.NoMatch
	}
	return c.Pattern.Match(path, isDir)
}
