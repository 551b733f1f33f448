package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func entries(t *testing.T, zipPath string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	out := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		buf, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err, f.Name)
		out[f.Name] = string(buf)
	}
	return out
}

func names(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestArchive_Tree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.html":         "<html></html>",
		"src/app.js":         "console.log(1)",
		"src/lib/util.js":    "export {}",
		".git/HEAD":          "ref: refs/heads/main",
		".github/ci.yml":     "on: push",
		"node_modules/x.js":  "x",
		"build/out.bin":      "bin",
		"debug.log":          "log",
		"src/keep.log":       "keep",
		"src/lib/tmp/a.txt":  "a",
		"src/lib/.gitignore": "tmp/\n",
		".gitignore":         "# deps\nnode_modules/\n/build\n*.log\n!src/keep.log\n",
	})
	out := filepath.Join(t.TempDir(), "project.zip")

	got, err := New(out).Archive(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	files := entries(t, out)
	assert.Equal(t, []string{"index.html", "src/app.js", "src/keep.log", "src/lib/util.js"}, names(files))
	assert.Equal(t, "console.log(1)", files["src/app.js"])
}

func TestArchive_RemovesStaleOutput(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})
	out := filepath.Join(t.TempDir(), "project.zip")
	require.NoError(t, os.WriteFile(out, []byte("not a zip"), 0o644))

	_, err := New(out).Archive(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names(entries(t, out)))
}

func TestArchive_SkipsOwnOutput(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})
	out := filepath.Join(root, "stamp.zip")

	_, err := New(out).Archive(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names(entries(t, out)))
}

func TestArchive_Errors(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	out := filepath.Join(t.TempDir(), "o.zip")

	_, err := New(out).Archive(context.Background(), file)
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = New(out).Archive(context.Background(), filepath.Join(root, "missing"))
	assert.True(t, os.IsNotExist(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(out).Archive(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "partial archive must be removed")
}

func TestNew_DefaultOutput(t *testing.T) {
	assert.Equal(t, DefaultOutput, New("").Output)
}

func TestIgnoreRules(t *testing.T) {
	var rules ignoreRules
	for _, line := range []string{
		"*.tmp", "/dist", "docs/**/draft.md", "cache/", "!keep.tmp",
		"[!a]*.txt", `trail\ `, "vendor/**", "!vendor/keep", "notes.md   ", "crlf.bin\r",
	} {
		p, ok := parsePattern(line, nil)
		require.True(t, ok, line)
		rules = append(rules, p)
	}
	nested, ok := parsePattern("*.gen.go", []string{"pkg"})
	require.True(t, ok)
	rules = append(rules, nested)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"a.tmp", false, true},
		{"deep/dir/a.tmp", false, true},
		{"keep.tmp", false, false},
		{"dist", true, true},
		{"sub/dist", true, false},
		{"docs/draft.md", false, true},
		{"docs/a/b/draft.md", false, true},
		{"cache", true, true},
		{"cache", false, false},
		{"pkg/x.gen.go", false, true},
		{"x.gen.go", false, false},
		{"main.go", false, false},
		{"b.txt", false, true},
		{"a.txt", false, false},
		{"trail ", false, true},
		{"trail", false, false},
		{"vendor", true, false},
		{"vendor/lib.go", false, true},
		{"vendor/sub", true, true},
		{"vendor/keep", false, false},
		{"notes.md", false, true},
		{"crlf.bin", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.ignored(strings.Split(tt.path, "/"), tt.isDir))
		})
	}

	for _, line := range []string{"", "   ", "# comment", "/", "!", "\r"} {
		_, ok := parsePattern(line, nil)
		assert.False(t, ok, "%q", line)
	}
}

func TestArchive_ReincludesUnderDoubleStar(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"vendor/lib.go": "package lib",
		"vendor/keep":   "keep",
		"vendor/sub/x":  "x",
		"a.txt":         "a",
		"b.txt":         "b",
		".gitignore":    "vendor/**\n!vendor/keep\n[!a]*.txt\n",
	})
	out := filepath.Join(t.TempDir(), "project.zip")

	_, err := New(out).Archive(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "vendor/keep"}, names(entries(t, out)))
}
