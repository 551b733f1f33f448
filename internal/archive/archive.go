// Package archive zips a project directory for upload.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// DefaultOutput is the archive written when no output path is configured.
const DefaultOutput = "stamp.zip"

// ErrNotDirectory is returned when the archive root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Archiver writes a directory tree into a single zip file.
type Archiver struct {
	// Output is the zip file path. It is removed before each run.
	Output string
}

// New returns an archiver writing to output (DefaultOutput when empty).
func New(output string) *Archiver {
	if output == "" {
		output = DefaultOutput
	}
	return &Archiver{Output: output}
}

// Archive zips dir into a.Output and returns the output path. Files matched
// by .gitignore rules (inherited by subdirectories) and any path containing
// ".git" are left out.
func (a *Archiver) Archive(ctx context.Context, dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	if err := os.Remove(a.Output); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("remove stale archive: %w", err)
	}
	outAbs, err := filepath.Abs(a.Output)
	if err != nil {
		return "", err
	}

	log.Archive.Info().Str("dir", dir).Msg("Zipping files")

	f, err := os.Create(a.Output)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	w := &walker{ctx: ctx, zw: zw, skip: outAbs}
	walkErr := w.walk(dir, nil, nil)
	if err := zw.Close(); err != nil && walkErr == nil {
		walkErr = fmt.Errorf("finalize archive: %w", err)
	}
	if err := f.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if walkErr != nil {
		os.Remove(a.Output)
		return "", walkErr
	}

	size := int64(0)
	if st, err := os.Stat(a.Output); err == nil {
		size = st.Size()
	}
	log.Archive.Info().
		Str("output", a.Output).
		Int("files", w.files).
		Str("size", fmt.Sprintf("%.2f MB", float64(size)/1024/1024)).
		Msg("Zip file created")
	return a.Output, nil
}

type walker struct {
	ctx   context.Context
	zw    *zip.Writer
	skip  string
	files int
}

func (w *walker) walk(dir string, domain []string, rules ignoreRules) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	rules, err := rules.withFile(dir, domain)
	if err != nil {
		return fmt.Errorf("read .gitignore in %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name()
		segs := append(domain[:len(domain):len(domain)], name)
		entryRel := path.Join(segs...)
		if strings.Contains(entryRel, ".git") || rules.ignored(segs, e.IsDir()) {
			continue
		}
		full := filepath.Join(dir, name)
		if e.IsDir() {
			if err := w.walk(full, segs, rules); err != nil {
				return err
			}
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		if abs, err := filepath.Abs(full); err == nil && abs == w.skip {
			continue
		}
		if err := w.add(full, entryRel); err != nil {
			return fmt.Errorf("add %s: %w", entryRel, err)
		}
	}
	return nil
}

func (w *walker) add(full, name string) error {
	info, err := os.Stat(full)
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	dst, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	src, err := os.Open(full)
	if err != nil {
		return err
	}
	defer src.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	w.files++
	return nil
}
