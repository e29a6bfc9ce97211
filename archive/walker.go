// Package archive locates markdown sources stored in zip archives.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// MarkdownExtensions are recognized case insensitively.
var MarkdownExtensions = []string{".md", ".markdown", ".mdown", ".mkd", ".mkdn", ".mdwn", ".mdtxt", ".mdtext"}

var zipMagic = []byte("PK\x03\x04")

// WalkFunc is called for every markdown file under requested prefix. If an
// error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk visits markdown entries whose names start with prefix in archive
// order. Archives with absolute or escaping entry names are rejected.
func Walk(archive, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) || !IsMarkdown(name) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// IsMarkdown checks entry or file name extension.
func IsMarkdown(name string) bool {
	return slices.Contains(MarkdownExtensions, strings.ToLower(path.Ext(name)))
}

// IsArchive checks zip signature of a file.
func IsArchive(fname string) (bool, error) {
	f, err := os.Open(fname)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, zipMagic), nil
}

// Split breaks "archive.zip/path/in/archive" into path of existing archive
// file and slash separated prefix inside it. A plain archive path yields
// empty prefix.
func Split(src string) (archive, prefix string, ok bool) {
	for head := filepath.Clean(src); ; head = filepath.Dir(head) {
		fi, err := os.Stat(head)
		if err == nil {
			if !fi.Mode().IsRegular() {
				return "", "", false
			}
			if zipped, err := IsArchive(head); err != nil || !zipped {
				return "", "", false
			}
			rest := strings.TrimPrefix(strings.TrimPrefix(filepath.Clean(src), head), string(filepath.Separator))
			return head, filepath.ToSlash(rest), true
		}
		if parent := filepath.Dir(head); parent == head {
			return "", "", false
		}
	}
}

// isSafePath returns false for absolute names and names with ".."
// components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	return !slices.Contains(strings.Split(name, "/"), "..")
}
