// Package scanner discovers media files below an input directory.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// File is a discovered media file.
type File struct {
	Path string
	// Name is the base name without extension.
	Name string
	Ext  string
	Size int64
}

// Options controls discovery.
type Options struct {
	// Extensions are lower-case with a leading dot.
	Extensions []string
	// SkipKeyword excludes files whose name contains it (case-insensitive).
	SkipKeyword string
}

// Find walks root and returns matching files sorted by path. Hidden partial
// outputs (dot files) are never returned.
func Find(root string, opts Options) ([]File, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("scan: empty root")
	}
	exts := lo.Map(opts.Extensions, func(ext string, _ int) string { return strings.ToLower(ext) })
	skip := strings.ToLower(strings.TrimSpace(opts.SkipKeyword))

	var files []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		lower := strings.ToLower(name)
		if strings.HasPrefix(name, ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !slices.Contains(exts, ext) {
			return nil
		}
		if skip != "" && strings.Contains(lower, skip) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, File{
			Path: path,
			Name: strings.TrimSuffix(name, filepath.Ext(name)),
			Ext:  ext,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

// FromPath describes a single file given on the command line.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	name := filepath.Base(path)
	return File{
		Path: path,
		Name: strings.TrimSuffix(name, filepath.Ext(name)),
		Ext:  strings.ToLower(filepath.Ext(name)),
		Size: info.Size(),
	}, nil
}
