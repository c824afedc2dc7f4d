// Package coreutils reimplements the small set of file operations shell
// scripts lean on most: cp, mv, rm, ls, mkdir and cat.
//
// All operations run against a go-billy filesystem, so the same code works
// on the local disk and against an in-memory filesystem in tests:
//
//	fs := coreutils.NewLocal()
//	if err := fs.Cp("build/app", "dist/"); err != nil {
//		log.Fatal(err)
//	}
//
// Multi-file operations follow the cp/mv convention: the last path is the
// destination and all preceding paths are sources. When the destination is
// an existing directory, sources are placed inside it under their base
// names; otherwise a single source is copied to the destination path itself.
package coreutils

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/scriptkit/go/errors"
)

// FS wraps a billy.Filesystem with the coreutils operations.
type FS struct {
	bfs billy.Filesystem
}

// NewLocal returns an FS backed by the local filesystem, rooted at "/".
func NewLocal() *FS {
	return &FS{bfs: osfs.New("/")}
}

// NewMemory returns an FS backed by an empty in-memory filesystem.
func NewMemory() *FS {
	return &FS{bfs: memfs.New()}
}

// New wraps an existing billy filesystem.
func New(bfs billy.Filesystem) *FS {
	return &FS{bfs: bfs}
}

// Unwrap returns the underlying billy.Filesystem.
func (f *FS) Unwrap() billy.Filesystem {
	return f.bfs
}

// Exists reports whether the named file or directory exists.
func (f *FS) Exists(name string) bool {
	_, err := f.bfs.Stat(name)
	return err == nil
}

// IsDir reports whether the named path exists and is a directory.
func (f *FS) IsDir(name string) bool {
	info, err := f.bfs.Stat(name)
	return err == nil && info.IsDir()
}

// Ls returns the entries of a directory as full paths.
func (f *FS) Ls(dir string) ([]string, error) {
	infos, err := f.bfs.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeIOFailed, "failed to list %s", dir)
	}
	paths := make([]string, len(infos))
	for i, info := range infos {
		paths[i] = f.bfs.Join(dir, info.Name())
	}
	return paths, nil
}

// MkdirOption configures Mkdir.
type MkdirOption func(*mkdirConfig)

type mkdirConfig struct {
	parents      bool
	failIfExists bool
}

// WithParents makes Mkdir create any missing parent directories.
func WithParents() MkdirOption {
	return func(c *mkdirConfig) {
		c.parents = true
	}
}

// FailIfExists makes Mkdir report an error when the directory already
// exists. By default an existing directory is a no-op.
func FailIfExists() MkdirOption {
	return func(c *mkdirConfig) {
		c.failIfExists = true
	}
}

// Mkdir creates a directory. Without WithParents the parent directory must
// already exist.
func (f *FS) Mkdir(dir string, opts ...MkdirOption) error {
	cfg := &mkdirConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if f.Exists(dir) {
		if cfg.failIfExists {
			return errors.Newf(errors.CodeAlreadyExists, "directory already exists: %s", dir)
		}
		return nil
	}
	if !cfg.parents {
		parent := filepath.Dir(dir)
		if !f.Exists(parent) {
			return errors.Newf(errors.CodeNotFound, "no such parent directory: %s", parent)
		}
	}
	if err := f.bfs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, errors.CodeIOFailed, "failed to create %s", dir)
	}
	return nil
}

// Rm removes the named files and directories. Directories are removed
// recursively; paths that do not exist are skipped.
func (f *FS) Rm(paths ...string) error {
	for _, path := range paths {
		if !f.Exists(path) {
			continue
		}
		if err := f.removeAll(path); err != nil {
			return errors.Wrapf(err, errors.CodeIOFailed, "failed to remove %s", path)
		}
	}
	return nil
}

// removeAll removes path and any children it contains.
// Billy has no RemoveAll, so descend manually.
func (f *FS) removeAll(path string) error {
	info, err := f.bfs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		entries, err := f.bfs.ReadDir(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := f.removeAll(f.bfs.Join(path, entry.Name())); err != nil {
				return err
			}
		}
	}
	return f.bfs.Remove(path)
}

// ModTime returns the modification time of the named file.
func (f *FS) ModTime(path string) (time.Time, error) {
	info, err := f.bfs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, errors.Newf(errors.CodeNotFound, "no such file: %s", path)
		}
		return time.Time{}, errors.Wrapf(err, errors.CodeIOFailed, "failed to stat %s", path)
	}
	return info.ModTime(), nil
}

// Cat reads and concatenates the content of the named files.
func (f *FS) Cat(paths ...string) (string, error) {
	var sb strings.Builder
	for _, path := range paths {
		data, err := f.ReadFile(path)
		if err != nil {
			return "", err
		}
		sb.Write(data)
	}
	return sb.String(), nil
}

// ReadFile reads the named file and returns its contents.
func (f *FS) ReadFile(path string) ([]byte, error) {
	file, err := f.bfs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.CodeNotFound, "no such file: %s", path)
		}
		return nil, errors.Wrapf(err, errors.CodeIOFailed, "failed to open %s", path)
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeIOFailed, "failed to read %s", path)
	}
	return data, nil
}

// WriteFile writes data to the named file, creating it if necessary and
// truncating it otherwise.
func (f *FS) WriteFile(path string, data []byte) error {
	file, err := f.bfs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, errors.CodeIOFailed, "failed to open %s", path)
	}
	defer func() { _ = file.Close() }()
	if _, err := file.Write(data); err != nil {
		return errors.Wrapf(err, errors.CodeIOFailed, "failed to write %s", path)
	}
	return nil
}

// ReadFileString reads the named file as text.
func (f *FS) ReadFileString(path string) (string, error) {
	data, err := f.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFileString writes text to the named file.
func (f *FS) WriteFileString(path, content string) error {
	return f.WriteFile(path, []byte(content))
}
