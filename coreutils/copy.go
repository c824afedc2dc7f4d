package coreutils

import (
	"io"
	"path/filepath"

	"github.com/scriptkit/go/errors"
)

// Cp copies files and directories. The last path is the destination; all
// preceding paths are sources. Directories are copied recursively. With
// more than one source the destination must be an existing directory.
func (f *FS) Cp(paths ...string) error {
	sources, resolve, err := f.splitDest("copy", paths)
	if err != nil {
		return err
	}
	for _, src := range sources {
		if err := f.copyAny(src, resolve(src)); err != nil {
			return err
		}
	}
	return nil
}

// Mv moves files and directories, with the same destination convention as Cp.
func (f *FS) Mv(paths ...string) error {
	sources, resolve, err := f.splitDest("move", paths)
	if err != nil {
		return err
	}
	for _, src := range sources {
		if err := f.bfs.Rename(src, resolve(src)); err != nil {
			return errors.Wrapf(err, errors.CodeIOFailed, "failed to move %s", src)
		}
	}
	return nil
}

// splitDest separates sources from the trailing destination and returns a
// resolver mapping each source to its target path. When the destination is
// an existing directory, sources land inside it under their base names.
func (f *FS) splitDest(op string, paths []string) ([]string, func(string) string, error) {
	if len(paths) < 2 {
		return nil, nil, errors.Newf(errors.CodeInvalidInput, "%s needs at least a source and a destination", op)
	}
	sources := paths[:len(paths)-1]
	dest := paths[len(paths)-1]

	if f.IsDir(dest) {
		return sources, func(src string) string {
			return f.bfs.Join(dest, filepath.Base(src))
		}, nil
	}
	if len(sources) > 1 {
		return nil, nil, errors.Newf(errors.CodeNotFound, "no such destination folder: %s", dest)
	}
	return sources, func(string) string { return dest }, nil
}

func (f *FS) copyAny(src, dest string) error {
	info, err := f.bfs.Stat(src)
	if err != nil {
		return errors.Newf(errors.CodeNotFound, "no such file: %s", src)
	}
	if info.IsDir() {
		return f.copyTree(src, dest)
	}
	return f.copyFile(src, dest)
}

func (f *FS) copyFile(src, dest string) error {
	in, err := f.bfs.Open(src)
	if err != nil {
		return errors.Wrapf(err, errors.CodeIOFailed, "failed to open %s", src)
	}
	defer func() { _ = in.Close() }()

	out, err := f.bfs.Create(dest)
	if err != nil {
		return errors.Wrapf(err, errors.CodeIOFailed, "failed to create %s", dest)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, errors.CodeIOFailed, "failed to copy %s to %s", src, dest)
	}
	return nil
}

func (f *FS) copyTree(src, dest string) error {
	if err := f.bfs.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrapf(err, errors.CodeIOFailed, "failed to create %s", dest)
	}
	entries, err := f.bfs.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, errors.CodeIOFailed, "failed to list %s", src)
	}
	for _, entry := range entries {
		srcPath := f.bfs.Join(src, entry.Name())
		destPath := f.bfs.Join(dest, entry.Name())
		if entry.IsDir() {
			if err := f.copyTree(srcPath, destPath); err != nil {
				return err
			}
			continue
		}
		if err := f.copyFile(srcPath, destPath); err != nil {
			return err
		}
	}
	return nil
}
