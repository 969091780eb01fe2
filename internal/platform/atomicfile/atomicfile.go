package atomicfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Write streams into a temp file next to path and renames it into place,
// so readers never observe a partially written file.
func Write(path string, perm os.FileMode, write func(w io.Writer) error) error {
	staged, err := Stage(path, perm, write)
	if err != nil {
		return err
	}
	return staged.Commit()
}

func WriteBytes(path string, perm os.FileMode, data []byte) error {
	return Write(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Staged is a fully written temp file waiting to be renamed over its target.
type Staged struct {
	path string
	tmp  string
}

// Stage writes the content to a synced temp file in the target directory
// without touching path itself.
func Stage(path string, perm os.FileMode, write func(w io.Writer) error) (_ *Staged, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return nil, err
	}
	if err = tmp.Sync(); err != nil {
		return nil, fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return nil, fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	return &Staged{path: path, tmp: tmp.Name()}, nil
}

// Commit renames the temp file into place.
func (s *Staged) Commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		_ = os.Remove(s.tmp)
		return fmt.Errorf("rename into %s: %w", s.path, err)
	}
	return nil
}

// Discard removes the temp file. The target is left as it was.
func (s *Staged) Discard() error {
	if err := os.Remove(s.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.tmp, err)
	}
	return nil
}
