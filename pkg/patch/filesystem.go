package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemOptions configures FilesystemStorage.
type FilesystemOptions struct {
	// WorkingDir anchors relative paths. Defaults to the process working directory.
	WorkingDir string
	// DirMode is used when parent directories have to be created.
	DirMode fs.FileMode
	// FileMode is used for files that did not exist before the write.
	FileMode fs.FileMode
}

// FilesystemStorage reads and writes files on the OS filesystem. Writes go to a
// temporary file next to the target which is synced and then renamed into place.
type FilesystemStorage struct {
	workingDir string
	dirMode    fs.FileMode
	fileMode   fs.FileMode
}

// NewFilesystemStorage builds a FilesystemStorage rooted at opts.WorkingDir.
func NewFilesystemStorage(opts FilesystemOptions) (*FilesystemStorage, error) {
	workingDir := strings.TrimSpace(opts.WorkingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		workingDir = wd
	}
	if abs, err := filepath.Abs(workingDir); err == nil {
		workingDir = abs
	}
	s := &FilesystemStorage{workingDir: workingDir, dirMode: opts.DirMode, fileMode: opts.FileMode}
	if s.dirMode == 0 {
		s.dirMode = 0o755
	}
	if s.fileMode == 0 {
		s.fileMode = 0o644
	}
	return s, nil
}

// Read loads and decodes path.
func (s *FilesystemStorage) Read(ctx context.Context, path, encoding string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	abs, err := s.resolvePath(path)
	if err != nil {
		return Document{}, err
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	case err != nil:
		return Document{}, fmt.Errorf("failed to stat %s: %w", path, err)
	case info.IsDir():
		return Document{}, fmt.Errorf("cannot edit directory %s", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	content, err := Decode(data, encoding)
	if err != nil {
		return Document{}, err
	}
	return NewDocument(path, content), nil
}

// Exists reports whether path names an existing file.
func (s *FilesystemStorage) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	abs, err := s.resolvePath(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return !info.IsDir(), nil
}

// WriteAtomic encodes content and replaces path with it. Existing files keep
// their permission bits, including setuid, setgid and sticky.
func (s *FilesystemStorage) WriteAtomic(ctx context.Context, path, encoding, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := s.resolvePath(path)
	if err != nil {
		return err
	}
	data, err := Encode(content, encoding)
	if err != nil {
		return err
	}

	mode := s.fileMode
	if info, statErr := os.Stat(abs); statErr == nil {
		if info.IsDir() {
			return fmt.Errorf("cannot write directory %s", path)
		}
		mode = info.Mode() & (fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(abs)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	committed = true
	return nil
}

func (s *FilesystemStorage) resolvePath(path string) (string, error) {
	rel := strings.TrimSpace(path)
	if rel == "" {
		return "", fmt.Errorf("invalid file path")
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return cleaned, nil
	}
	return filepath.Clean(filepath.Join(s.workingDir, cleaned)), nil
}
