// Package storage provides JSON document persistence for nestegg
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bobmcallan/nestegg/internal/common"
)

// ErrCorruptDocument indicates a document exists on disk but cannot be
// parsed. Callers must not silently replace the file.
var ErrCorruptDocument = errors.New("corrupt document")

// FileStore persists JSON documents under a base directory. Writes are
// atomic (temp file then rename) and optionally keep rotated versions
// alongside the live file (key.json.v1 is the most recent backup).
type FileStore struct {
	basePath string
	versions int
	logger   *common.Logger
}

// NewFileStore creates a file store rooted at config.Path, creating the
// directory if needed.
func NewFileStore(logger *common.Logger, config *common.FileConfig) (*FileStore, error) {
	if config == nil || config.Path == "" {
		return nil, fmt.Errorf("file store requires a base path")
	}
	if err := os.MkdirAll(config.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", config.Path, err)
	}
	return &FileStore{
		basePath: config.Path,
		versions: config.Versions,
		logger:   logger,
	}, nil
}

// BasePath returns the storage root directory.
func (fs *FileStore) BasePath() string {
	return fs.basePath
}

// OwnerDir returns the directory holding one owner's documents.
func (fs *FileStore) OwnerDir(slug string) string {
	return filepath.Join(fs.basePath, fs.sanitizeKey(slug))
}

// sanitizeKey makes a key safe for use as a file name. Path separators and
// colons become underscores and dot-dot sequences are collapsed.
func (fs *FileStore) sanitizeKey(key string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	key = replacer.Replace(key)
	for strings.Contains(key, "..") {
		key = strings.ReplaceAll(key, "..", "_")
	}
	return key
}

func (fs *FileStore) filePath(dir, key string) string {
	return filepath.Join(dir, fs.sanitizeKey(key)+".json")
}

// WriteJSON writes a document atomically. With versioned set, the previous
// live file is rotated into the version chain before the write.
func (fs *FileStore) WriteJSON(dir, key string, data any, versioned bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	target := fs.filePath(dir, key)
	if versioned && fs.versions > 0 {
		if _, err := os.Stat(target); err == nil {
			fs.rotateVersions(dir, fs.sanitizeKey(key))
		}
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+fs.sanitizeKey(key)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file for %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}

// rotateVersions shifts key.json.vN up the chain and moves the live file to
// v1. The oldest version beyond the configured count is dropped.
func (fs *FileStore) rotateVersions(dir, key string) {
	oldest := filepath.Join(dir, fmt.Sprintf("%s.json.v%d", key, fs.versions))
	os.Remove(oldest)

	for i := fs.versions - 1; i >= 1; i-- {
		src := filepath.Join(dir, fmt.Sprintf("%s.json.v%d", key, i))
		if _, err := os.Stat(src); err == nil {
			dst := filepath.Join(dir, fmt.Sprintf("%s.json.v%d", key, i+1))
			if err := os.Rename(src, dst); err != nil {
				fs.logger.Warn().Err(err).Str("file", src).Msg("Failed to rotate version file")
			}
		}
	}

	live := filepath.Join(dir, key+".json")
	if err := os.Rename(live, filepath.Join(dir, key+".json.v1")); err != nil {
		fs.logger.Warn().Err(err).Str("file", live).Msg("Failed to archive live file")
	}
}

// ReadJSON loads a document into dest. A missing file surfaces the
// underlying fs.ErrNotExist; an empty or unparseable file reports
// ErrCorruptDocument.
func (fs *FileStore) ReadJSON(dir, key string, dest any) error {
	target := fs.filePath(dir, key)
	data, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("read %s: %w", target, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("parse %s: %w", target, ErrCorruptDocument)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		fs.logger.Error().Err(err).Str("path", target).Msg("Unparseable JSON document")
		return fmt.Errorf("parse %s: %w", target, ErrCorruptDocument)
	}
	return nil
}

// ReadRaw returns a document's raw bytes. Missing files surface the
// underlying fs.ErrNotExist.
func (fs *FileStore) ReadRaw(dir, key string) ([]byte, error) {
	target := fs.filePath(dir, key)
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	return data, nil
}

// Exists reports whether a document is present.
func (fs *FileStore) Exists(dir, key string) bool {
	_, err := os.Stat(fs.filePath(dir, key))
	return err == nil
}

// DeleteJSON removes a document and any rotated versions. Deleting a
// missing document is not an error.
func (fs *FileStore) DeleteJSON(dir, key string) error {
	key = fs.sanitizeKey(key)
	target := filepath.Join(dir, key+".json")
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", target, err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, key+".json.v*"))
	if err != nil {
		return fmt.Errorf("list versions of %s: %w", key, err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			fs.logger.Warn().Err(err).Str("file", m).Msg("Failed to remove version file")
		}
	}
	return nil
}

// ListKeys returns the document keys in a directory, sorted. Version files
// are excluded. A missing directory yields an empty list.
func (fs *FileStore) ListKeys(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// ListOwnerDirs returns the names of subdirectories under the storage root.
func (fs *FileStore) ListOwnerDirs() ([]string, error) {
	entries, err := os.ReadDir(fs.basePath)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", fs.basePath, err)
	}
	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// EnsureDir creates a directory beneath the storage root if needed.
func (fs *FileStore) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// RemoveDir deletes a directory and everything beneath it.
func (fs *FileStore) RemoveDir(dir string) error {
	if dir == fs.basePath {
		return fmt.Errorf("refusing to remove storage root %s", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}

// MoveJSON relocates a document between directories. The move is skipped
// when the source is missing or the destination already holds a document.
func (fs *FileStore) MoveJSON(srcDir, dstDir, key string) error {
	src := fs.filePath(srcDir, key)
	dst := fs.filePath(dstDir, key)

	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if _, err := os.Stat(dst); err == nil {
		fs.logger.Warn().Str("file", dst).Msg("Destination exists, keeping both documents")
		return nil
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dstDir, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	return nil
}
