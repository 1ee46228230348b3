package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/spf13/afero"
)

// FileBackend stores each collection as dir/<collection>.json.
type FileBackend struct {
	fs  afero.Fs
	dir string
}

func NewFileBackend(fs afero.Fs, dir string) (*FileBackend, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{fs: fs, dir: dir}, nil
}

func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) path(collection string) string {
	return filepath.Join(b.dir, collection+".json")
}

func (b *FileBackend) Load(_ context.Context, collection string) ([]Document, error) {
	data, err := afero.ReadFile(b.fs, b.path(collection))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		// Keep the unreadable bytes around; the next save replaces the file.
		_ = afero.WriteFile(b.fs, b.path(collection)+".corrupt", data, 0o644)
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, collection, err)
	}
	return docs, nil
}

// Save stages the encoded collection in a temp file next to the target and
// renames it over the target.
func (b *FileBackend) Save(_ context.Context, collection string, docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}

	tmp, err := afero.TempFile(b.fs, b.dir, collection+".json.tmp-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", collection, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("close %s: %w", collection, err)
	}

	if err := b.replace(tmpName, b.path(collection)); err != nil {
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", collection, err)
	}
	return nil
}

func (b *FileBackend) replace(src, dst string) error {
	if _, ok := b.fs.(*afero.OsFs); ok {
		return atomic.ReplaceFile(src, dst)
	}
	return b.fs.Rename(src, dst)
}
