package persistent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
)

const tmpPrefix = ".upload-"

// FileImageRepo keeps objects as files under root. Keys are confined to
// root: "../" segments cannot escape it.
type FileImageRepo struct {
	root string
}

func NewFileImageRepo(root string) (*FileImageRepo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("FileImageRepo - New - filepath.Abs: %w", err)
	}

	err = os.MkdirAll(abs, 0o755)
	if err != nil {
		return nil, fmt.Errorf("FileImageRepo - New - os.MkdirAll: %w", err)
	}

	return &FileImageRepo{root: abs}, nil
}

func (r *FileImageRepo) Root() string {
	return r.root
}

func (r *FileImageRepo) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("FileImageRepo - path - empty key: %w", errs.ErrInvalidArgument)
	}

	return filepath.Join(r.root, clean), nil
}

func (r *FileImageRepo) Upload(ctx context.Context, key string, data io.Reader, _ string, _ int64) error {
	dst, err := r.path(key)
	if err != nil {
		return fmt.Errorf("FileImageRepo - Upload - r.path: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(dst), 0o755)
	if err != nil {
		return fmt.Errorf("FileImageRepo - Upload - os.MkdirAll: %w", err)
	}

	// write to a temp file first, readers never see a partial object
	tmp, err := os.CreateTemp(filepath.Dir(dst), tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("FileImageRepo - Upload - os.CreateTemp: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	_, err = io.Copy(tmp, ctxReader{ctx: ctx, r: data})
	if err != nil {
		tmp.Close()

		return fmt.Errorf("FileImageRepo - Upload - io.Copy: %w", err)
	}

	// the other service may run as another user on the shared directory
	err = tmp.Chmod(0o644)
	if err != nil {
		tmp.Close()

		return fmt.Errorf("FileImageRepo - Upload - tmp.Chmod: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("FileImageRepo - Upload - tmp.Close: %w", err)
	}

	err = os.Rename(tmp.Name(), dst)
	if err != nil {
		return fmt.Errorf("FileImageRepo - Upload - os.Rename: %w", err)
	}

	return nil
}

func (r *FileImageRepo) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	err := r.Upload(ctx, key, bytes.NewReader(data), contentType, int64(len(data)))
	if err != nil {
		return fmt.Errorf("FileImageRepo - UploadBytes - r.Upload: %w", err)
	}

	return nil
}

func (r *FileImageRepo) Download(_ context.Context, key string) (io.ReadCloser, error) {
	src, err := r.path(key)
	if err != nil {
		return nil, fmt.Errorf("FileImageRepo - Download - r.path: %w", err)
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("FileImageRepo - Download - os.Open: %w", mapFSError(err))
	}

	return f, nil
}

func (r *FileImageRepo) DownloadBytes(_ context.Context, key string) ([]byte, error) {
	src, err := r.path(key)
	if err != nil {
		return nil, fmt.Errorf("FileImageRepo - DownloadBytes - r.path: %w", err)
	}

	b, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("FileImageRepo - DownloadBytes - os.ReadFile: %w", mapFSError(err))
	}

	return b, nil
}

// Delete is idempotent: a missing key is not an error.
func (r *FileImageRepo) Delete(_ context.Context, key string) error {
	p, err := r.path(key)
	if err != nil {
		return fmt.Errorf("FileImageRepo - Delete - r.path: %w", err)
	}

	err = os.Remove(p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("FileImageRepo - Delete - os.Remove: %w", err)
	}

	return nil
}

func (r *FileImageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64

	err := filepath.WalkDir(r.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		err = os.Remove(p)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		deleted++

		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("FileImageRepo - DeleteOlderThan - filepath.WalkDir: %w", err)
	}

	return deleted, nil
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", errs.ErrObjectNotFound, err)
	}

	return err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
