package avatars

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/dmitrijs2005/avatargate/internal/filex"
)

// FileStore keeps avatars on the local filesystem below a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates dir if needed and returns a store rooted there.
// A relative dir is resolved against the working directory.
func NewFileStore(dir string) (*FileStore, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{root: root}, nil
}

// Root is the absolute storage directory.
func (s *FileStore) Root() string { return s.root }

// Save writes r under key atomically: readers see either the old file or
// the complete new one.
func (s *FileStore) Save(ctx context.Context, key string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := filex.Within(s.root, key)
	if err != nil {
		return err
	}
	if _, err := filex.WriteAtomic(p, r, 0o640); err != nil {
		return fmt.Errorf("save avatar: %w", err)
	}
	return nil
}

func (s *FileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := filex.Within(s.root, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("open avatar: %w", err)
	}
	return f, nil
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := filex.Within(s.root, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove avatar: %w", err)
	}
	return nil
}
