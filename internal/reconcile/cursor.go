package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// CursorStore persists the highest fully-processed ledger block. The value is
// monotonically non-decreasing across a worker's lifetime; a missing cursor
// means the worker has never run (or lost its state) and triggers the bounded
// backfill default.
type CursorStore interface {
	Load(ctx context.Context) (block int64, found bool, err error)
	Save(ctx context.Context, block int64) error
}

// FileCursor stores the cursor as a decimal integer in a plain file.
type FileCursor struct {
	path string
}

func NewFileCursor(path string) *FileCursor {
	return &FileCursor{path: path}
}

func (c *FileCursor) Load(_ context.Context) (int64, bool, error) {
	raw, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read cursor file: %w", err)
	}
	block, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse cursor file: %w", err)
	}
	return block, true, nil
}

func (c *FileCursor) Save(_ context.Context, block int64) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cursor directory: %w", err)
		}
	}
	if err := os.WriteFile(c.path, []byte(strconv.FormatInt(block, 10)), 0o644); err != nil {
		return fmt.Errorf("write cursor file: %w", err)
	}
	return nil
}

// MemoryCursor backs worker tests.
type MemoryCursor struct {
	mu    sync.Mutex
	block int64
	set   bool
}

func NewMemoryCursor() *MemoryCursor {
	return &MemoryCursor{}
}

func (c *MemoryCursor) Load(_ context.Context) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block, c.set, nil
}

func (c *MemoryCursor) Save(_ context.Context, block int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = block
	c.set = true
	return nil
}
