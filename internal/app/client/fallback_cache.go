package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FallbackCache хранит скачанный снимок, пока локальное хранилище не готово.
// Держит только последний снимок.
type FallbackCache struct {
	path string
	mu   sync.Mutex
}

func NewFallbackCache(path string) *FallbackCache {
	return &FallbackCache{path: path}
}

// Put сохраняет сырое тело ответа download
func (c *FallbackCache) Put(body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, body, 0600); err != nil {
		return fmt.Errorf("write fallback cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}

// Get возвращает сохраненный снимок; ok=false если кэш пуст
func (c *FallbackCache) Get() ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read fallback cache: %w", err)
	}
	return body, true, nil
}

func (c *FallbackCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear fallback cache: %w", err)
	}
	return nil
}

// Has есть ли снимок в кэше
func (c *FallbackCache) Has() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := os.Stat(c.path)
	return err == nil
}
