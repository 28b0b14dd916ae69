package musiccache

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	kvSep    = " => "
	kvFormat = "%s => %s\n"
)

// Cache 追加写入的 key => value 列表文件，后写入的同名键覆盖先前的值
type Cache struct {
	path string
	mu   sync.Mutex
	data map[string]string
}

// Open 加载缓存文件，不存在时创建
func Open(path string) (*Cache, error) {
	c := &Cache{path: path, data: make(map[string]string)}

	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		f.Close()
		return c, nil
	case err != nil:
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		kv := strings.SplitN(scanner.Text(), kvSep, 2)
		if len(kv) != 2 {
			continue
		}
		c.data[kv[0]] = kv[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c, nil
}

// Add 写入一条记录，值未变化时不落盘
func (c *Cache) Add(key, value string) error {
	if strings.Contains(key, "\n") || strings.Contains(value, "\n") || strings.Contains(key, kvSep) {
		return fmt.Errorf("invalid cache entry %q", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.data[key]; ok && old == value {
		return nil
	}

	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, kvFormat, key, value); err != nil {
		return err
	}
	c.data[key] = value
	return nil
}

// Get 查询记录
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}
