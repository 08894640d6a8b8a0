package fileshare

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// memoryStore is an in-memory FileStore for tests.
type memoryStore struct {
	files    map[string][]byte
	readErr  error
	writeErr error
	listErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: make(map[string][]byte)}
}

func (m *memoryStore) ReadFile(name string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return data, nil
}

func (m *memoryStore) WriteFile(name string, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func (m *memoryStore) ListFiles(dir string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var names []string
	prefix := dir + "/"
	for name := range m.files {
		rest, ok := strings.CutPrefix(name, prefix)
		if ok && !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *memoryStore) Exists(name string) bool {
	_, ok := m.files[name]
	return ok
}

// memoryCatalog is an in-memory Catalog for tests.
type memoryCatalog struct {
	records map[uint64]*Result
	resets  int
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{records: make(map[uint64]*Result)}
}

func (c *memoryCatalog) Upsert(res *Result) error {
	c.records[res.FileID] = res
	return nil
}

func (c *memoryCatalog) Search(category Category) ([]*Result, error) {
	var results []*Result
	for _, res := range c.records {
		if category == CategoryAll || res.Category == category {
			results = append(results, res)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].FileID < results[j].FileID })
	return results, nil
}

func (c *memoryCatalog) Reset() error {
	c.resets++
	c.records = make(map[uint64]*Result)
	return nil
}
