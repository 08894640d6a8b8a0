package fileshare

// FileStore is the byte-level storage the records live in. Paths are
// slash-separated and relative to the store root.
type FileStore interface {
	// ReadFile returns the content of the file at name.
	ReadFile(name string) ([]byte, error)

	// WriteFile replaces the content of the file at name.
	WriteFile(name string, data []byte) error

	// ListFiles returns the base names of the regular files in dir.
	ListFiles(dir string) ([]string, error)

	// Exists checks if a file exists
	Exists(name string) bool
}

// Catalog keeps a queryable copy of described records.
type Catalog interface {
	Upsert(res *Result) error
	Search(category Category) ([]*Result, error)
	Reset() error
}
