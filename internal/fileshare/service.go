package fileshare

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"time"
)

// Service provides the record lifecycle on top of a FileStore
type Service struct {
	store    FileStore
	resolver *Resolver
	catalog  Catalog
	now      func() time.Time
}

// NewService creates a new fileshare service. catalog may be nil.
func NewService(store FileStore, resolver *Resolver, catalog Catalog) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		catalog:  catalog,
		now:      time.Now,
	}
}

// Resolver returns the path resolver of the service.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// CreateRequest represents a new record announced by a client
type CreateRequest struct {
	Category   Category `json:"category"`
	Name       string   `json:"name"`
	AuthorName string   `json:"authorName"`
	AuthorXUID uint64   `json:"authorXuid"`
}

// ReadMetadata reads and parses the sidecar of name. The record must be at
// expect, unless expect is StatusUnknown which accepts any status.
func (s *Service) ReadMetadata(name string, expect Status) (*Metadata, error) {
	path := s.resolver.MetadataPath(name)

	data, err := s.store.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if expect != StatusUnknown && m.Status() != expect {
		return nil, fmt.Errorf("%w: %s is %s, want %s", ErrStatus, path, m.Status(), expect)
	}
	return m, nil
}

// WriteMetadata validates m and writes it to the sidecar of name.
func (s *Service) WriteMetadata(name string, m *Metadata) error {
	if err := m.Validate(); err != nil {
		return err
	}

	data, err := Marshal(m)
	if err != nil {
		return err
	}

	path := s.resolver.MetadataPath(name)
	if err := s.store.WriteFile(path, data); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}
	return nil
}

// Create registers a new record and writes its sidecar
func (s *Service) Create(req *CreateRequest) (*Metadata, error) {
	category := CategoryFromInt(int64(req.Category))
	if category == CategoryAll {
		return nil, fmt.Errorf("%w: unknown category %d", ErrValidation, req.Category)
	}

	now := s.now()
	id := s.generateID(now)

	author := Author{Name: req.AuthorName, XUID: req.AuthorXUID}
	m := NewMetadata(id, category, req.Name, author, uint32(now.Unix()))

	if err := s.WriteMetadata(m.FileName, m); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	slog.Info("Record created", "file_id", id, "category", category.String())
	return m, nil
}

// Upload stores the asset bytes of a record and marks it uploaded
func (s *Service) Upload(fileID uint64, content io.Reader) (*Metadata, error) {
	m, err := s.ReadMetadata(recordName(fileID), StatusUnknown)
	if err != nil {
		return nil, err
	}
	if m.Status() == StatusDescribed {
		return nil, fmt.Errorf("%w: record %d is already described", ErrStatus, fileID)
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	if err := m.MarkUploaded(uint64(len(data)), uint32(s.now().Unix())); err != nil {
		return nil, err
	}
	// the sidecar must be writable before the asset lands on disk
	if err := m.Validate(); err != nil {
		return nil, err
	}

	path := s.resolver.FilePath(m.FileName)
	if err := s.store.WriteFile(path, data); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}

	if err := s.WriteMetadata(m.FileName, m); err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	slog.Info("Record uploaded", "file_id", fileID, "size", len(data))
	return m, nil
}

// Describe attaches tags and the metadata blob to an uploaded record
func (s *Service) Describe(fileID uint64, tags Tags, data []byte) (*Result, error) {
	m, err := s.ReadMetadata(recordName(fileID), StatusUploaded)
	if err != nil {
		return nil, err
	}

	if err := m.MarkDescribed(tags, data); err != nil {
		return nil, err
	}

	if err := s.WriteMetadata(m.FileName, m); err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	res, err := s.resolver.Project(m, false)
	if err != nil {
		return nil, err
	}

	if s.catalog != nil {
		if err := s.catalog.Upsert(res); err != nil {
			// the sidecar is authoritative, Reindex restores the catalog
			slog.Warn("Failed to catalog record", "file_id", fileID, "error", err)
		}
	}

	slog.Info("Record described", "file_id", fileID, "tags", len(res.Tags))
	return res, nil
}

// Get returns the described record fileID, projected for download or listing
func (s *Service) Get(fileID uint64, download bool) (*Result, error) {
	m, err := s.ReadMetadata(recordName(fileID), StatusDescribed)
	if err != nil {
		return nil, err
	}
	return s.resolver.Project(m, download)
}

// List returns the ids of the films available for the local user
func (s *Service) List() ([]uint64, error) {
	return ListRecordIDs(s.store, s.resolver.UserID())
}

// ListResults returns the listing projection of every described film.
// Records that cannot be read are skipped.
func (s *Service) ListResults() ([]*Result, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(ids))
	for _, id := range ids {
		res, err := s.Get(id, false)
		if err != nil {
			slog.Debug("Skipping record", "file_id", id, "error", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// Search returns described records of a category, CategoryAll matching every
// record. It uses the catalog when one is configured.
func (s *Service) Search(category Category) ([]*Result, error) {
	if s.catalog != nil {
		return s.catalog.Search(category)
	}

	results, err := s.ListResults()
	if err != nil {
		return nil, err
	}
	if category == CategoryAll {
		return results, nil
	}

	var filtered []*Result
	for _, res := range results {
		if res.Category == category {
			filtered = append(filtered, res)
		}
	}
	return filtered, nil
}

// Reindex rebuilds the catalog from the fileshare directory and returns the
// number of records catalogued.
func (s *Service) Reindex() (int, error) {
	if s.catalog == nil {
		return 0, errors.New("no catalog configured")
	}

	results, err := s.ListResults()
	if err != nil {
		return 0, err
	}

	if err := s.catalog.Reset(); err != nil {
		return 0, fmt.Errorf("failed to reset catalog: %w", err)
	}
	for _, res := range results {
		if err := s.catalog.Upsert(res); err != nil {
			return 0, fmt.Errorf("failed to catalog record %d: %w", res.FileID, err)
		}
	}

	slog.Info("Catalog rebuilt", "records", len(results))
	return len(results), nil
}

// Asset returns the record and bytes of the asset called name. Only assets
// of described records are served.
func (s *Service) Asset(name string) (*Metadata, []byte, error) {
	if CategoryForExtension(extension(name)) == CategoryAll {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	m, err := s.ReadMetadata(name, StatusDescribed)
	if err != nil {
		if errors.Is(err, ErrStatus) {
			return nil, nil, fmt.Errorf("%w: %s: %w", ErrNotFound, name, err)
		}
		return nil, nil, err
	}
	if m.FileName != baseName(name) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	path := s.resolver.FilePath(m.FileName)
	data, err := s.store.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	return m, data, nil
}

// generateID creates a unique file identifier
func (s *Service) generateID(now time.Time) uint64 {
	return uint64(now.UnixNano())
}

// recordName is the name whose sidecar holds the record fileID.
func recordName(fileID uint64) string {
	return strconv.FormatUint(fileID, 10)
}
