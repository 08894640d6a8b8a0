package fileshare

import (
	"fmt"
	"math"
)

// FileInfo identifies the underlying asset.
type FileInfo struct {
	ID        uint64
	Name      string
	Timestamp uint32
}

// Author identifies the owner of a record.
type Author struct {
	Name string
	XUID uint64
}

// Tags maps small integer keys to numeric values.
type Tags map[uint32]uint64

// Stage carries the fields that only exist from a given status onwards.
// It is one of Pending, Uploaded or Described.
type Stage interface {
	Status() Status
	isStage()
}

// Pending is a freshly created record whose asset has not been transferred.
type Pending struct{}

// Uploaded is a record whose asset bytes are stored.
type Uploaded struct {
	FileSize uint64
	Size     uint32
}

// Described is a fully annotated record.
type Described struct {
	FileSize uint64
	Size     uint32
	Tags     Tags
	Data     []byte
}

func (Pending) Status() Status   { return StatusUnknown }
func (Uploaded) Status() Status  { return StatusUploaded }
func (Described) Status() Status { return StatusDescribed }

func (Pending) isStage()   {}
func (Uploaded) isStage()  {}
func (Described) isStage() {}

// Metadata is the document persisted in a record's sidecar.
type Metadata struct {
	Category Category
	FileName string
	File     FileInfo
	Author   Author
	Stage    Stage
}

// NewMetadata creates a record at StatusUnknown.
func NewMetadata(fileID uint64, category Category, name string, author Author, timestamp uint32) *Metadata {
	return &Metadata{
		Category: category,
		FileName: FileName(fileID, category),
		File: FileInfo{
			ID:        fileID,
			Name:      name,
			Timestamp: timestamp,
		},
		Author: author,
		Stage:  Pending{},
	}
}

// Status returns the lifecycle status derived from the stage.
func (m *Metadata) Status() Status {
	if m.Stage == nil {
		return StatusUnknown
	}
	return m.Stage.Status()
}

// Sizes returns the overall file size and the asset size. Both are zero
// before the upload completes.
func (m *Metadata) Sizes() (uint64, uint32) {
	switch st := m.Stage.(type) {
	case Uploaded:
		return st.FileSize, st.Size
	case Described:
		return st.FileSize, st.Size
	default:
		return 0, 0
	}
}

// MarkUploaded records a completed asset transfer of a non-empty asset.
// A described record cannot go back to uploaded.
func (m *Metadata) MarkUploaded(size uint64, timestamp uint32) error {
	if m.Status() > StatusUploaded {
		return fmt.Errorf("%w: cannot upload a %s record", ErrStatus, m.Status())
	}
	if size == 0 {
		return fmt.Errorf("%w: empty asset", ErrValidation)
	}
	if size > math.MaxUint32 {
		return fmt.Errorf("%w: file size %d exceeds %d", ErrValidation, size, uint32(math.MaxUint32))
	}
	m.File.Timestamp = timestamp
	m.Stage = Uploaded{FileSize: size, Size: uint32(size)}
	return nil
}

// MarkDescribed attaches tags and the domain metadata blob to an uploaded record.
func (m *Metadata) MarkDescribed(tags Tags, data []byte) error {
	st, ok := m.Stage.(Uploaded)
	if !ok {
		return fmt.Errorf("%w: cannot describe a %s record", ErrStatus, m.Status())
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty metadata blob", ErrValidation)
	}
	if tags == nil {
		tags = Tags{}
	}
	m.Stage = Described{
		FileSize: st.FileSize,
		Size:     st.Size,
		Tags:     tags,
		Data:     data,
	}
	return nil
}

// Validate checks that the fields required by the record's status are set.
func (m *Metadata) Validate() error {
	if m.FileName == "" {
		return fmt.Errorf("%w: missing file name", ErrValidation)
	}
	if m.File.ID == 0 {
		return fmt.Errorf("%w: missing file id", ErrValidation)
	}

	switch st := m.Stage.(type) {
	case Described:
		if len(st.Data) == 0 {
			return fmt.Errorf("%w: described record has no metadata blob", ErrValidation)
		}
	case Uploaded:
		if st.FileSize == 0 {
			return fmt.Errorf("%w: uploaded record has no file size", ErrValidation)
		}
	default:
		if m.File.Name == "" {
			return fmt.Errorf("%w: missing display name", ErrValidation)
		}
	}
	return nil
}

// Valid reports whether Validate succeeds.
func (m *Metadata) Valid() bool {
	return m.Validate() == nil
}
