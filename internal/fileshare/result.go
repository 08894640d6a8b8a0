package fileshare

import (
	"fmt"
	"maps"
)

// Result is the external shape of a described record.
type Result struct {
	FileID       uint64   `json:"fileId"`
	CreateTime   uint32   `json:"createTime"`
	ModifiedTime uint32   `json:"modifiedTime"`
	FileSize     uint64   `json:"fileSize"`
	OwnerID      uint64   `json:"ownerId"`
	OwnerName    string   `json:"ownerName"`
	FileSlot     uint16   `json:"fileSlot"`
	FileName     string   `json:"fileName"`
	Category     Category `json:"category"`
	MetaData     []byte   `json:"metaData"`

	// SummaryFileSize is reserved and always zero.
	SummaryFileSize uint32 `json:"summaryFileSize"`

	// Exactly one of URL and Tags is set.
	URL  string `json:"url,omitempty"`
	Tags Tags   `json:"tags,omitempty"`
}

// Project converts a described record into a Result. Downloads carry the
// asset URL, listings carry the tags.
func (r *Resolver) Project(m *Metadata, download bool) (*Result, error) {
	st, ok := m.Stage.(Described)
	if !ok {
		return nil, fmt.Errorf("%w: record %d is %s", ErrStatus, m.File.ID, m.Status())
	}

	res := &Result{
		FileID:       m.File.ID,
		CreateTime:   m.File.Timestamp,
		ModifiedTime: m.File.Timestamp,
		FileSize:     st.FileSize,
		OwnerID:      m.Author.XUID,
		OwnerName:    m.Author.Name,
		FileName:     m.File.Name,
		Category:     m.Category,
		MetaData:     st.Data,
	}

	if download {
		res.URL = r.DownloadURL(m.FileName)
	} else {
		res.Tags = maps.Clone(st.Tags)
		if res.Tags == nil {
			res.Tags = Tags{}
		}
	}
	return res, nil
}
