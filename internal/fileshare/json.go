package fileshare

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

type document struct {
	Status   Status     `json:"status"`
	Category Category   `json:"category"`
	FileName string     `json:"fileName"`
	FileSize *uint64    `json:"fileSize,omitempty"`
	File     fileObject `json:"file"`
	Author   authorObj  `json:"author"`
	Tags     *tagObject `json:"tags,omitempty"`
	Metadata *string    `json:"metadata,omitempty"`
}

type fileObject struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Size      *uint32 `json:"size,omitempty"`
	Timestamp uint32  `json:"timestamp"`
}

type authorObj struct {
	Name string `json:"name"`
	XUID uint64 `json:"xuid"`
}

type tagObject map[string]uint64

// Marshal renders the document as indented JSON. Size fields are only
// emitted once uploaded; tags and metadata only once described.
func Marshal(m *Metadata) ([]byte, error) {
	doc := document{
		Status:   m.Status(),
		Category: m.Category,
		FileName: m.FileName,
		File: fileObject{
			ID:        m.File.ID,
			Name:      m.File.Name,
			Timestamp: m.File.Timestamp,
		},
		Author: authorObj{
			Name: m.Author.Name,
			XUID: m.Author.XUID,
		},
	}

	if doc.Status.hasSize() {
		fileSize, size := m.Sizes()
		doc.FileSize = &fileSize
		doc.File.Size = &size
	}

	if st, ok := m.Stage.(Described); ok {
		tags := make(tagObject, len(st.Tags))
		for k, v := range st.Tags {
			tags[strconv.FormatUint(uint64(k), 10)] = v
		}
		blob := base64.StdEncoding.EncodeToString(st.Data)
		doc.Tags = &tags
		doc.Metadata = &blob
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return data, nil
}

// Parse reads a document of unknown provenance. Members that are missing or
// of the wrong type keep their zero value; status-gated members are only
// read when the parsed status allows them. The result must then be complete
// for its status, otherwise ErrValidation is returned.
func Parse(data []byte) (*Metadata, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	status := StatusUnknown
	if v, ok := intMember(obj, "status"); ok {
		status = StatusFromInt(v)
	}

	m := &Metadata{Stage: Pending{}}
	if v, ok := intMember(obj, "category"); ok {
		m.Category = CategoryFromInt(v)
	}
	if v, ok := stringMember(obj, "fileName"); ok {
		m.FileName = v
	}

	var fileSize uint64
	var size uint32
	if status.hasSize() {
		if v, ok := uint64Member(obj, "fileSize"); ok {
			fileSize = v
		}
	}

	if file, ok := objectMember(obj, "file"); ok {
		if v, ok := uint64Member(file, "id"); ok {
			m.File.ID = v
		}
		if v, ok := stringMember(file, "name"); ok {
			m.File.Name = v
		}
		if v, ok := uint32Member(file, "timestamp"); ok {
			m.File.Timestamp = v
		}
		if status.hasSize() {
			if v, ok := uint32Member(file, "size"); ok {
				size = v
			}
		}
	}

	if author, ok := objectMember(obj, "author"); ok {
		if v, ok := stringMember(author, "name"); ok {
			m.Author.Name = v
		}
		if v, ok := uint64Member(author, "xuid"); ok {
			m.Author.XUID = v
		}
	}

	switch status {
	case StatusUploaded:
		m.Stage = Uploaded{FileSize: fileSize, Size: size}
	case StatusDescribed:
		st := Described{FileSize: fileSize, Size: size, Tags: Tags{}}
		if raw, ok := objectMember(obj, "tags"); ok {
			if tags, ok := parseTags(raw); ok {
				st.Tags = tags
			}
		}
		if v, ok := stringMember(obj, "metadata"); ok {
			blob, err := base64.StdEncoding.DecodeString(v)
			if err != nil {
				return nil, fmt.Errorf("%w: metadata blob: %v", ErrValidation, err)
			}
			st.Data = blob
		}
		m.Stage = st
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// parseTags accepts the tags member only when every key is an unsigned
// 32-bit integer and every value an unsigned 64-bit integer.
func parseTags(obj map[string]any) (Tags, bool) {
	tags := make(Tags, len(obj))
	for key := range obj {
		k, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, false
		}
		v, ok := uint64Member(obj, key)
		if !ok {
			return nil, false
		}
		tags[uint32(k)] = v
	}
	return tags, true
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("malformed document: trailing data")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("document is not an object")
	}
	return obj, nil
}

func objectMember(obj map[string]any, key string) (map[string]any, bool) {
	v, ok := obj[key].(map[string]any)
	return v, ok
}

func stringMember(obj map[string]any, key string) (string, bool) {
	v, ok := obj[key].(string)
	return v, ok
}

func intMember(obj map[string]any, key string) (int64, bool) {
	n, ok := obj[key].(json.Number)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(n.String(), 10, 32)
	return v, err == nil
}

func uint64Member(obj map[string]any, key string) (uint64, bool) {
	n, ok := obj[key].(json.Number)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(n.String(), 10, 64)
	return v, err == nil
}

func uint32Member(obj map[string]any, key string) (uint32, bool) {
	n, ok := obj[key].(json.Number)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(n.String(), 10, 32)
	return uint32(v), err == nil
}
