package fileshare

import (
	"fmt"
	"strconv"
	"strings"
)

const metadataExtension = "metadata"

// Directory returns the fileshare directory of a user, relative to the data root.
func Directory(userID uint64) string {
	return fmt.Sprintf("players/fileshare-%d", userID)
}

// FileName returns the primary asset name for a file id and category.
func FileName(fileID uint64, category Category) string {
	ext := category.Extension()
	if ext == "" {
		return strconv.FormatUint(fileID, 10)
	}
	return fmt.Sprintf("%d.%s", fileID, ext)
}

// Resolver maps file names onto the local user's fileshare directory and
// onto download URLs served by host.
type Resolver struct {
	host   string
	userID uint64
}

// NewResolver creates a resolver for the given download host and local user.
func NewResolver(host string, userID uint64) *Resolver {
	return &Resolver{host: host, userID: userID}
}

// UserID returns the local user the resolver was built for.
func (r *Resolver) UserID() uint64 {
	return r.userID
}

// Directory returns the local user's fileshare directory.
func (r *Resolver) Directory() string {
	return Directory(r.userID)
}

// FilePath returns the asset path for name. Any directory component of name
// is discarded.
func (r *Resolver) FilePath(name string) string {
	return r.Directory() + "/" + baseName(name)
}

// MetadataPath returns the sidecar path for name.
func (r *Resolver) MetadataPath(name string) string {
	return metadataPath(r.Directory(), name)
}

// DownloadURL returns the public URL of the asset called name.
func (r *Resolver) DownloadURL(name string) string {
	return fmt.Sprintf("http://%s/%s", r.host, baseName(name))
}

func metadataPath(dir, name string) string {
	return dir + "/" + stem(name) + "." + metadataExtension
}

// baseName strips everything up to the last slash or backslash.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// stem returns the base name without its final extension. Dot files keep
// their leading dot.
func stem(name string) string {
	base := baseName(name)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// extension returns the final extension of name without the dot.
func extension(name string) string {
	base := baseName(name)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[i+1:]
	}
	return ""
}
