package fileshare

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
)

// ListRecordIDs scans the fileshare directory of userID and returns the ids
// of films that have both an asset and a sidecar. The result is a snapshot;
// ids are returned in ascending order.
func ListRecordIDs(store FileStore, userID uint64) ([]uint64, error) {
	dir := Directory(userID)

	names, err := store.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrIO, dir, err)
	}

	var ids []uint64
	for _, name := range names {
		if extension(name) != CategoryFilm.Extension() {
			continue
		}
		id, err := strconv.ParseUint(stem(name), 10, 64)
		if err != nil {
			continue
		}
		if !store.Exists(metadataPath(dir, name)) {
			slog.Debug("Skipping asset without sidecar", "path", dir+"/"+name)
			continue
		}
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return ids, nil
}
