package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pavel-fokin/fileshare/internal/fileshare"
	_ "modernc.org/sqlite"
)

// Repository implements fileshare.Catalog using SQLite
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite repository
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}

	// Initialize database schema
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// initSchema creates the necessary database tables
func (r *Repository) initSchema() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY,
		category INTEGER NOT NULL,
		file_name TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		owner_id INTEGER NOT NULL,
		owner_name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		tags TEXT NOT NULL,
		metadata BLOB NOT NULL
	);`
	if _, err := r.db.Exec(createTableQuery); err != nil {
		return fmt.Errorf("failed to create records table: %w", err)
	}

	createIndexesQuery := `
	CREATE INDEX IF NOT EXISTS idx_records_category_created_at ON records(category, created_at);
	`
	if _, err := r.db.Exec(createIndexesQuery); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// Upsert stores or replaces a described record
func (r *Repository) Upsert(res *fileshare.Result) error {
	tagMap := res.Tags
	if tagMap == nil {
		tagMap = fileshare.Tags{}
	}
	tags, err := json.Marshal(tagMap)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
	INSERT INTO records (id, category, file_name, file_size, owner_id, owner_name, created_at, tags, metadata)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		category = excluded.category,
		file_name = excluded.file_name,
		file_size = excluded.file_size,
		owner_id = excluded.owner_id,
		owner_name = excluded.owner_name,
		created_at = excluded.created_at,
		tags = excluded.tags,
		metadata = excluded.metadata
	`

	// ids and xuids use the full uint64 range, SQLite integers are signed
	_, err = r.db.Exec(query,
		int64(res.FileID),
		int(res.Category),
		res.FileName,
		int64(res.FileSize),
		int64(res.OwnerID),
		res.OwnerName,
		int64(res.CreateTime),
		string(tags),
		res.MetaData,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	return nil
}

// Search retrieves catalogued records of a category, newest first.
// fileshare.CategoryAll matches every record.
func (r *Repository) Search(category fileshare.Category) ([]*fileshare.Result, error) {
	query := `
	SELECT id, category, file_name, file_size, owner_id, owner_name, created_at, tags, metadata
	FROM records
	WHERE ? = 0 OR category = ?
	ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(query, int(category), int(category))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var results []*fileshare.Result
	for rows.Next() {
		var (
			res                            fileshare.Result
			id, fileSize, ownerID, created int64
			cat                            int64
			tags                           string
		)
		err := rows.Scan(
			&id,
			&cat,
			&res.FileName,
			&fileSize,
			&ownerID,
			&res.OwnerName,
			&created,
			&tags,
			&res.MetaData,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}

		res.FileID = uint64(id)
		res.Category = fileshare.CategoryFromInt(cat)
		res.FileSize = uint64(fileSize)
		res.OwnerID = uint64(ownerID)
		res.CreateTime = uint32(created)
		res.ModifiedTime = res.CreateTime
		res.Tags = fileshare.Tags{}
		if err := json.Unmarshal([]byte(tags), &res.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags of record %d: %w", res.FileID, err)
		}
		results = append(results, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return results, nil
}

// Reset removes every catalogued record
func (r *Repository) Reset() error {
	if _, err := r.db.Exec(`DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to reset records: %w", err)
	}
	return nil
}

var _ fileshare.Catalog = (*Repository)(nil)
